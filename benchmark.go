package tidlrt

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/klauspost/cpuid/v2"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Benchmark holds per invocation wall time samples of repeated inference
// runs along with the byte volume moved in and out of the interpreter per
// invocation
type Benchmark struct {
	// Samples are the measured invocation times, warmup runs excluded
	Samples []time.Duration
	// Warmup is the number of discarded warmup invocations
	Warmup int
	// BytesIn and BytesOut are the input and output tensor byte sizes
	// copied per invocation
	BytesIn  uint
	BytesOut uint
}

// Benchmark runs repeated inference on the given input images to collect
// stable timing measurements.  The first warmup invocations are discarded,
// the delegate populates caches and pipelines on them.  The outputs of the
// final invocation are returned for post processing.
func (r *Runtime) Benchmark(mats []gocv.Mat, warmup, runs int) (*Benchmark, *Outputs, error) {

	if runs < 1 {
		return nil, nil, fmt.Errorf("number of runs must be at least 1, got %d", runs)
	}

	b := &Benchmark{
		Samples: make([]time.Duration, 0, runs),
		Warmup:  warmup,
	}

	for _, attr := range r.inputAttrs {
		b.BytesIn += attr.Size
	}

	for _, attr := range r.outputAttrs {
		b.BytesOut += attr.Size
	}

	var outputs *Outputs
	var err error

	for i := 0; i < warmup+runs; i++ {

		start := time.Now()

		outputs, err = r.Inference(mats)

		if err != nil {
			return nil, nil, fmt.Errorf("benchmark run %d failed: %w", i, err)
		}

		if i >= warmup {
			b.Samples = append(b.Samples, time.Since(start))
		}
	}

	return b, outputs, nil
}

// seconds returns the samples converted to float64 seconds for the stat
// functions
func (b *Benchmark) seconds() []float64 {

	secs := make([]float64, len(b.Samples))

	for i, d := range b.Samples {
		secs[i] = d.Seconds()
	}

	return secs
}

// Mean returns the average invocation time
func (b *Benchmark) Mean() time.Duration {
	return time.Duration(stat.Mean(b.seconds(), nil) * float64(time.Second))
}

// StdDev returns the standard deviation of invocation times
func (b *Benchmark) StdDev() time.Duration {
	return time.Duration(stat.StdDev(b.seconds(), nil) * float64(time.Second))
}

// Quantile returns the p'th quantile invocation time, eg: 0.5 for the
// median or 0.99 for the worst one percent
func (b *Benchmark) Quantile(p float64) time.Duration {

	secs := b.seconds()
	sort.Float64s(secs)

	return time.Duration(stat.Quantile(p, stat.Empirical, secs, nil) *
		float64(time.Second))
}

// FPS returns the measured inference throughput in frames per second
func (b *Benchmark) FPS() float64 {

	mean := stat.Mean(b.seconds(), nil)

	if mean == 0 {
		return 0
	}

	return 1.0 / mean
}

// Bandwidth returns the tensor copy bandwidth in megabytes per second,
// derived from the bytes moved in and out of the interpreter per invocation
func (b *Benchmark) Bandwidth() float64 {

	mean := stat.Mean(b.seconds(), nil)

	if mean == 0 {
		return 0
	}

	return float64(b.BytesIn+b.BytesOut) / mean / (1024 * 1024)
}

// Summary writes a human readable benchmark report
func (b *Benchmark) Summary(w io.Writer) {

	fmt.Fprintf(w, "Host CPU: %s, %d cores\n", cpuid.CPU.BrandName,
		cpuid.CPU.LogicalCores)
	fmt.Fprintf(w, "Runs: %d (plus %d warmup)\n", len(b.Samples), b.Warmup)
	fmt.Fprintf(w, "Mean: %v, StdDev: %v\n", b.Mean(), b.StdDev())
	fmt.Fprintf(w, "Median: %v, P99: %v\n", b.Quantile(0.5), b.Quantile(0.99))
	fmt.Fprintf(w, "Throughput: %.2f FPS\n", b.FPS())
	fmt.Fprintf(w, "Tensor bandwidth: %.2f MB/s (%d bytes in, %d bytes out per run)\n",
		b.Bandwidth(), b.BytesIn, b.BytesOut)
}
