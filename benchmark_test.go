package tidlrt

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func testBenchmark() *Benchmark {
	return &Benchmark{
		Samples: []time.Duration{
			10 * time.Millisecond,
			20 * time.Millisecond,
			30 * time.Millisecond,
			40 * time.Millisecond,
		},
		Warmup:   2,
		BytesIn:  512 * 1024,
		BytesOut: 512 * 1024,
	}
}

func TestBenchmarkMean(t *testing.T) {

	b := testBenchmark()

	if got := b.Mean(); got != 25*time.Millisecond {
		t.Errorf("expected mean 25ms, got %v", got)
	}
}

func TestBenchmarkQuantile(t *testing.T) {

	b := testBenchmark()

	if got := b.Quantile(0.5); got != 20*time.Millisecond {
		t.Errorf("expected median 20ms, got %v", got)
	}

	if got := b.Quantile(0.99); got != 40*time.Millisecond {
		t.Errorf("expected p99 40ms, got %v", got)
	}
}

func TestBenchmarkFPS(t *testing.T) {

	b := testBenchmark()

	if got := b.FPS(); math.Abs(got-40.0) > 1e-9 {
		t.Errorf("expected 40 FPS, got %f", got)
	}
}

func TestBenchmarkBandwidth(t *testing.T) {

	b := testBenchmark()

	// 1 MiB moved per invocation at 25ms mean is 40 MB/s
	if got := b.Bandwidth(); math.Abs(got-40.0) > 1e-9 {
		t.Errorf("expected 40 MB/s, got %f", got)
	}
}

func TestBenchmarkStdDev(t *testing.T) {

	b := testBenchmark()

	// sample standard deviation of 10,20,30,40ms
	want := 12.909944 * float64(time.Millisecond)

	if got := float64(b.StdDev()); math.Abs(got-want) > float64(10*time.Microsecond) {
		t.Errorf("expected stddev ~12.91ms, got %v", b.StdDev())
	}
}

func TestBenchmarkSummary(t *testing.T) {

	b := testBenchmark()

	var buf bytes.Buffer
	b.Summary(&buf)

	out := buf.String()

	for _, want := range []string{"Runs: 4", "40.00 FPS", "Mean:", "Median:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q in output:\n%s", want, out)
		}
	}
}
