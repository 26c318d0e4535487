/*
Example code showing how to compile a TFLite classification model for the
TIDL delegate and run inference on the compiled artifacts.

Compilation runs on an x86 host with the TIDL tools installed:

	classify -mode compile -m mobilenet_v1.tflite -lib libtidl_tfl_delegate.so \
	  -d ./artifacts -c ./calib-images

Inference runs on the target device against the compiled artifacts:

	classify -mode infer -m mobilenet_v1.tflite -lib libtidl_tfl_delegate.so \
	  -d ./artifacts -i cat.jpg -l labels.txt
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/edgeml/go-tidlrt"
	"github.com/edgeml/go-tidlrt/preprocess"
	"github.com/edgeml/go-tidlrt/render"
	"gocv.io/x/gocv"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	mode := flag.String("mode", "infer", "Mode to run, compile or infer")
	modelFile := flag.String("m", "mobilenet_v1.tflite", "TFLite model file")
	delegateLib := flag.String("lib", "libtidl_tfl_delegate.so", "TIDL delegate shared object")
	artifactsDir := flag.String("d", "./artifacts", "Artifacts directory")
	imgFile := flag.String("i", "cat.jpg", "Image file to run inference on")
	labelFile := flag.String("l", "labels.txt", "Model labels text file")
	calibDir := flag.String("c", "./calib-images", "Calibration images directory for compilation")
	tensorBits := flag.Int("bits", 8, "Quantization bit width, 8 or 16")
	calibFrames := flag.Int("frames", 3, "Number of calibration frames")
	calibIters := flag.Int("iters", 5, "Number of calibration iterations")
	debugLevel := flag.Int("debug", 0, "Delegate debug verbosity 0-3")
	denyList := flag.String("deny", "", "Comma separated TFLite operator codes to keep off the DSP")
	warmup := flag.Int("warmup", 5, "Number of warmup inference runs")
	runs := flag.Int("runs", 20, "Number of timed inference runs")
	chartFile := flag.String("chart", "", "Write benchmark bar chart to this image file")
	logsDir := flag.String("logs", "./logs", "Directory for the run log file")
	device := flag.String("device", "", "Pin the process to the Arm cores of this TI device, eg: am62a")
	flag.Parse()

	if *device != "" {
		if err := tidlrt.SetCPUAffinityByDevice(*device); err != nil {
			log.Fatal("Failed to set CPU affinity: ", err)
		}
	}

	// redirect delegate chatter to a log file, restored on exit
	scope, err := tidlrt.NewLogScope(*logsDir, *mode+".log")

	if err != nil {
		log.Fatal("Error creating log scope: ", err)
	}

	defer scope.Close()

	switch *mode {
	case "compile":
		compile(*modelFile, *delegateLib, *artifactsDir, *calibDir,
			*tensorBits, *calibFrames, *calibIters, *debugLevel, *denyList)

	case "infer":
		infer(*modelFile, *delegateLib, *artifactsDir, *imgFile, *labelFile,
			*warmup, *runs, *chartFile)

	default:
		log.Fatal("Unknown mode: ", *mode)
	}
}

// compile calibrates and compiles the model through the TIDL delegate,
// populating the artifacts directory
func compile(modelFile, delegateLib, artifactsDir, calibDir string,
	tensorBits, calibFrames, calibIters, debugLevel int, denyList string) {

	if err := tidlrt.CheckEnv(); err != nil {
		log.Fatal("Environment check failed: ", err)
	}

	frames, err := calibrationImages(calibDir)

	if err != nil {
		log.Fatal("Error finding calibration images: ", err)
	}

	cfg := tidlrt.DefaultCompileConfig(artifactsDir)
	cfg.TensorBits = tensorBits
	cfg.CalibrationFrames = calibFrames
	cfg.CalibrationIterations = calibIters
	cfg.DebugLevel = debugLevel

	deny, err := parseDenyList(denyList)

	if err != nil {
		log.Fatal("Error parsing deny list: ", err)
	}

	cfg.DenyList = deny

	compiler := &tidlrt.Compiler{
		Config:      cfg,
		DelegateLib: delegateLib,
		ModelFile:   modelFile,
		Frames:      frames,
		Preprocess:  preprocess.LoadImageTensor,
	}

	runID, err := compiler.Run()

	if err != nil {
		log.Fatal("Compilation failed: ", err)
	}

	log.Printf("Compilation run %s complete\n", runID)

	artifacts, err := tidlrt.ListArtifacts(artifactsDir)

	if err != nil {
		log.Fatal("Error listing artifacts: ", err)
	}

	log.Println("Delegate artifacts:")

	for _, name := range artifacts {
		log.Printf("  %s\n", name)
	}
}

// infer loads the compiled artifacts through a second delegate instance and
// runs repeated inference on a single image
func infer(modelFile, delegateLib, artifactsDir, imgFile, labelFile string,
	warmup, runs int, chartFile string) {

	delegate, err := tidlrt.LoadDelegate(delegateLib,
		tidlrt.InferenceOptions(artifactsDir))

	if err != nil {
		log.Fatal("Error loading TIDL delegate: ", err)
	}

	rt, err := tidlrt.NewRuntime(modelFile, delegate)

	if err != nil {
		log.Fatal("Error initializing runtime: ", err)
	}

	rt.SetInputTypeFloat32(true)

	// print model tensor info
	rt.Query(os.Stdout)

	// load image
	img := gocv.IMRead(imgFile, gocv.IMReadColor)

	if img.Empty() {
		log.Fatal("Error reading image from: ", imgFile)
	}

	// convert colorspace and preprocess to the input tensor size
	rgbImg := gocv.NewMat()
	gocv.CvtColor(img, &rgbImg, gocv.ColorBGRToRGB)

	cropSize := int(rt.InputAttrs()[0].Dims[1])
	resizer := preprocess.NewResizer(preprocess.DefaultShortSide, cropSize)

	inputImg := gocv.NewMat()
	err = resizer.Preprocess(rgbImg, &inputImg)

	defer img.Close()
	defer rgbImg.Close()
	defer inputImg.Close()
	defer resizer.Close()

	if err != nil {
		log.Fatal("Error preprocessing image: ", err)
	}

	// repeated inference for stable timing
	bench, outputs, err := rt.Benchmark([]gocv.Mat{inputImg}, warmup, runs)

	if err != nil {
		log.Fatal("Runtime inferencing failed with error: ", err)
	}

	// post process outputs and show top5 matches
	labels, err := tidlrt.LoadLabels(labelFile)

	if err != nil {
		log.Fatal("Error loading labels: ", err)
	}

	top5 := tidlrt.GetTop5(outputs.Output)
	names := tidlrt.DecodeLabels(top5, labels)

	log.Println(" --- Top5 ---")

	for i, next := range top5 {
		log.Printf("%4d: %8.6f  %s\n", next.LabelIndex, next.Probability, names[i])
	}

	// benchmark report
	bench.Summary(os.Stdout)

	chartLabels := []string{"mean", "median", "p99"}
	chartValues := []float64{
		float64(bench.Mean().Microseconds()) / 1000.0,
		float64(bench.Quantile(0.5).Microseconds()) / 1000.0,
		float64(bench.Quantile(0.99).Microseconds()) / 1000.0,
	}

	if err := render.TextBars(os.Stdout, chartLabels, chartValues, "ms"); err != nil {
		log.Fatal("Error writing text chart: ", err)
	}

	if chartFile != "" {
		chart := render.NewBarChart(fmt.Sprintf("Inference latency, %d runs", runs), "ms")

		if err := chart.Save(chartLabels, chartValues, chartFile); err != nil {
			log.Fatal("Error writing chart: ", err)
		}

		log.Printf("Chart written to %s\n", chartFile)
	}

	// close runtime and release resources
	err = rt.Close()

	if err != nil {
		log.Fatal("Error closing runtime: ", err)
	}

	log.Println("done")
}

// calibrationImages returns the image files in a directory sorted by name
func calibrationImages(dir string) ([]string, error) {

	var frames []string

	for _, pattern := range []string{"*.jpg", "*.jpeg", "*.png"} {

		matches, err := filepath.Glob(filepath.Join(dir, pattern))

		if err != nil {
			return nil, err
		}

		frames = append(frames, matches...)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}

	sort.Strings(frames)

	return frames, nil
}

// parseDenyList converts the comma separated operator code string to ints
func parseDenyList(s string) ([]int, error) {

	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var codes []int

	for _, part := range strings.Split(s, ",") {

		code, err := strconv.Atoi(strings.TrimSpace(part))

		if err != nil {
			return nil, fmt.Errorf("invalid operator code %q", part)
		}

		codes = append(codes, code)
	}

	return codes, nil
}
