package tidlrt

import (
	"fmt"
)

// FrameFunc preprocesses a calibration image file into the model's float32
// input tensor
type FrameFunc func(imageFile string) ([]float32, error)

// Compiler drives the delegate's offline compilation of a model.  It feeds
// the calibration frames through a delegate backed interpreter, the delegate
// accumulates quantization statistics and writes the compiled artifacts when
// the runtime is closed.
type Compiler struct {
	// Config is the compilation configuration passed to the delegate
	Config CompileConfig
	// DelegateLib is the path to the delegate shared object
	DelegateLib string
	// ModelFile is the float TFLite model to compile
	ModelFile string
	// Frames are the calibration image files
	Frames []string
	// Preprocess converts a calibration image into the model input tensor
	Preprocess FrameFunc
}

// Run performs the compilation and returns the run id recorded in the
// artifacts manifest.  Delegate errors are fatal to the run, nothing is
// retried.
func (c *Compiler) Run() (string, error) {

	err := CheckEnv()

	if err != nil {
		return "", err
	}

	err = c.Config.Validate()

	if err != nil {
		return "", fmt.Errorf("invalid compile configuration: %w", err)
	}

	if len(c.Frames) < c.Config.CalibrationFrames {
		return "", fmt.Errorf("need %d calibration frames, only %d images given",
			c.Config.CalibrationFrames, len(c.Frames))
	}

	if c.Preprocess == nil {
		return "", fmt.Errorf("no preprocess function set")
	}

	err = PrepareArtifactsDir(c.Config.ArtifactsFolder)

	if err != nil {
		return "", err
	}

	runID, err := WriteManifest(c.ModelFile, c.Config)

	if err != nil {
		return "", err
	}

	delegate, err := LoadDelegate(c.DelegateLib, c.Config.DelegateOptions())

	if err != nil {
		return "", fmt.Errorf("error loading delegate for compilation: %w", err)
	}

	rt, err := NewRuntime(c.ModelFile, delegate)

	if err != nil {
		return "", fmt.Errorf("error initializing runtime: %w", err)
	}

	// feed each calibration frame through the interpreter once, the
	// delegate handles the configured calibration iterations internally
	for _, frame := range c.Frames[:c.Config.CalibrationFrames] {

		tensor, err := c.Preprocess(frame)

		if err != nil {
			rt.Close()
			return "", fmt.Errorf("error preprocessing calibration frame %s: %w",
				frame, err)
		}

		_, err = rt.InferenceTensor(tensor)

		if err != nil {
			rt.Close()
			return "", fmt.Errorf("delegate calibration failed on frame %s: %w",
				frame, err)
		}
	}

	// closing the runtime finalizes the delegate and flushes artifacts
	err = rt.Close()

	if err != nil {
		return "", fmt.Errorf("error closing runtime: %w", err)
	}

	return runID, nil
}
