package tidlrt

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables that must point at the vendor toolchains.  The TIDL
// tools path holds the delegate's offline compiler and import tools, the GCC
// path the aarch64 cross compiler used by it.
const (
	EnvToolsPath = "TIDL_TOOLS_PATH"
	EnvGCCPath   = "ARM64_GCC_PATH"
)

// Option is a single key/value pair passed opaquely to the delegate.  The
// delegate owns the semantics of every key, this package only constructs
// them.
type Option struct {
	Key   string
	Value string
}

// CompileConfig holds the configuration handed to the TIDL delegate for
// offline compilation (calibration, quantization and subgraph partitioning)
// of a model.  Zero values fall back to the delegate defaults set in
// DefaultCompileConfig.
type CompileConfig struct {
	// ToolsPath is the TIDL tools directory, taken from TIDL_TOOLS_PATH
	// when left empty
	ToolsPath string
	// ArtifactsFolder is the directory the delegate writes compiled
	// artifacts to.  It must exist and be empty before compilation
	ArtifactsFolder string
	// Platform is the target device family identifier
	Platform string
	// Version is the delegate tools version string
	Version string
	// TensorBits is the fixed point quantization bit width, 8 or 16
	TensorBits int
	// AccuracyLevel selects the calibration method, 0 for simple, 1 for
	// advanced iterative calibration
	AccuracyLevel int
	// DebugLevel sets delegate verbosity, 0 silent through 3 most verbose
	DebugLevel int
	// MaxNumSubgraphs caps how many subgraphs the delegate may offload
	MaxNumSubgraphs int
	// CalibrationFrames is the number of input frames used for calibration
	CalibrationFrames int
	// CalibrationIterations is the number of passes over the calibration
	// frames
	CalibrationIterations int
	// DenyList holds TFLite builtin operator codes the delegate must leave
	// on the Arm core instead of offloading
	DenyList []int
}

// DefaultCompileConfig returns a CompileConfig with the delegate defaults
// used for 8-bit quantization of image models
func DefaultCompileConfig(artifactsFolder string) CompileConfig {
	return CompileConfig{
		ToolsPath:             os.Getenv(EnvToolsPath),
		ArtifactsFolder:       artifactsFolder,
		Platform:              "J7",
		Version:               "8.2",
		TensorBits:            8,
		AccuracyLevel:         1,
		DebugLevel:            0,
		MaxNumSubgraphs:       16,
		CalibrationFrames:     3,
		CalibrationIterations: 5,
	}
}

// CheckEnv verifies the vendor toolchain environment variables are set.
// The delegate aborts in undefined ways without them so they are checked
// up front.
func CheckEnv() error {

	for _, name := range []string{EnvToolsPath, EnvGCCPath} {
		if os.Getenv(name) == "" {
			return fmt.Errorf("required environment variable %s is not set", name)
		}
	}

	return nil
}

// DelegateOptions renders the configuration as the flat key/value record the
// delegate accepts at load time.  Keys are emitted in a fixed order so
// repeated compilations produce identical manifests.
func (c CompileConfig) DelegateOptions() []Option {

	opts := []Option{
		{"tidl_tools_path", c.ToolsPath},
		{"artifacts_folder", c.ArtifactsFolder},
		{"platform", c.Platform},
		{"version", c.Version},
		{"tensor_bits", strconv.Itoa(c.TensorBits)},
		{"accuracy_level", strconv.Itoa(c.AccuracyLevel)},
		{"debug_level", strconv.Itoa(c.DebugLevel)},
		{"max_num_subgraphs", strconv.Itoa(c.MaxNumSubgraphs)},
		{"advanced_options:calibration_frames", strconv.Itoa(c.CalibrationFrames)},
		{"advanced_options:calibration_iterations", strconv.Itoa(c.CalibrationIterations)},
		{"import", "yes"},
	}

	if len(c.DenyList) > 0 {
		opts = append(opts, Option{"deny_list", joinInts(c.DenyList)})
	}

	return opts
}

// Validate checks the syntactic constraints of the configuration.  The
// delegate's own semantics are not checked here, only what this package
// needs to construct a well formed option record.
func (c CompileConfig) Validate() error {

	if c.ToolsPath == "" {
		return fmt.Errorf("tools path is empty, set %s or CompileConfig.ToolsPath",
			EnvToolsPath)
	}

	if c.ArtifactsFolder == "" {
		return fmt.Errorf("artifacts folder is empty")
	}

	if c.TensorBits != 8 && c.TensorBits != 16 {
		return fmt.Errorf("tensor bits must be 8 or 16, got %d", c.TensorBits)
	}

	if c.CalibrationFrames < 1 {
		return fmt.Errorf("calibration frames must be at least 1, got %d",
			c.CalibrationFrames)
	}

	if c.CalibrationIterations < 1 {
		return fmt.Errorf("calibration iterations must be at least 1, got %d",
			c.CalibrationIterations)
	}

	return nil
}

// InferenceOptions renders the reduced option record used when loading
// already compiled artifacts for on-device inference
func InferenceOptions(artifactsFolder string) []Option {
	return []Option{
		{"tidl_tools_path", os.Getenv(EnvToolsPath)},
		{"artifacts_folder", artifactsFolder},
		{"import", "no"},
	}
}

// joinInts renders the operator deny list as the comma separated string
// format the delegate parses
func joinInts(vals []int) string {

	strs := make([]string, len(vals))

	for i, v := range vals {
		strs[i] = strconv.Itoa(v)
	}

	return strings.Join(strs, ",")
}
