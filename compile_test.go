package tidlrt

import (
	"path/filepath"
	"strings"
	"testing"
)

// testCompiler returns a Compiler that passes every pre-flight check up to
// delegate loading
func testCompiler(t *testing.T) *Compiler {

	cfg := DefaultCompileConfig(filepath.Join(t.TempDir(), "artifacts"))
	cfg.ToolsPath = "/opt/tidl_tools"

	return &Compiler{
		Config:      cfg,
		DelegateLib: filepath.Join(t.TempDir(), "libtidl_tfl_delegate.so"),
		ModelFile:   "mobilenet_v1.tflite",
		Frames:      []string{"calib_0.jpg", "calib_1.jpg", "calib_2.jpg"},
		Preprocess: func(string) ([]float32, error) {
			return make([]float32, 224*224*3), nil
		},
	}
}

func TestCompilerRunPreflight(t *testing.T) {

	tests := []struct {
		name   string
		modify func(*Compiler)
		errStr string
	}{
		{
			"missing env",
			func(c *Compiler) {},
			"required environment variable",
		},
		{
			"invalid config",
			func(c *Compiler) { c.Config.TensorBits = 12 },
			"invalid compile configuration",
		},
		{
			"frame shortfall",
			func(c *Compiler) { c.Frames = []string{"a.jpg"} },
			"need 3 calibration frames, only 1 images given",
		},
		{
			"nil preprocess",
			func(c *Compiler) { c.Preprocess = nil },
			"no preprocess function",
		},
		{
			"missing delegate library",
			func(c *Compiler) {},
			"delegate library does not exist",
		},
	}

	for _, tc := range tests {

		if tc.name != "missing env" {
			t.Setenv(EnvToolsPath, "/opt/tidl_tools")
			t.Setenv(EnvGCCPath, "/opt/gcc-aarch64")
		} else {
			t.Setenv(EnvToolsPath, "/opt/tidl_tools")
			t.Setenv(EnvGCCPath, "")
		}

		c := testCompiler(t)
		tc.modify(c)

		_, err := c.Run()

		if err == nil {
			t.Errorf("%s: expected error containing %q, got nil", tc.name, tc.errStr)
		} else if !strings.Contains(err.Error(), tc.errStr) {
			t.Errorf("%s: expected error containing %q, got %q", tc.name,
				tc.errStr, err.Error())
		}
	}
}

// TestCompilerRunPreparesArtifacts verifies the artifacts directory is
// cleaned and the run manifest written before the delegate is loaded
func TestCompilerRunPreparesArtifacts(t *testing.T) {

	t.Setenv(EnvToolsPath, "/opt/tidl_tools")
	t.Setenv(EnvGCCPath, "/opt/gcc-aarch64")

	c := testCompiler(t)

	// the delegate library does not exist so Run fails after the
	// bookkeeping steps
	_, err := c.Run()

	if err == nil {
		t.Fatalf("expected error for missing delegate library")
	}

	m, err := ReadManifest(c.Config.ArtifactsFolder)

	if err != nil {
		t.Fatalf("manifest not written before delegate load: %v", err)
	}

	if m.ModelFile != c.ModelFile {
		t.Errorf("manifest model file mismatch, expected %s got %s",
			c.ModelFile, m.ModelFile)
	}

	if m.RunID == "" {
		t.Errorf("manifest run id is empty")
	}
}
