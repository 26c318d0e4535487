package tidlrt

import (
	"strings"
	"testing"
)

func TestDelegateOptions(t *testing.T) {

	cfg := DefaultCompileConfig("/tmp/artifacts")
	cfg.ToolsPath = "/opt/tidl_tools"
	cfg.TensorBits = 16
	cfg.CalibrationFrames = 7
	cfg.CalibrationIterations = 9
	cfg.DenyList = []int{1, 25}

	opts := cfg.DelegateOptions()

	expected := map[string]string{
		"tidl_tools_path":                         "/opt/tidl_tools",
		"artifacts_folder":                        "/tmp/artifacts",
		"platform":                                "J7",
		"tensor_bits":                             "16",
		"accuracy_level":                          "1",
		"advanced_options:calibration_frames":     "7",
		"advanced_options:calibration_iterations": "9",
		"import":                                  "yes",
		"deny_list":                               "1,25",
	}

	got := make(map[string]string)

	for _, opt := range opts {
		got[opt.Key] = opt.Value
	}

	for key, want := range expected {
		if got[key] != want {
			t.Errorf("option %s: expected %q, got %q", key, want, got[key])
		}
	}
}

func TestDelegateOptionsDeterministicOrder(t *testing.T) {

	cfg := DefaultCompileConfig("/tmp/artifacts")
	cfg.ToolsPath = "/opt/tidl_tools"

	first := cfg.DelegateOptions()
	second := cfg.DelegateOptions()

	if len(first) != len(second) {
		t.Fatalf("option count differs between renders, %d vs %d",
			len(first), len(second))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("option %d differs between renders, %v vs %v",
				i, first[i], second[i])
		}
	}
}

func TestDelegateOptionsNoDenyList(t *testing.T) {

	cfg := DefaultCompileConfig("/tmp/artifacts")
	cfg.ToolsPath = "/opt/tidl_tools"

	for _, opt := range cfg.DelegateOptions() {
		if opt.Key == "deny_list" {
			t.Errorf("deny_list emitted for empty deny list")
		}
	}
}

func TestValidate(t *testing.T) {

	tests := []struct {
		name   string
		modify func(*CompileConfig)
		errStr string
	}{
		{"valid", func(c *CompileConfig) {}, ""},
		{"no tools path", func(c *CompileConfig) { c.ToolsPath = "" }, "tools path"},
		{"no artifacts", func(c *CompileConfig) { c.ArtifactsFolder = "" }, "artifacts folder"},
		{"bad bits", func(c *CompileConfig) { c.TensorBits = 12 }, "tensor bits"},
		{"no frames", func(c *CompileConfig) { c.CalibrationFrames = 0 }, "calibration frames"},
		{"no iterations", func(c *CompileConfig) { c.CalibrationIterations = 0 }, "calibration iterations"},
	}

	for _, tc := range tests {

		cfg := DefaultCompileConfig("/tmp/artifacts")
		cfg.ToolsPath = "/opt/tidl_tools"
		tc.modify(&cfg)

		err := cfg.Validate()

		if tc.errStr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tc.name, err)
			}
			continue
		}

		if err == nil {
			t.Errorf("%s: expected error containing %q, got nil", tc.name, tc.errStr)
		} else if !strings.Contains(err.Error(), tc.errStr) {
			t.Errorf("%s: expected error containing %q, got %q", tc.name,
				tc.errStr, err.Error())
		}
	}
}

func TestCheckEnv(t *testing.T) {

	t.Setenv(EnvToolsPath, "/opt/tidl_tools")
	t.Setenv(EnvGCCPath, "/opt/gcc-aarch64")

	if err := CheckEnv(); err != nil {
		t.Errorf("unexpected error with both variables set: %v", err)
	}

	t.Setenv(EnvGCCPath, "")

	err := CheckEnv()

	if err == nil {
		t.Errorf("expected error with %s unset", EnvGCCPath)
	}
}
