package tidlrt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// manifestFile is written beside the delegate's artifacts to record what
// produced them
const manifestFile = "manifest.json"

// Manifest records the inputs of a compilation run.  It is written into the
// artifacts folder so compiled artifacts can be traced back to the model and
// options that produced them.
type Manifest struct {
	RunID     string    `json:"run_id"`
	ModelFile string    `json:"model_file"`
	Options   []Option  `json:"options"`
	CreatedAt time.Time `json:"created_at"`
}

// PrepareArtifactsDir ensures the artifacts directory exists and is empty.
// The delegate requires an empty directory, stale artifacts from a previous
// compilation make it fail in opaque ways.
func PrepareArtifactsDir(dir string) error {

	if dir == "" {
		return fmt.Errorf("artifacts directory is empty string")
	}

	info, err := os.Stat(dir)

	if err == nil && !info.IsDir() {
		return fmt.Errorf("artifacts path %s exists and is not a directory", dir)
	}

	if err == nil {
		// clear previous contents
		err = os.RemoveAll(dir)

		if err != nil {
			return fmt.Errorf("error clearing artifacts directory: %w", err)
		}
	}

	err = os.MkdirAll(dir, 0o755)

	if err != nil {
		return fmt.Errorf("error creating artifacts directory: %w", err)
	}

	return nil
}

// WriteManifest records the compilation run in the artifacts folder and
// returns the generated run id
func WriteManifest(modelFile string, cfg CompileConfig) (string, error) {

	m := Manifest{
		RunID:     uuid.NewString(),
		ModelFile: modelFile,
		Options:   cfg.DelegateOptions(),
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(m, "", "  ")

	if err != nil {
		return "", fmt.Errorf("error encoding manifest: %w", err)
	}

	path := filepath.Join(cfg.ArtifactsFolder, manifestFile)

	err = os.WriteFile(path, data, 0o644)

	if err != nil {
		return "", fmt.Errorf("error writing manifest: %w", err)
	}

	return m.RunID, nil
}

// ReadManifest loads the manifest from an artifacts folder
func ReadManifest(dir string) (Manifest, error) {

	var m Manifest

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))

	if err != nil {
		return m, fmt.Errorf("error reading manifest: %w", err)
	}

	err = json.Unmarshal(data, &m)

	if err != nil {
		return m, fmt.Errorf("error decoding manifest: %w", err)
	}

	return m, nil
}

// ListArtifacts returns the names of files the delegate wrote into the
// artifacts folder, sorted, excluding the manifest
func ListArtifacts(dir string) ([]string, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, fmt.Errorf("error reading artifacts directory: %w", err)
	}

	var names []string

	for _, e := range entries {

		if e.IsDir() || e.Name() == manifestFile {
			continue
		}

		names = append(names, e.Name())
	}

	sort.Strings(names)

	return names, nil
}
