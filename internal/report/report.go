// Package report provides run manifest handling and persistence.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Manifest records what a stitch run consumed and produced, written as a
// JSON sidecar next to the composites so a batch directory stays
// self-describing.
type Manifest struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Mode     string    `json:"mode"`
	Detector string    `json:"detector,omitempty"`

	// Input and output paths (relative to the manifest file)
	Inputs    []string `json:"inputs"`
	Outputs   []Output `json:"outputs"`
	Discarded []string `json:"discarded,omitempty"`
	Errors    []string `json:"errors,omitempty"`

	Settings Settings `json:"settings,omitempty"`
}

// Output is one composite and the inputs that composed it.
type Output struct {
	Path    string   `json:"path"`
	Sources []string `json:"sources"`
}

// Settings holds the knobs that shaped the run.
type Settings struct {
	MinGoodMatches   int  `json:"min_good_matches,omitempty"`
	BoundaryDetect   bool `json:"boundary_detect"`
	AlphaMask        bool `json:"alpha_mask"`
	VerticalPairwise bool `json:"vertical_pairwise"`
}

// New creates a manifest for a run in the given mode.
func New(mode string) *Manifest {
	now := time.Now()
	return &Manifest{
		Version:  1,
		Created:  now,
		Modified: now,
		Mode:     mode,
	}
}

// Load loads a manifest from a JSON file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// Save saves the manifest to a file.
func (m *Manifest) Save(path string) error {
	m.Modified = time.Now()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AddInput records an input path, stored relative to the manifest when
// possible.
func (m *Manifest) AddInput(manifestPath, inputPath string) {
	m.Inputs = append(m.Inputs, relTo(manifestPath, inputPath))
	m.Modified = time.Now()
}

// AddOutput records a composite and its sources, stored relative to the
// manifest when possible.
func (m *Manifest) AddOutput(manifestPath, outputPath string, sources []string) {
	out := Output{Path: relTo(manifestPath, outputPath)}
	for _, s := range sources {
		out.Sources = append(out.Sources, relTo(manifestPath, s))
	}
	m.Outputs = append(m.Outputs, out)
	m.Modified = time.Now()
}

// OutputPath returns the absolute path of the i-th output.
func (m *Manifest) OutputPath(manifestPath string, i int) string {
	if i < 0 || i >= len(m.Outputs) {
		return ""
	}
	p := m.Outputs[i].Path
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(manifestPath), p)
}

func relTo(manifestPath, path string) string {
	rel, err := filepath.Rel(filepath.Dir(manifestPath), path)
	if err != nil {
		return path
	}
	return rel
}
