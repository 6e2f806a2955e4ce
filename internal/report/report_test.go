package report

import (
	"path/filepath"
	"testing"
)

func TestManifestRelativePaths(t *testing.T) {
	m := New("pairwise")
	manifestPath := filepath.Join("/runs/batch-1", "stitch-report.json")

	m.AddInput(manifestPath, "/runs/batch-1/shot-01.png")
	m.AddOutput(manifestPath, "/runs/batch-1/stitched.png", []string{
		"/runs/batch-1/shot-01.png",
		"/elsewhere/shot-02.png",
	})

	if m.Inputs[0] != "shot-01.png" {
		t.Errorf("input path = %q, want relative shot-01.png", m.Inputs[0])
	}
	if m.Outputs[0].Path != "stitched.png" {
		t.Errorf("output path = %q, want relative stitched.png", m.Outputs[0].Path)
	}
	if got := m.OutputPath(manifestPath, 0); got != filepath.Join("/runs/batch-1", "stitched.png") {
		t.Errorf("OutputPath = %q", got)
	}
	if m.OutputPath(manifestPath, 5) != "" {
		t.Error("out-of-range OutputPath should be empty")
	}
}

func TestManifestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stitch-report.json")

	m := New("scans")
	m.Detector = "ORB"
	m.Settings.MinGoodMatches = 12
	m.AddInput(path, filepath.Join(dir, "a.png"))
	m.AddOutput(path, filepath.Join(dir, "out.png"), []string{filepath.Join(dir, "a.png")})
	m.Discarded = append(m.Discarded, "b.png")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Version != 1 || back.Mode != "scans" || back.Detector != "ORB" {
		t.Errorf("round trip header = %+v", back)
	}
	if len(back.Inputs) != 1 || back.Inputs[0] != "a.png" {
		t.Errorf("round trip inputs = %v", back.Inputs)
	}
	if len(back.Outputs) != 1 || back.Outputs[0].Path != "out.png" {
		t.Errorf("round trip outputs = %v", back.Outputs)
	}
	if back.Settings.MinGoodMatches != 12 {
		t.Errorf("round trip settings = %+v", back.Settings)
	}
	if len(back.Discarded) != 1 {
		t.Errorf("round trip discarded = %v", back.Discarded)
	}
}

func TestManifestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}
