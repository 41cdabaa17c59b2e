package config

import (
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		t.Error("window size should be positive")
	}
	if cfg.Camera.ZoomFactor <= 1 {
		t.Error("zoom factor should exceed 1")
	}
	if cfg.Bond.Segments < 3 {
		t.Errorf("bond segments = %d", cfg.Bond.Segments)
	}
	if cfg.Bond.Diameter <= 0 {
		t.Error("bond diameter should be positive")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajview.yaml")

	cfg := Default()
	cfg.Window.Width = 640
	cfg.Bond.Segments = 8
	cfg.RequestTimeout = 2.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Window.Width != 640 {
		t.Errorf("width = %d", got.Window.Width)
	}
	if got.Bond.Segments != 8 {
		t.Errorf("segments = %d", got.Bond.Segments)
	}
	if got.RequestTimeout != 2.5 {
		t.Errorf("timeout = %v", got.RequestTimeout)
	}
	// Untouched keys keep their defaults.
	if got.Camera.ZoomFactor != DefaultZoomFactor {
		t.Errorf("zoom factor = %v", got.Camera.ZoomFactor)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
