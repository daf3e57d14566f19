package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Read(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.ClusterDistance != 0.005 || cfg.Workers != 1 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestReadOverridesAndResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"urlRoot":"data","workers":4,"clusterDistance":-1,"upload":{"maxFileSizeMB":20}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.URLRoot != "data" || cfg.Workers != 4 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ClusterDistance != 0.005 {
		t.Errorf("ClusterDistance = %v, want default", cfg.ClusterDistance)
	}
	if cfg.MaxFileSize() != 20*1024*1024 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize())
	}
	if cfg.Upload.TimeoutSeconds != 120 {
		t.Errorf("nested default lost: %+v", cfg.Upload)
	}
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{"), 0o644)
	if _, err := Read(path); err == nil {
		t.Error("Read should fail on invalid JSON")
	}
}
