package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/hypernest/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultPartSpacing = 4.0
	cfg.DefaultStrategy = model.StrategyBalanced
	cfg.ExportFormats = []string{"dxf"}
	cfg.RecentProjects = []string{"/tmp/a.hnest", "/tmp/b.hnest"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultPartSpacing != 4.0 {
		t.Errorf("expected DefaultPartSpacing=4.0, got %f", loaded.DefaultPartSpacing)
	}
	if loaded.DefaultStrategy != model.StrategyBalanced {
		t.Errorf("expected balanced strategy, got %s", loaded.DefaultStrategy)
	}
	if len(loaded.ExportFormats) != 1 || loaded.ExportFormats[0] != "dxf" {
		t.Errorf("expected export formats [dxf], got %v", loaded.ExportFormats)
	}
	if len(loaded.RecentProjects) != 2 {
		t.Errorf("expected 2 recent projects, got %d", len(loaded.RecentProjects))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	defaults := model.DefaultAppConfig()
	if cfg.DefaultPopulation != defaults.DefaultPopulation {
		t.Errorf("expected default population %d, got %d", defaults.DefaultPopulation, cfg.DefaultPopulation)
	}
	if cfg.RecentProjects == nil {
		t.Error("expected non-nil RecentProjects")
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"default_generations": 7}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.DefaultGenerations != 7 {
		t.Errorf("expected DefaultGenerations=7, got %d", cfg.DefaultGenerations)
	}
	if cfg.DefaultPopulation != model.DefaultSettings().PopulationSize {
		t.Errorf("expected default population, got %d", cfg.DefaultPopulation)
	}
	if len(cfg.ExportFormats) == 0 {
		t.Error("expected default export formats")
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if filepath.Base(path) != "config.json" {
		t.Errorf("expected config.json, got %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != ".hypernest" {
		t.Errorf("expected .hypernest directory, got %s", filepath.Dir(path))
	}
}
