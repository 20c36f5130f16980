package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/snipper/pkg/imageio"
	"github.com/menta2k/snipper/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.JSONDir != "json" || cfg.ImagesDir != "reference_images" {
		t.Errorf("Unexpected default dirs: %s, %s", cfg.JSONDir, cfg.ImagesDir)
	}
	if cfg.ThumbnailSizes()[types.Paleography] != (types.Size{Width: 200, Height: 200}) {
		t.Errorf("Unexpected paleography size %v", cfg.ThumbnailSizes()[types.Paleography])
	}
	if cfg.Format() != imageio.PNG {
		t.Errorf("Expected png, got %s", cfg.Format())
	}
	if !cfg.QKopf {
		t.Error("Expected q_kopf on by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snipper.yaml")
	content := `
json_dir: pending
thumbnail_format: webp
auto_orient: true
q_kopf: false
thumbnails:
  iconography:
    width: 128
    height: 96
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JSONDir != "pending" {
		t.Errorf("Expected json_dir pending, got %s", cfg.JSONDir)
	}
	if cfg.Format() != imageio.WebP {
		t.Errorf("Expected webp, got %s", cfg.Format())
	}
	if !cfg.AutoOrient {
		t.Error("Expected auto_orient true")
	}
	if cfg.QKopf {
		t.Error("Expected q_kopf false from file")
	}
	sizes := cfg.ThumbnailSizes()
	if sizes[types.Iconography] != (types.Size{Width: 128, Height: 96}) {
		t.Errorf("Expected 128x96, got %v", sizes[types.Iconography])
	}
	// untouched types keep their defaults
	if sizes[types.Orthography] != (types.Size{Width: 400, Height: 200}) {
		t.Errorf("Expected default orthography size, got %v", sizes[types.Orthography])
	}
	if cfg.UsedDir != "used_json" {
		t.Errorf("Expected default used_dir, got %s", cfg.UsedDir)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SNIPPER_THUMBNAILS_DIR", "/tmp/thumbs")
	t.Setenv("SNIPPER_THUMBNAILS_PALEOGRAPHY_WIDTH", "64")

	cfg, err := Load(writeEmptyConfig(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ThumbnailsDir != "/tmp/thumbs" {
		t.Errorf("Expected env override, got %s", cfg.ThumbnailsDir)
	}
	if cfg.ThumbnailSizes()[types.Paleography].Width != 64 {
		t.Errorf("Expected width 64, got %d", cfg.ThumbnailSizes()[types.Paleography].Width)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"empty json dir":   func(c *Config) { c.JSONDir = "" },
		"bad format":       func(c *Config) { c.ThumbnailFormat = "bmp" },
		"zero size":        func(c *Config) { c.Thumbnails["iconography"] = types.Size{Width: 0, Height: 10} },
		"unknown type":     func(c *Config) { c.Thumbnails["numismatics"] = types.Size{Width: 10, Height: 10} },
		"missing type":     func(c *Config) { delete(c.Thumbnails, "orthography") },
		"blank output dir": func(c *Config) { c.OutputDir = "  " },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snipper.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
