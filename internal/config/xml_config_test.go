package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ComponentVisualizer.config")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	// The default file is written next to the executable for air-gapped
	// installs.
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("default config not created: %v", err)
	}

	if cfg.Server.Port != 8001 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Catalog.MaxConcurrentResolves != 4 {
		t.Errorf("MaxConcurrentResolves = %d", cfg.Catalog.MaxConcurrentResolves)
	}
	if !cfg.Storage.EnablePersistence {
		t.Error("persistence should default on")
	}

	// Relative paths are anchored at the config directory.
	if !filepath.IsAbs(cfg.GetDataDir()) {
		t.Errorf("DataDirectory not resolved: %s", cfg.GetDataDir())
	}
	if !strings.HasPrefix(cfg.GetDataDir(), dir) {
		t.Errorf("DataDirectory = %s, want under %s", cfg.GetDataDir(), dir)
	}
}

func TestLoadConfigRoundtrip(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ComponentVisualizer.config")

	cfg := DefaultConfig()
	cfg.Server.Port = 9000
	cfg.Advanced.LogLevel = "debug"
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("Port = %d", loaded.Server.Port)
	}
	if loaded.Advanced.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", loaded.Advanced.LogLevel)
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ComponentVisualizer.config")
	if err := DefaultConfig().Save(configPath); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "7777")
	t.Setenv("DATA_DIR", "/srv/catalog")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("PORT override ignored: %d", cfg.Server.Port)
	}
	if cfg.GetDataDir() != "/srv/catalog" {
		t.Errorf("DATA_DIR override ignored: %s", cfg.GetDataDir())
	}
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "broken.config")
	if err := os.WriteFile(configPath, []byte("<ComponentVisualizer><Server>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("expected error for truncated config")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, sub := range []string{"data/parts", "data/svg", "data/uploads"} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Errorf("missing %s: %v", sub, err)
		}
	}
}

func TestGetServerAddr(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetServerAddr(); got != "0.0.0.0:8001" {
		t.Errorf("GetServerAddr = %q", got)
	}
}
