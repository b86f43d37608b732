package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Grounder.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want NumCPU", cfg.Grounder.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "grounder:\n  workers: 3\n  fact_limit: 100\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grounder.Workers != 3 || cfg.Grounder.FactLimit != 100 || cfg.Logging.Level != "debug" {
		t.Errorf("loaded config = %+v", cfg)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GROUNDLOG_WORKERS", "7")
	t.Setenv("GROUNDLOG_LOG_LEVEL", "warn")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grounder.Workers != 7 {
		t.Errorf("Workers = %d, want 7", cfg.Grounder.Workers)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestNonPositiveWorkersFallBack(t *testing.T) {
	t.Setenv("GROUNDLOG_WORKERS", "-2")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grounder.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want NumCPU fallback", cfg.Grounder.Workers)
	}
}
