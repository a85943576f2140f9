package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.ModelBackend != "debug" {
		t.Errorf("expected debug backend, got %s", cfg.ModelBackend)
	}
	if cfg.CalibrationPath != "config/calibration.yaml" {
		t.Errorf("unexpected calibration path: %s", cfg.CalibrationPath)
	}
	if cfg.MinImageWidth != 64 || cfg.MinImageHeight != 64 {
		t.Errorf("unexpected minimum dimensions: %dx%d", cfg.MinImageWidth, cfg.MinImageHeight)
	}
	if cfg.MaxPerGroup != 30 {
		t.Errorf("unexpected group cap: %d", cfg.MaxPerGroup)
	}
	if cfg.ReferenceStore != "local" {
		t.Errorf("unexpected reference store: %s", cfg.ReferenceStore)
	}
	if cfg.ScanLogPath != "" {
		t.Errorf("scan logging should be disabled by default, got %q", cfg.ScanLogPath)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_BACKEND", "onnx")
	t.Setenv("MAX_PER_GROUP", "5")
	t.Setenv("SCAN_LOG_PATH", "data/scans.db")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.ModelBackend != "onnx" {
		t.Errorf("expected onnx backend, got %s", cfg.ModelBackend)
	}
	if cfg.MaxPerGroup != 5 {
		t.Errorf("expected group cap 5, got %d", cfg.MaxPerGroup)
	}
	if cfg.ScanLogPath != "data/scans.db" {
		t.Errorf("expected scan log path, got %q", cfg.ScanLogPath)
	}
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{"non numeric", "http"},
		{"zero", "0"},
		{"out of range", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("expected error for PORT=%q", tt.port)
			}
		})
	}
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: " 127.0.0.1 ", Port: " 8080 "}
	if got := cfg.ServerAddress(); got != "127.0.0.1:8080" {
		t.Errorf("expected 127.0.0.1:8080, got %s", got)
	}
}
