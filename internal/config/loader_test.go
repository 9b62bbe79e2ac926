package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults to load, got: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Review.AutoApproveThreshold != 8.0 {
		t.Fatalf("expected default auto-approve threshold 8.0, got %v", cfg.Review.AutoApproveThreshold)
	}
	if cfg.Review.WaitTimeout != 72*time.Hour {
		t.Fatalf("expected default wait timeout 72h, got %v", cfg.Review.WaitTimeout)
	}
}

func TestLoadFrom_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbforge.yaml")
	data := []byte("server:\n  port: \"9090\"\nreview:\n  auto_approve_threshold: 9.5\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090 from yaml, got %s", cfg.Server.Port)
	}
	if cfg.Review.AutoApproveThreshold != 9.5 {
		t.Fatalf("expected threshold 9.5 from yaml, got %v", cfg.Review.AutoApproveThreshold)
	}
	// Untouched values keep defaults.
	if cfg.Temporal.HostPort != "localhost:7233" {
		t.Fatalf("expected default temporal host, got %s", cfg.Temporal.HostPort)
	}
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbforge.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KBFORGE_PORT", "7777")
	t.Setenv("KBFORGE_REVIEW_WAIT_TIMEOUT", "24h")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7777" {
		t.Fatalf("expected env port 7777, got %s", cfg.Server.Port)
	}
	if cfg.Review.WaitTimeout != 24*time.Hour {
		t.Fatalf("expected env wait timeout 24h, got %v", cfg.Review.WaitTimeout)
	}
}

func TestLoadFrom_InvalidThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbforge.yaml")
	data := []byte("review:\n  auto_approve_threshold: 5.0\n  auto_reject_threshold: 7.0\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for inverted thresholds")
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbforge.yaml")
	if err := os.WriteFile(path, []byte(":\nnot yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadFrom_ZeroRoutingCeiling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbforge.yaml")
	data := []byte("routing:\n  heavy_compute:\n    max_concurrent_activities: 0\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for zero concurrency ceiling")
	}
}
