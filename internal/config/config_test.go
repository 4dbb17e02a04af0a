package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Server.RequestTimeoutSec != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg.Server)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"server":{"port":"9090","request_timeout_sec":30},"quandl":{"base_url":"http://localhost:1234"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.RequestTimeoutSec != 30 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if got := cfg.BaseURLs()["quandl"]; got != "http://localhost:1234" {
		t.Fatalf("unexpected quandl base url: %q", got)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "server:\n  port: \"7070\"\nalpha_vantage:\n  base_url: http://localhost:9999\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("unexpected port: %q", cfg.Server.Port)
	}
	if got := cfg.BaseURLs()["alpha_vantage"]; got != "http://localhost:9999" {
		t.Fatalf("unexpected base url: %q", got)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.RequestTimeoutSec != 10 {
		t.Fatalf("unexpected timeout: %d", cfg.Server.RequestTimeoutSec)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "6060")
	t.Setenv("REQUEST_TIMEOUT_SEC", "25")
	t.Setenv("IEX_CLOUD_BASE_URL", "http://localhost:8888")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "6060" || cfg.Server.RequestTimeoutSec != 25 {
		t.Fatalf("env overrides not applied: %+v", cfg.Server)
	}
	if got := cfg.BaseURLs()["iex_cloud"]; got != "http://localhost:8888" {
		t.Fatalf("unexpected base url: %q", got)
	}
}

func TestLoad_BadTimeoutEnvIgnored(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SEC", "soon")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.RequestTimeoutSec != 10 {
		t.Fatalf("non-numeric timeout should keep the default, got %d", cfg.Server.RequestTimeoutSec)
	}

	t.Setenv("REQUEST_TIMEOUT_SEC", "-3")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.RequestTimeoutSec != 10 {
		t.Fatalf("non-positive timeout should keep the default, got %d", cfg.Server.RequestTimeoutSec)
	}
}

func TestBaseURLs_SkipsEmpty(t *testing.T) {
	urls := Default().BaseURLs()
	if len(urls) != 0 {
		t.Fatalf("expected no overrides by default, got %v", urls)
	}
}
