package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaults(t *testing.T) {
	var c ServerConfig
	c.SetDefaults()
	if c.Port != 8080 || c.LogLevel != "info" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.MetricsAddr != ":8080" {
		t.Fatalf("metrics addr should follow port, got %s", c.MetricsAddr)
	}
	if c.DataDir == "" || c.ConfigFile == "" {
		t.Fatalf("expected data dir and config file defaults, got %+v", c)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("METRICS_PORT", "9100")
	t.Setenv("API_KEY", "k")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	var c ServerConfig
	c.SetDefaults()
	c.ApplyEnv()
	if c.Port != 9999 || c.MetricsAddr != ":9100" || c.APIKey != "k" {
		t.Fatalf("env not applied: %+v", c)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins not split: %v", c.AllowedOrigins)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := "port: 7070\nlog_level: debug\nallowed_origins:\n  - https://ui.example\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var c ServerConfig
	c.SetDefaults()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 7070 || c.LogLevel != "debug" || len(c.AllowedOrigins) != 1 {
		t.Fatalf("file not applied: %+v", c)
	}
}
