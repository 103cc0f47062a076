package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", settings.Timeout)
	}
	if settings.ReadRetries != 2 {
		t.Errorf("retries = %d", settings.ReadRetries)
	}
	if settings.LogLevel != "info" {
		t.Errorf("log level = %q", settings.LogLevel)
	}
	if settings.StorePath == "" || settings.StoreLockPath == "" {
		t.Error("store paths must have defaults")
	}
}

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	cfg := "base_url: https://file.example\nretries: 1\nlog_level: warn\n"
	if err := os.WriteFile(configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SUPERTX_BASE_URL", "https://env.example")
	t.Setenv("SUPERTX_RETRIES", "4")

	flags := GlobalFlags{ConfigPath: configPath, Retries: 9}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.BaseURL != "https://env.example" {
		t.Errorf("base url = %q, env must override file", settings.BaseURL)
	}
	if settings.ReadRetries != 9 {
		t.Errorf("retries = %d, flags must override env", settings.ReadRetries)
	}
	if settings.LogLevel != "warn" {
		t.Errorf("log level = %q, file must override defaults", settings.LogLevel)
	}
}

func TestLoadFlagTimeout(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	settings, err := Load(GlobalFlags{Timeout: "90s", Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Timeout != 90*time.Second {
		t.Errorf("timeout = %v", settings.Timeout)
	}

	if _, err := Load(GlobalFlags{Timeout: "soon", Retries: -1}); err == nil {
		t.Fatal("expected error for a malformed --timeout")
	}
}

func TestLoadAPIKeyEnvIndirection(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("api_key_env: MY_MEE_KEY\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MY_MEE_KEY", "k-123")

	settings, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.APIKey != "k-123" {
		t.Errorf("api key = %q, want the indirected env value", settings.APIKey)
	}
}
