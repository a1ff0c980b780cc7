package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Addr != ":5000" || cfg.OutboundQueue != 64 || cfg.WriteTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"addr: \":6000\"",
		"max_channels: 10",
		"write_timeout: 750ms",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PDXIRC_MAX_CHANNELS", "3")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":6000" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.MaxChannels != 3 {
		t.Fatalf("env must override file, max_channels = %d", cfg.MaxChannels)
	}
	if cfg.WriteTimeout != 750*time.Millisecond {
		t.Fatalf("write_timeout = %v", cfg.WriteTimeout)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := Load(nil, path); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read config error, got %v", err)
	}
}

func TestUpdateFromAndValidate(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000", MaxMembers: 4})

	if cfg.Addr != ":7000" || cfg.MaxMembers != 4 || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected merge: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.OutboundQueue = 0
	cfg.MaxChannels = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "outbound_queue") || !strings.Contains(err.Error(), "max_channels") {
		t.Fatalf("expected validation errors, got %v", err)
	}
}
