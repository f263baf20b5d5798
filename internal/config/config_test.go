package config

import (
	"os"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	// 先用 t.Setenv 登记还原，再删除变量，确保走 envDefault
	for _, key := range []string{"APP_PORT", "SESSION_TTL", "PROBE_STRICT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.AppPort != "9000" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "9000")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
	if cfg.ProbeStrict {
		t.Fatalf("ProbeStrict should default to false")
	}
}

func TestLoadReadsAuthAndPorts(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("PROBE_STRICT", "true")
	t.Setenv("SESSION_TTL", "5m")

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.BasicAuthUser != "user" || cfg.BasicAuthPass != "pass" {
		t.Fatalf("BasicAuthUser/Pass not loaded correctly: %+v", cfg)
	}
	if !cfg.ProbeStrict || cfg.SessionTTL != 5*time.Minute {
		t.Fatalf("ProbeStrict/SessionTTL not loaded: %+v", cfg)
	}
}
