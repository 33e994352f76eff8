package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/edgemux/internal/mux"
	"github.com/danmuck/edgemux/internal/testutil/testlog"
)

func TestLoadAppConfigExample(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadAppConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ID != "muxctl.local" {
		t.Fatalf("unexpected id: %q", cfg.ID)
	}
	if cfg.AdminAddr != "127.0.0.1:7020" {
		t.Fatalf("unexpected admin addr: %q", cfg.AdminAddr)
	}
	if cfg.AdminToken != "change-me" {
		t.Fatalf("unexpected admin token: %q", cfg.AdminToken)
	}
	if cfg.Side != mux.SideClient {
		t.Fatalf("unexpected side: %v", cfg.Side)
	}
	if cfg.RemoteAddr != "127.0.0.1:7000" {
		t.Fatalf("unexpected remote addr: %q", cfg.RemoteAddr)
	}
	sc := cfg.Service.Session
	if sc.CommandCapacity != 16 {
		t.Fatalf("unexpected capacity: %d", sc.CommandCapacity)
	}
	if !sc.EnableKeepalive || sc.KeepaliveInterval != 15*time.Second {
		t.Fatalf("unexpected keepalive: enabled=%v interval=%v", sc.EnableKeepalive, sc.KeepaliveInterval)
	}
	if sc.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %v", sc.PingTimeout)
	}
	if sc.MaxPingFailures != 3 || sc.MaxStreams != 128 {
		t.Fatalf("unexpected limits: failures=%d streams=%d", sc.MaxPingFailures, sc.MaxStreams)
	}
	if sc.Backoff.InitialDelay != 500*time.Millisecond || sc.Backoff.MaxDelay != 10*time.Second {
		t.Fatalf("unexpected backoff: %+v", sc.Backoff)
	}
	if sc.Backoff.Multiplier != 2.0 {
		t.Fatalf("backoff multiplier should keep default, got %v", sc.Backoff.Multiplier)
	}
}

func TestLoadAppConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `side = "server"`+"\n")
	cfg, err := loadAppConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := defaultAppConfig()
	if cfg.Side != mux.SideServer {
		t.Fatalf("unexpected side: %v", cfg.Side)
	}
	if cfg.ID != def.ID || cfg.AdminAddr != def.AdminAddr {
		t.Fatalf("expected defaults, got id=%q admin=%q", cfg.ID, cfg.AdminAddr)
	}
	if cfg.Service.Session != def.Service.Session {
		t.Fatalf("expected default session config, got %+v", cfg.Service.Session)
	}
}

func TestLoadAppConfigRejectsInvalidValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"side":     `side = "sideways"`,
		"capacity": `command_capacity = 0`,
		"duration": `keepalive_interval = "soon"`,
	}
	for name, body := range cases {
		path := writeConfig(t, body+"\n")
		if _, err := loadAppConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
