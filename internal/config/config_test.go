package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.AuthMode != "none" || cfg.Directory.Driver != "memory" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.RingTimeout != 30*time.Second || cfg.PingPeriod != 54*time.Second || cfg.SendBuffer != 32 {
		t.Fatalf("timing defaults = %+v", cfg)
	}
	if len(cfg.ICEServers) != 1 {
		t.Fatalf("ice servers = %v", cfg.ICEServers)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := `
port: 9090
auth_mode: token
ring_timeout: 5s
directory:
  driver: sqlite
  dsn: /tmp/x.db
users:
  - id: alice
    username: Alice
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOICE_PORT", "7070")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7070 {
		t.Fatalf("env override ignored: port %d", cfg.Port)
	}
	if cfg.AuthMode != "token" || cfg.RingTimeout != 5*time.Second || cfg.Directory.DSN != "/tmp/x.db" {
		t.Fatalf("file values = %+v", cfg)
	}
	if len(cfg.Users) != 1 || cfg.Users[0].Username != "Alice" {
		t.Fatalf("users = %+v", cfg.Users)
	}
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"auth mode": "auth_mode: magic\n",
		"driver":    "directory:\n  driver: postgres\n",
		"pong":      "ping_period: 60s\npong_wait: 30s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
