package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if filepath.Base(cfg.Store.DBPath) != defaultDBFile {
		t.Errorf("db path = %s", cfg.Store.DBPath)
	}
	if cfg.Diagram.ProjectID != defaultProjectID || cfg.Diagram.DiagramID != defaultDiagramID {
		t.Errorf("diagram defaults wrong: %+v", cfg.Diagram)
	}
	if cfg.Canvas.Width != 1400 || cfg.Canvas.Height != 900 {
		t.Errorf("canvas defaults wrong: %+v", cfg.Canvas)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "meterboard-config-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "meterboard.toml")
	body := `
[store]
db_path = "/data/solar.db"

[diagram]
project_id = "acme"
diagram_id = "roof-1"

[redis]
enabled = true
addr = "redis:6379"
lock_ttl = "45s"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Store.DBPath != "/data/solar.db" {
		t.Errorf("db path = %s", cfg.Store.DBPath)
	}
	if cfg.Diagram.ProjectID != "acme" || cfg.Diagram.DiagramID != "roof-1" {
		t.Errorf("diagram config wrong: %+v", cfg.Diagram)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis config wrong: %+v", cfg.Redis)
	}
	ttl, err := cfg.Redis.LockDuration()
	if err != nil {
		t.Fatalf("LockDuration failed: %v", err)
	}
	if ttl != 45*time.Second {
		t.Errorf("lock ttl = %v, want 45s", ttl)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(os.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Diagram.ProjectID != defaultProjectID {
		t.Errorf("expected defaults, got %+v", cfg.Diagram)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("METERBOARD_DB_PATH", "/tmp/override.db")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Store.DBPath != "/tmp/override.db" {
		t.Errorf("db path = %s, want override", cfg.Store.DBPath)
	}
}

func TestLockDurationDefaultAndInvalid(t *testing.T) {
	ttl, err := RedisConfig{}.LockDuration()
	if err != nil {
		t.Fatalf("LockDuration failed: %v", err)
	}
	if ttl != defaultLockTTL {
		t.Errorf("default ttl = %v", ttl)
	}

	if _, err := (RedisConfig{LockTTL: "soon"}).LockDuration(); err == nil {
		t.Error("expected error for bad duration")
	}
}
