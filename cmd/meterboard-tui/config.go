package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultDBFile    = "meterboard.db"
	defaultProjectID = "default"
	defaultDiagramID = "main"
	defaultLockTTL   = 30 * time.Second
)

// Config is the slice of meterboard.toml the TUI needs: where the store
// lives, which diagram to open, the shared edit lock, and the optional
// metrics listener.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Diagram DiagramConfig `toml:"diagram"`
	Redis   RedisConfig   `toml:"redis"`
	Metrics MetricsConfig `toml:"metrics"`
}

type StoreConfig struct {
	DBPath string `toml:"db_path"`
}

type DiagramConfig struct {
	ProjectID string `toml:"project_id"`
	DiagramID string `toml:"diagram_id"`
}

type RedisConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	LockTTL string `toml:"lock_ttl"`
}

// MetricsConfig exposes the prometheus collectors over HTTP while the editor
// runs. Empty addr leaves the listener off.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

func LoadConfig(path string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("METERBOARD_DB_PATH"); v != "" {
		cfg.Store.DBPath = v
	}
	if v := os.Getenv("METERBOARD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("METERBOARD_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = filepath.Join(cwd, defaultDBFile)
	} else if !filepath.IsAbs(cfg.Store.DBPath) {
		cfg.Store.DBPath = filepath.Join(cwd, cfg.Store.DBPath)
	}
	if cfg.Diagram.ProjectID == "" {
		cfg.Diagram.ProjectID = defaultProjectID
	}
	if cfg.Diagram.DiagramID == "" {
		cfg.Diagram.DiagramID = defaultDiagramID
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}

	return cfg, nil
}

func (c RedisConfig) LockDuration() (time.Duration, error) {
	if strings.TrimSpace(c.LockTTL) == "" {
		return defaultLockTTL, nil
	}
	d, err := time.ParseDuration(c.LockTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid lock_ttl: %w", err)
	}
	return d, nil
}
