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

// Config holds meterboard configuration, loaded from a TOML file with
// environment overrides for the store path and redis address.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Diagram DiagramConfig `toml:"diagram"`
	Redis   RedisConfig   `toml:"redis"`
	Neo4j   Neo4jConfig   `toml:"neo4j"`
	Canvas  CanvasConfig  `toml:"canvas"`
	Metrics MetricsConfig `toml:"metrics"`
}

type StoreConfig struct {
	DBPath string `toml:"db_path"`
}

type DiagramConfig struct {
	ProjectID string `toml:"project_id"`
	DiagramID string `toml:"diagram_id"`
}

// RedisConfig controls the shared edit lock. Disabled means single-user
// editing with no lock held.
type RedisConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	LockTTL string `toml:"lock_ttl"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// MetricsConfig exposes the prometheus collectors over HTTP for long-running
// commands. Empty addr leaves the listener off.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// CanvasConfig sets the reference viewport for non-interactive runs, where
// no terminal size is available.
type CanvasConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// LoadConfig reads the TOML file at path if it exists, fills defaults, and
// applies METERBOARD_DB_PATH, METERBOARD_REDIS_ADDR and
// METERBOARD_METRICS_ADDR overrides.
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
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = "neo4j://localhost:7687"
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = "neo4j"
	}
	if cfg.Canvas.Width <= 0 {
		cfg.Canvas.Width = 1400
	}
	if cfg.Canvas.Height <= 0 {
		cfg.Canvas.Height = 900
	}

	return cfg, nil
}

// LockDuration parses the configured lock TTL, falling back to the default.
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
