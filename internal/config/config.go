// Package config loads server configuration from an optional TOML file,
// a .env file, and environment variables, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all server settings.
type Config struct {
	Addr     string        `toml:"addr"`
	DBPath   string        `toml:"db_path"`
	Log      LogConfig     `toml:"log"`
	Geocode  GeocodeConfig `toml:"geocode"`

	// JWTSecret overrides the database-persisted secret when set.
	// Environment only, never stored in the config file.
	JWTSecret string `toml:"-"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	AddSource bool       `toml:"add_source"`
}

type GeocodeConfig struct {
	BaseURL         string `toml:"base_url"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// CacheTTL returns the geocode cache TTL as a duration.
func (g GeocodeConfig) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLMinutes) * time.Minute
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:   ":8080",
		DBPath: "podari.sqlite3",
		Geocode: GeocodeConfig{
			BaseURL:         "https://nominatim.openstreetmap.org",
			CacheTTLMinutes: 15,
		},
	}
}

// Load reads the config file at path (missing file is fine), then applies
// .env and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err == nil {
			defer file.Close()
			if err := toml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("opening config %s: %w", path, err)
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if v := os.Getenv("PODARI_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PODARI_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PODARI_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("PODARI_GEOCODE_URL"); v != "" {
		cfg.Geocode.BaseURL = v
	}
	if v := os.Getenv("PODARI_GEOCODE_TTL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing PODARI_GEOCODE_TTL_MINUTES: %w", err)
		}
		cfg.Geocode.CacheTTLMinutes = n
	}

	return cfg, nil
}
