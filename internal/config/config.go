package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. GEARCFG_PORT.
const EnvPrefix = "GEARCFG_"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// EquipServer holds all configuration for the equipment server.
type EquipServer struct {
	// Network
	BindAddress string `yaml:"bind_address" env:"BIND_ADDRESS"`
	Port        int    `yaml:"port" env:"PORT"`

	// debug | info | warn | error
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Catalog  CatalogConfig  `yaml:"catalog" envPrefix:"CATALOG_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
}

// CatalogConfig describes where the master catalog comes from.
// URL wins over Path when both are set.
type CatalogConfig struct {
	Path         string        `yaml:"path" env:"PATH"`
	URL          string        `yaml:"url" env:"URL"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"FETCH_TIMEOUT"`
}

// StorageConfig selects the durable medium for equipped records.
type StorageConfig struct {
	Driver     string `yaml:"driver" env:"DRIVER"`
	Dir        string `yaml:"dir" env:"DIR"`                 // file driver
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"` // sqlite driver
	Key        string `yaml:"key" env:"KEY"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultEquipServer returns EquipServer config with sensible defaults.
func DefaultEquipServer() EquipServer {
	return EquipServer{
		BindAddress: "0.0.0.0",
		Port:        8080,
		LogLevel:    "info",
		Catalog: CatalogConfig{
			Path:         "public/master-config.json",
			FetchTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			Dir:        "data/records",
			SQLitePath: "data/gearcfg.db",
			Key:        "racing-equipment-config-v1",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "gearcfg",
			Password: "gearcfg",
			DBName:   "gearcfg",
			SSLMode:  "disable",
		},
	}
}

// LoadEquipServer loads config from a YAML file and applies GEARCFG_*
// environment overrides on top. If the file doesn't exist, defaults are used.
func LoadEquipServer(path string) (EquipServer, error) {
	cfg := DefaultEquipServer()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c EquipServer) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Catalog.Path == "" && c.Catalog.URL == "" {
		return fmt.Errorf("catalog path or url is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c EquipServer) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Addr returns host:port for the HTTP listener.
func (c EquipServer) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}
