package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Projects  ProjectsConfig  `yaml:"projects"`
	Board     BoardConfig     `yaml:"board"`
	Sync      SyncConfig      `yaml:"sync"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type AuthConfig struct {
	Token string `yaml:"token"`
}

type DBConfig struct {
	// RecordsPath is the shared record store database, the sync target
	// every device converges on.
	RecordsPath string `yaml:"records_path"`
	// SnapshotPath is this device's local last-known-good state.
	SnapshotPath string `yaml:"snapshot_path"`
}

type ProjectsConfig struct {
	// Root is the folder whose subdirectories are projects. Empty
	// disables scanning (snapshot-only device).
	Root string `yaml:"root"`
	// Watch enables filesystem watching for overview edits.
	Watch bool `yaml:"watch"`
}

type BoardConfig struct {
	MaxActive int `yaml:"max_active"`
	MinActive int `yaml:"min_active"`
	// SlotTags reserves board slots for tagged projects, one entry per
	// slot in order.
	SlotTags [][]string `yaml:"slot_tags"`
}

type SyncConfig struct {
	// Interval between periodic background passes. Zero disables the timer.
	Interval time.Duration `yaml:"interval"`
	// PropagationDelay is the wait between deleting and recreating
	// records during a forced update.
	PropagationDelay time.Duration `yaml:"propagation_delay"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			RecordsPath:  "focusboard-records.db",
			SnapshotPath: "focusboard-snapshot.db",
		},
		Projects: ProjectsConfig{
			Watch: true,
		},
		Board: BoardConfig{
			MaxActive: 5,
			MinActive: 3,
		},
		Sync: SyncConfig{
			Interval:         5 * time.Minute,
			PropagationDelay: 2 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("FOCUSBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("FOCUSBOARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("FOCUSBOARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FOCUSBOARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("FOCUSBOARD_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if token := os.Getenv("FOCUSBOARD_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if path := os.Getenv("FOCUSBOARD_RECORDS_DB"); path != "" {
		cfg.DB.RecordsPath = path
	}
	if path := os.Getenv("FOCUSBOARD_SNAPSHOT_DB"); path != "" {
		cfg.DB.SnapshotPath = path
	}
	if root := os.Getenv("FOCUSBOARD_PROJECTS_ROOT"); root != "" {
		cfg.Projects.Root = root
	}
	if maxStr := os.Getenv("FOCUSBOARD_MAX_ACTIVE"); maxStr != "" {
		max, err := strconv.Atoi(maxStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FOCUSBOARD_MAX_ACTIVE: %w", err)
		}
		cfg.Board.MaxActive = max
	}
	if minStr := os.Getenv("FOCUSBOARD_MIN_ACTIVE"); minStr != "" {
		min, err := strconv.Atoi(minStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FOCUSBOARD_MIN_ACTIVE: %w", err)
		}
		cfg.Board.MinActive = min
	}
	if level := os.Getenv("FOCUSBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("FOCUSBOARD_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q (want stdio or http)", c.Transport.Mode)
	}
	if c.Board.MaxActive <= 0 {
		return fmt.Errorf("board max_active must be positive")
	}
	if c.Board.MinActive < 0 || c.Board.MinActive > c.Board.MaxActive {
		return fmt.Errorf("board min_active must be between 0 and max_active")
	}
	if len(c.Board.SlotTags) > c.Board.MaxActive {
		return fmt.Errorf("board slot_tags has %d entries for %d slots", len(c.Board.SlotTags), c.Board.MaxActive)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
