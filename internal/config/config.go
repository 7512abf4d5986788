package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"grindvault/internal/database"
	"grindvault/internal/github"
)

// envToken overrides the yaml github token so credentials can stay out of
// the config file.
const envToken = "GRINDVAULT_GITHUB_TOKEN"

// Config is the application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Database database.Config `yaml:"database"`
	GitHub   github.Config   `yaml:"github"`
	Backup   BackupConfig    `yaml:"backup"`
	API      APIConfig       `yaml:"api"`
}

// BackupConfig controls the snapshot backup cycle.
type BackupConfig struct {
	Enabled  bool            `yaml:"enabled"`
	MaxFiles int             `yaml:"max_files"`
	Schedule []ScheduleEntry `yaml:"schedule"`
}

// ScheduleEntry is one fixed time of day at which a backup cycle fires.
type ScheduleEntry struct {
	Time   string `yaml:"time"` // "HH:MM", local time
	Reason string `yaml:"reason"`
}

// APIConfig controls the ops HTTP surface.
type APIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Database: database.Config{
			DSN: "grindvault.db",
		},
		GitHub: github.Config{
			Branch:  "main",
			Timeout: 15 * time.Second,
		},
		Backup: BackupConfig{
			Enabled:  true,
			MaxFiles: 5,
			Schedule: []ScheduleEntry{
				{Time: "10:00", Reason: "SCHEDULED_NIGHTLY"},
				{Time: "13:00", Reason: "SCHEDULED_DAILY"},
			},
		},
		API: APIConfig{
			Enabled:    true,
			ListenAddr: ":8080",
		},
	}
}

// Load reads the yaml configuration file over the defaults and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if token := os.Getenv(envToken); token != "" {
		cfg.GitHub.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.Backup.MaxFiles < 1 {
		return fmt.Errorf("backup max_files must be at least 1, got %d", c.Backup.MaxFiles)
	}

	for _, entry := range c.Backup.Schedule {
		if _, err := time.Parse("15:04", entry.Time); err != nil {
			return fmt.Errorf("invalid schedule time %q: %w", entry.Time, err)
		}
		if entry.Reason == "" {
			return fmt.Errorf("schedule entry %q has no reason tag", entry.Time)
		}
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn must not be empty")
	}

	return nil
}
