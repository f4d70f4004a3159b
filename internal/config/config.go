// Package config resolves runtime settings from three layers: built-in
// defaults, an optional YAML file, then PACKRAT_* environment variables.
// Later layers win.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PACKRAT"

// Config holds everything the application needs to find its files.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" envconfig:"DB_PATH"`

	// BackupDir holds timestamped database copies.
	BackupDir string `yaml:"backup_dir" envconfig:"BACKUP_DIR"`

	// LogDir holds the daily application logs.
	LogDir string `yaml:"log_dir" envconfig:"LOG_DIR"`

	// BackupMaxAgeDays is how many days the newest backup may be old
	// before the CLI warns about it.
	BackupMaxAgeDays int `yaml:"backup_max_age_days" envconfig:"BACKUP_MAX_AGE_DAYS"`
}

// Default returns the built-in configuration, everything relative to the
// working directory.
func Default() Config {
	return Config{
		DBPath:           "inventory.db",
		BackupDir:        "backups",
		LogDir:           "logs",
		BackupMaxAgeDays: 7,
	}
}

// Load resolves the configuration. Path may be empty, in which case only
// defaults and environment apply; a non-empty path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.BackupMaxAgeDays < 1 {
		return fmt.Errorf("backup_max_age_days must be at least 1, got %d", c.BackupMaxAgeDays)
	}
	return nil
}
