package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name    string `envconfig:"APP_NAME" default:"Mochi"`
		Port    int    `envconfig:"PORT" default:"8080"`
		DataDir string `envconfig:"DATA_DIR" default:"data"`
	}

	DB struct {
		File      string `envconfig:"DB_FILE" default:"mochi.db"`
		StateFile string `envconfig:"STATE_FILE" default:"state.json"`
		BackupDir string `envconfig:"BACKUP_DIR" default:"backups"`
	}

	Log struct {
		Level      string `envconfig:"LOG_LEVEL" default:"info"`
		Format     string `envconfig:"LOG_FORMAT" default:"text"`
		File       string `envconfig:"LOG_FILE"`
		MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
		MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
		MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"28"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}
}

// DBPath is the database file. Relative names live under the data directory.
func (c *Config) DBPath() string { return c.inDataDir(c.DB.File) }

func (c *Config) StatePath() string { return c.inDataDir(c.DB.StateFile) }

func (c *Config) BackupPath() string { return c.inDataDir(c.DB.BackupDir) }

func (c *Config) inDataDir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.App.DataDir, name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
