// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Addr        string        `yaml:"addr" env:"NOTES_ADDR"`
	DataFile    string        `yaml:"data_file" env:"NOTES_FILE"`
	Backend     string        `yaml:"backend" env:"NOTES_BACKEND"`
	DatabaseURL string        `yaml:"database_url" env:"NOTES_DATABASE_URL"`
	LockTimeout time.Duration `yaml:"lock_timeout" env:"NOTES_LOCK_TIMEOUT"`

	Log    LogConfig    `yaml:"log" envPrefix:"NOTES_LOG_"`
	Backup BackupConfig `yaml:"backup" envPrefix:"NOTES_BACKUP_"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// BackupConfig enables periodic snapshots when Schedule is set. Snapshots
// go to S3 when S3.Bucket is set, to Dir otherwise.
type BackupConfig struct {
	Schedule string   `yaml:"schedule" env:"SCHEDULE"`
	Dir      string   `yaml:"dir" env:"DIR"`
	S3       S3Config `yaml:"s3" envPrefix:"S3_"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
	Region    string `yaml:"region" env:"REGION"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
}

func Default() Config {
	return Config{
		Addr:     ":8080",
		DataFile: "./data/notes.json",
		Backend:  BackendFile,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Backup: BackupConfig{
			Dir: "./data/backups",
			S3:  S3Config{UseSSL: true},
		},
	}
}

// Load builds the configuration from the defaults, the YAML file at path
// (skipped when empty), a .env file in the working directory if present,
// and the process environment, each overriding the one before.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			return errors.New("data_file is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must not be negative, got %s", c.LockTimeout)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Backup.Schedule != "" && c.Backup.S3.Bucket == "" && c.Backup.Dir == "" {
		return errors.New("backup needs either dir or s3.bucket")
	}
	return nil
}
