package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notesd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Zero(t, cfg.LockTimeout)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
data_file: /var/lib/notes/notes.json
lock_timeout: 250ms
log:
  level: debug
  format: console
backup:
  schedule: "@hourly"
  s3:
    endpoint: s3.example.com
    bucket: notes-backups
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/var/lib/notes/notes.json", cfg.DataFile)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "@hourly", cfg.Backup.Schedule)
	assert.Equal(t, "notes-backups", cfg.Backup.S3.Bucket)
	assert.True(t, cfg.Backup.S3.UseSSL)
	assert.Equal(t, "./data/backups", cfg.Backup.Dir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "addr: \":9000\"\nlog:\n  level: debug\n")
	t.Setenv("NOTES_ADDR", ":7000")
	t.Setenv("NOTES_LOCK_TIMEOUT", "2s")
	t.Setenv("NOTES_LOG_FORMAT", "console")
	t.Setenv("NOTES_BACKUP_S3_USE_SSL", "false")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Backup.S3.UseSSL)
}

func TestLoad_DotEnvBetweenFileAndEnv(t *testing.T) {
	path := writeConfig(t, "addr: \":9000\"\ndata_file: /srv/notes.json\nlog:\n  level: debug\n")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("NOTES_ADDR=:6000\nNOTES_LOG_LEVEL=warn\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv writes into the process environment; restore it afterwards
	t.Setenv("NOTES_ADDR", "")
	require.NoError(t, os.Unsetenv("NOTES_ADDR"))
	t.Setenv("NOTES_LOG_LEVEL", "error")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Addr)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/srv/notes.json", cfg.DataFile)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "addr: [unterminated"))

	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default ok", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, `unknown backend "redis"`},
		{"postgres without url", func(c *Config) { c.Backend = BackendPostgres }, "database_url is required"},
		{"postgres with url", func(c *Config) {
			c.Backend = BackendPostgres
			c.DatabaseURL = "postgres://localhost/notes"
		}, ""},
		{"file without path", func(c *Config) { c.DataFile = "" }, "data_file is required"},
		{"negative timeout", func(c *Config) { c.LockTimeout = -time.Second }, "must not be negative"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, `unknown log format "xml"`},
		{"backup without target", func(c *Config) {
			c.Backup.Schedule = "@daily"
			c.Backup.Dir = ""
		}, "backup needs either dir or s3.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
