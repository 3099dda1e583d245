package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "shifts.db", cfg.DBPath)
	assert.Equal(t, 18, cfg.RetentionMonths)
	assert.Equal(t, 24*time.Hour, cfg.PurgeInterval)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.Origins())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: 9000\nRETENTION_MONTHS: 12\nENV: production\n"), 0o600))

	// GIVEN: the environment overrides the file
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 12, cfg.RetentionMonths)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{Port: 8080, DBPath: "x.db", RetentionMonths: 18, PurgeInterval: time.Hour, LoginRatePerMin: 5}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"db", func(c *Config) { c.DBPath = "" }},
		{"retention", func(c *Config) { c.RetentionMonths = 0 }},
		{"interval", func(c *Config) { c.PurgeInterval = time.Second }},
		{"rate", func(c *Config) { c.LoginRatePerMin = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
