package config

import (
	"path/filepath"
	"testing"

	"github.com/penwyp/gitsage/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Commit.OnlyStagedChanges)
	assert.Equal(t, "english", cfg.Commit.CommitLanguage)
	assert.Equal(t, "conventional", cfg.Commit.CommitFormat)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 100000, cfg.Analysis.MaxDiffLength)
	assert.False(t, cfg.Analysis.ExpandDeletedFiles)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "defaults", modify: func(*Config) {}, valid: true},
		{name: "japanese emoji", modify: func(c *Config) { c.Commit.CommitLanguage = "japanese"; c.Commit.CommitFormat = "emoji" }, valid: true},
		{name: "unknown language", modify: func(c *Config) { c.Commit.CommitLanguage = "french" }},
		{name: "unknown format", modify: func(c *Config) { c.Commit.CommitFormat = "gitflow" }},
		{name: "zero workers", modify: func(c *Config) { c.Analysis.Workers = 0 }},
		{name: "too many workers", modify: func(c *Config) { c.Analysis.Workers = MaxWorkers + 1 }},
		{name: "negative diff length", modify: func(c *Config) { c.Analysis.MaxDiffLength = -1 }},
		{name: "unlimited diff length", modify: func(c *Config) { c.Analysis.MaxDiffLength = 0 }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Equal(t, errors.ErrTypeConfig, errors.GetType(err))
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Run("XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		path, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/tmp/xdg", "gitsage", "config.yaml"), path)
	})

	t.Run("home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		path, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "gitsage", "config.yaml"), path)
	})
}
