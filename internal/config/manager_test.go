package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/penwyp/gitsage/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigManager(t *testing.T) {
	_, err := NewConfigManager("")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeConfig, errors.GetType(err))

	m, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestConfigManager_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m, err := NewConfigManager(path)
	require.NoError(t, err)

	cfg := Default()
	cfg.Commit.CommitLanguage = "chinese"
	cfg.Analysis.Workers = 8
	require.NoError(t, m.Save(cfg))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigManager_LoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"analysis":{"workers":2}}`), 0o644))

	m, err := NewConfigManager(path)
	require.NoError(t, err)

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.True(t, cfg.Commit.OnlyStagedChanges)
	assert.Equal(t, 100000, cfg.Analysis.MaxDiffLength)
}

func TestConfigManager_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	missing, err := NewConfigManager(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	_, err = missing.Load()
	require.Error(t, err)
	assert.True(t, IsNotExist(err))

	cfg, err := LoadOrDefault(missing)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0o644))
	bad, err := NewConfigManager(badPath)
	require.NoError(t, err)
	_, err = bad.Load()
	require.Error(t, err)
	assert.False(t, IsNotExist(err))
	assert.NotEmpty(t, errors.GetSuggestion(err))

	_, err = LoadOrDefault(bad)
	assert.Error(t, err)
}

func TestConfigManager_CreateDefaultConfig(t *testing.T) {
	m, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, m.CreateDefaultConfig())

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestConfigManager_ConcurrentSave(t *testing.T) {
	m, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(workers int) {
			defer wg.Done()
			cfg := Default()
			cfg.Analysis.Workers = workers
			assert.NoError(t, m.Save(cfg))
		}(i)
	}
	wg.Wait()

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
