package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/logger"
	"go.uber.org/zap"
)

// reloadDebounce 等待文件写入稳定的时间
const reloadDebounce = 100 * time.Millisecond

// HotReloadManager wraps a config manager with hot reload capability.
// A missing config file is not an error: the defaults are served until the file appears.
type HotReloadManager struct {
	baseManager Manager
	configPath  string
	watcher     *fsnotify.Watcher
	logger      *zap.Logger

	// Current config stored atomically
	currentConfig atomic.Pointer[Config]

	// Callbacks for config changes
	callbacks   []func(*Config)
	callbacksMu sync.RWMutex

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Debouncing
	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewHotReloadManager creates a new hot reload manager
func NewHotReloadManager(baseManager Manager, configPath string, l *zap.Logger) (*HotReloadManager, error) {
	config, err := LoadOrDefault(baseManager)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to load initial config", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to create file watcher", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &HotReloadManager{
		baseManager: baseManager,
		configPath:  configPath,
		watcher:     watcher,
		logger:      logger.OrNop(l),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	m.currentConfig.Store(config)

	if err := m.startWatching(); err != nil {
		cancel()
		watcher.Close()
		return nil, err
	}

	return m, nil
}

// Load returns the current config (from memory)
func (m *HotReloadManager) Load() (*Config, error) {
	config := m.currentConfig.Load()
	if config == nil {
		return nil, errors.New(errors.ErrTypeConfig, "no config loaded")
	}
	return config, nil
}

// Save saves the config and updates the in-memory cache
func (m *HotReloadManager) Save(config *Config) error {
	if err := m.baseManager.Save(config); err != nil {
		return err
	}

	m.currentConfig.Store(config)
	m.notifyCallbacks(config)

	return nil
}

// CreateDefaultConfig creates the default config
func (m *HotReloadManager) CreateDefaultConfig() error {
	if err := m.baseManager.CreateDefaultConfig(); err != nil {
		return err
	}

	config, err := m.baseManager.Load()
	if err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to load created config", err)
	}

	m.currentConfig.Store(config)
	m.notifyCallbacks(config)

	return nil
}

// OnConfigChange registers a callback for config changes.
// Callbacks run on their own goroutine.
func (m *HotReloadManager) OnConfigChange(callback func(*Config)) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Stop stops the hot reload manager
func (m *HotReloadManager) Stop() error {
	m.cancel()

	m.debounceMu.Lock()
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceMu.Unlock()

	<-m.done

	return m.watcher.Close()
}

// startWatching watches the directory so atomic renames are observed
func (m *HotReloadManager) startWatching() error {
	dir := filepath.Dir(m.configPath)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to create config directory", err)
	}

	if err := m.watcher.Add(dir); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to watch config directory", err)
	}

	go m.watchLoop()

	return nil
}

// watchLoop is the main loop for watching file changes
func (m *HotReloadManager) watchLoop() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(m.configPath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				m.handleConfigChange(event.Op)
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("Config watcher error", zap.Error(err))
		}
	}
}

// handleConfigChange handles a config file change with debouncing
func (m *HotReloadManager) handleConfigChange(op fsnotify.Op) {
	m.debounceMu.Lock()
	defer m.debounceMu.Unlock()

	m.logger.Debug("Config file event", zap.String("op", op.String()), zap.String("path", m.configPath))

	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(reloadDebounce, m.reloadConfig)
}

// reloadConfig reloads the config from disk; invalid or removed files keep the current config
func (m *HotReloadManager) reloadConfig() {
	if m.ctx.Err() != nil {
		return
	}

	newConfig, err := m.baseManager.Load()
	if err != nil {
		if IsNotExist(err) {
			m.logger.Debug("Config file removed, keeping current config")
			return
		}
		m.logger.Warn("Failed to reload config", zap.Error(err))
		return
	}
	if err := newConfig.Validate(); err != nil {
		m.logger.Warn("Ignoring invalid config", zap.Error(err))
		return
	}

	m.currentConfig.Store(newConfig)
	m.notifyCallbacks(newConfig)
}

// notifyCallbacks notifies all registered callbacks
func (m *HotReloadManager) notifyCallbacks(config *Config) {
	m.callbacksMu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("Config change callback panic", zap.Any("panic", r))
				}
			}()
			cb(config)
		}(callback)
	}
}
