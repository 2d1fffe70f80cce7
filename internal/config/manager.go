package config

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/penwyp/gitsage/internal/errors"
)

// configManager JSON 配置文件管理器实现
type configManager struct {
	configPath string
	mu         sync.Mutex // 保护并发写入
}

// NewConfigManager 创建新的 JSON 配置管理器
func NewConfigManager(configPath string) (Manager, error) {
	if configPath == "" {
		return nil, errors.New(errors.ErrTypeConfig, "config path cannot be empty")
	}

	return &configManager{
		configPath: configPath,
	}, nil
}

// Load 加载配置文件
func (m *configManager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to read config file", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, errors.ErrConfigParse.Message, err).
			WithSuggestion(errors.ErrConfigParse.Suggestion)
	}

	return config, nil
}

// Save 保存配置文件（原子操作）
func (m *configManager) Save(config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to marshal config", err)
	}
	return writeAtomic(m.configPath, data)
}

// CreateDefaultConfig 创建默认配置
func (m *configManager) CreateDefaultConfig() error {
	return m.Save(Default())
}

// LoadOrDefault 加载配置；文件不存在时返回默认配置。
func LoadOrDefault(m Manager) (*Config, error) {
	config, err := m.Load()
	if err != nil {
		if IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return config, nil
}

// IsNotExist 判断错误是否由配置文件不存在引起
func IsNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}

// writeAtomic 先写入临时文件，然后重命名
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to create config directory", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to write temp config file", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		// 清理临时文件
		os.Remove(tmpFile)
		return errors.Wrap(errors.ErrTypeConfig, "failed to save config file", err)
	}
	return nil
}
