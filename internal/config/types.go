package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/prompt"
)

// CurrentVersion 配置文件结构版本
const CurrentVersion = "1"

// MaxWorkers 并发分析文件数上限
const MaxWorkers = 64

// Config 配置文件结构
type Config struct {
	Version  string         `json:"version" yaml:"version"`
	Commit   CommitConfig   `json:"commit" yaml:"commit"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
}

// CommitConfig 控制 diff 范围与 Prompt 生成
type CommitConfig struct {
	OnlyStagedChanges  bool   `json:"onlyStagedChanges" yaml:"onlyStagedChanges"`
	CommitLanguage     string `json:"commitLanguage" yaml:"commitLanguage"`
	CommitFormat       string `json:"commitFormat" yaml:"commitFormat"`
	CustomInstructions string `json:"customInstructions,omitempty" yaml:"customInstructions,omitempty"`
}

// AnalysisConfig 控制 diff 收集与 blame 分析
type AnalysisConfig struct {
	Workers            int  `json:"workers" yaml:"workers"`
	MaxDiffLength      int  `json:"maxDiffLength" yaml:"maxDiffLength"`
	ExpandDeletedFiles bool `json:"expandDeletedFiles" yaml:"expandDeletedFiles"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Commit: CommitConfig{
			OnlyStagedChanges: true,
			CommitLanguage:    string(prompt.LanguageEnglish),
			CommitFormat:      string(prompt.FormatConventional),
		},
		Analysis: AnalysisConfig{
			Workers:       4,
			MaxDiffLength: prompt.DefaultMaxDiffLength,
		},
	}
}

// Validate 检查取值范围，错误均包装 errors.ErrInvalidConfig。
func (c *Config) Validate() error {
	if !prompt.IsValidLanguage(c.Commit.CommitLanguage) {
		return fmt.Errorf("%w: unsupported commitLanguage %q", errors.ErrInvalidConfig, c.Commit.CommitLanguage)
	}
	if !prompt.IsValidFormat(c.Commit.CommitFormat) {
		return fmt.Errorf("%w: unsupported commitFormat %q", errors.ErrInvalidConfig, c.Commit.CommitFormat)
	}
	if c.Analysis.Workers < 1 || c.Analysis.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 1 and %d, got %d", errors.ErrInvalidConfig, MaxWorkers, c.Analysis.Workers)
	}
	if c.Analysis.MaxDiffLength < 0 {
		return fmt.Errorf("%w: maxDiffLength must not be negative, got %d", errors.ErrInvalidConfig, c.Analysis.MaxDiffLength)
	}
	return nil
}

// DefaultPath 返回默认配置文件路径：
// $XDG_CONFIG_HOME/gitsage/config.yaml，未设置时为 ~/.config/gitsage/config.yaml。
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gitsage", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeConfig, "failed to resolve home directory", err)
	}
	return filepath.Join(home, ".config", "gitsage", "config.yaml"), nil
}

// Manager 配置管理器接口
type Manager interface {
	// Load 加载配置文件，文件中缺失的字段保留默认值。
	// 文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)。
	Load() (*Config, error)

	// Save 保存配置文件（原子操作）
	Save(config *Config) error

	// CreateDefaultConfig 创建默认配置
	CreateDefaultConfig() error
}
