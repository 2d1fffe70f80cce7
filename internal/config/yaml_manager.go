package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/penwyp/gitsage/internal/errors"
	"gopkg.in/yaml.v3"
)

// Format represents the configuration file format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// yamlConfigManager supports both JSON and YAML configuration files
type yamlConfigManager struct {
	configPath string
	format     Format
	mu         sync.Mutex
}

// NewYAMLConfigManager creates a config manager that supports both JSON and YAML.
// The format follows the file extension; anything other than .json is YAML.
func NewYAMLConfigManager(configPath string) (Manager, error) {
	if configPath == "" {
		return nil, errors.New(errors.ErrTypeConfig, "config path cannot be empty")
	}

	return &yamlConfigManager{
		configPath: configPath,
		format:     formatOf(configPath),
	}, nil
}

func formatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Load loads the configuration file, falling back to the other format
// when the primary one fails to parse.
func (m *yamlConfigManager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to read config file", err)
	}

	primary, secondary := yaml.Unmarshal, json.Unmarshal
	if m.format == FormatJSON {
		primary, secondary = json.Unmarshal, yaml.Unmarshal
	}

	config := Default()
	if err := primary(data, config); err != nil {
		fallback := Default()
		if secondary(data, fallback) == nil {
			return fallback, nil
		}
		return nil, errors.Wrap(errors.ErrTypeConfig, fmt.Sprintf("failed to parse config as %s", strings.ToUpper(string(m.format))), err).
			WithSuggestion(errors.ErrConfigParse.Suggestion)
	}

	return config, nil
}

// Save saves the configuration file in the appropriate format
func (m *yamlConfigManager) Save(config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.marshal(config)
	if err != nil {
		return err
	}
	return writeAtomic(m.configPath, data)
}

// CreateDefaultConfig creates a default configuration file.
// YAML files get a comment header.
func (m *yamlConfigManager) CreateDefaultConfig() error {
	if m.format != FormatYAML {
		return m.Save(Default())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.marshal(Default())
	if err != nil {
		return err
	}

	header := `# gitsage configuration
# commit.onlyStagedChanges: report only staged changes when anything is staged
# commit.commitLanguage: english | russian | chinese | japanese
# commit.commitFormat: conventional | angular | karma | semantic | emoji

`
	return writeAtomic(m.configPath, append([]byte(header), data...))
}

func (m *yamlConfigManager) marshal(config *Config) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch m.format {
	case FormatJSON:
		data, err = json.MarshalIndent(config, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(config)
	default:
		return nil, errors.New(errors.ErrTypeConfig, fmt.Sprintf("unknown format: %s", m.format))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to marshal config", err)
	}
	return data, nil
}
