package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/penwyp/gitsage/internal/config"
	"github.com/penwyp/gitsage/internal/errors"
	"github.com/spf13/cobra"
)

// ConfigEntry 一条生效的配置项
type ConfigEntry struct {
	Key   string
	Value string
}

var flagForceInit bool

// newConfigCommand 创建 config 命令组
func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the gitsage configuration file",
	}
	cmd.AddCommand(newConfigShowCommand(), newConfigInitCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration file path and the effective values, with defaults filled in for missing keys`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			m, err := config.NewYAMLConfigManager(path)
			if err != nil {
				return err
			}

			source := path
			cfg, err := m.Load()
			if err != nil {
				if !config.IsNotExist(err) {
					return err
				}
				source = path + " (not found, using defaults)"
				cfg = config.Default()
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n\n", source)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatConfigTable(configEntries(cfg)))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatValidation(cfg.Validate()))
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			m, err := config.NewYAMLConfigManager(path)
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !flagForceInit {
				return errors.New(errors.ErrTypeConfig, fmt.Sprintf("config file already exists: %s", path)).
					WithSuggestion("Use --force to overwrite it")
			}
			if err := m.CreateDefaultConfig(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderStatusBar("Created "+path, true))
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagForceInit, "force", false, "overwrite an existing config file")
	return cmd
}

// configEntries 按文件中的键名展开配置
func configEntries(cfg *config.Config) []ConfigEntry {
	custom := "-"
	if cfg.Commit.CustomInstructions != "" {
		custom = firstLine(cfg.Commit.CustomInstructions)
	}
	return []ConfigEntry{
		{"version", cfg.Version},
		{"commit.onlyStagedChanges", strconv.FormatBool(cfg.Commit.OnlyStagedChanges)},
		{"commit.commitLanguage", cfg.Commit.CommitLanguage},
		{"commit.commitFormat", cfg.Commit.CommitFormat},
		{"commit.customInstructions", custom},
		{"analysis.workers", strconv.Itoa(cfg.Analysis.Workers)},
		{"analysis.maxDiffLength", strconv.Itoa(cfg.Analysis.MaxDiffLength)},
		{"analysis.expandDeletedFiles", strconv.FormatBool(cfg.Analysis.ExpandDeletedFiles)},
	}
}

// formatConfigTable 格式化配置表格
func formatConfigTable(entries []ConfigEntry) string {
	var sb strings.Builder

	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Key\tValue\n")
	_, _ = fmt.Fprintf(w, "---\t-----\n")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Value)
	}
	_ = w.Flush()
	return sb.String()
}

// formatValidation 带颜色的校验结果
func formatValidation(err error) string {
	if err == nil {
		return color.GreenString("✓ Valid")
	}
	return color.RedString("✗ Invalid: %v", err)
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(strings.TrimSpace(s), "\n")
	if cut {
		return line + " …"
	}
	return line
}
