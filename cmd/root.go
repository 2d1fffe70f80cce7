package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/penwyp/gitsage/internal/config"
	"github.com/penwyp/gitsage/internal/logger"
	"github.com/penwyp/gitsage/internal/pipeline"
	"github.com/penwyp/gitsage/internal/process"
	"github.com/penwyp/gitsage/prompt"
	"github.com/penwyp/gitsage/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// version holds the current version of gitsage
// This will be set at build time via ldflags
var version = "dev"

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("gitsage version %s", version)
}

// 将关键依赖抽象为变量以便测试时注入。
// 若在运行时未被替换，则使用默认实现。
var (
	runnerProvider func(l *zap.Logger) process.Runner                                         = defaultRunnerProvider
	pipelineRunner func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) = pipeline.Run
	isTerminal     func(w io.Writer) bool                                                     = defaultIsTerminal
	appLogger      *zap.Logger                                                                // 全局日志记录器
)

// ---------------- 默认实现 ------------------
func defaultRunnerProvider(l *zap.Logger) process.Runner {
	return process.NewExecRunner(l)
}

func defaultIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderStatusBar 渲染带样式的状态条
func renderStatusBar(message string, isSuccess bool) string {
	var style lipgloss.Style
	if isSuccess {
		style = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Background(lipgloss.Color("22")). // Dark green
			Bold(true).
			Padding(0, 1)
	} else {
		style = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Blue
			Background(lipgloss.Color("19")). // Dark blue
			Bold(true).
			Padding(0, 1)
	}

	indicator := "▶"
	if isSuccess {
		indicator = "✓"
	}

	return style.Render(indicator + " " + message)
}

// -------------------------------------------------

var rootCmd = &cobra.Command{
	Use:   "gitsage",
	Short: "Collect the pending git diff and attribute every changed line to its author",
	Long: `gitsage gathers the pending changes of the current repository into one unified diff
and attributes the changed lines of every file to the authors who last touched them.

By default only staged changes are reported when anything is staged; otherwise
staged, unstaged, untracked and deleted changes are combined into one document.

The two artifacts are written to stdout:
- the change-set diff
- the blame attribution report ("Name <email> modified N lines (...)")

Use --prompt to wrap both into a commit-message prompt.`,
	Args:          cobra.NoArgs,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagOnlyStaged bool
	flagAll        bool
	flagWorkers    int
	flagConfig     string
	flagDebug      bool
	flagPlain      bool
	flagDiffOnly   bool
	flagBlameOnly  bool
	flagPrompt     bool
	flagLang       string
	flagFormat     string
	flagTimeout    int
	flagVersion    bool
	flagExpand     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path (default $XDG_CONFIG_HOME/gitsage/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug output for troubleshooting")

	rootCmd.Flags().BoolVar(&flagOnlyStaged, "only-staged", false, "report only staged changes when anything is staged")
	rootCmd.Flags().BoolVarP(&flagAll, "all", "a", false, "report staged, unstaged, untracked and deleted changes even when something is staged")
	rootCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "number of files attributed concurrently")
	rootCmd.Flags().BoolVar(&flagPlain, "plain", false, "disable the progress spinner")
	rootCmd.Flags().BoolVar(&flagDiffOnly, "diff-only", false, "print only the change-set diff")
	rootCmd.Flags().BoolVar(&flagBlameOnly, "blame-only", false, "print only the blame attribution report")
	rootCmd.Flags().BoolVar(&flagPrompt, "prompt", false, "print a commit-message prompt built from both artifacts")
	rootCmd.Flags().StringVarP(&flagLang, "lang", "l", "", "commit message language for --prompt (english, russian, chinese, japanese)")
	rootCmd.Flags().StringVar(&flagFormat, "format", "", "commit message format for --prompt (conventional, angular, karma, semantic, emoji)")
	rootCmd.Flags().IntVarP(&flagTimeout, "timeout", "t", 0, "abort after this many seconds (0 disables the timeout)")
	rootCmd.Flags().BoolVar(&flagVersion, "version", false, "show version information")
	rootCmd.Flags().BoolVar(&flagExpand, "expand-deleted", false, "render deleted files line by line instead of a single marker")

	rootCmd.MarkFlagsMutuallyExclusive("only-staged", "all")
	rootCmd.MarkFlagsMutuallyExclusive("diff-only", "blame-only", "prompt")

	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newConfigCommand())
}

func Execute() error { return rootCmd.Execute() }

func ExecuteContext(ctx context.Context) error { return rootCmd.ExecuteContext(ctx) }

func run(cmd *cobra.Command, _ []string) error {
	// Handle version flag
	if flagVersion {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), GetVersionString())
		return nil
	}

	if err := initLogger(); err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	cfg, _, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(flagTimeout)*time.Second)
		defer cancel()
	}

	opts := buildOptions(cfg)
	opts.SkipBlame = flagDiffOnly

	interactive := !flagPlain && isTerminal(cmd.ErrOrStderr())
	var res *pipeline.Result
	if interactive {
		res, err = runWithProgress(ctx, cmd.ErrOrStderr(), opts)
	} else {
		res, err = pipelineRunner(ctx, opts)
	}
	if err != nil {
		return err
	}

	if err := writeArtifacts(cmd.OutOrStdout(), res, cfg); err != nil {
		return err
	}

	skipped := len(multierr.Errors(res.Failures))
	if skipped > 0 {
		appLogger.Debug("Some files were not attributed", zap.Int("skipped", skipped), zap.Error(res.Failures))
	}
	if interactive {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderSummary(res, skipped, 0))
	}
	return nil
}

// initLogger 初始化全局日志记录器
func initLogger() error {
	l, err := logger.New(flagDebug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger = l
	return nil
}

// configPath 返回 --config 指定的路径或默认路径
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// loadConfig 读取配置文件（不存在时使用默认值），再以命令行参数覆盖。
func loadConfig(flags *pflag.FlagSet) (*config.Config, string, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", err
	}
	m, err := config.NewYAMLConfigManager(path)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadOrDefault(m)
	if err != nil {
		return nil, "", err
	}
	applyFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	appLogger.Debug("Configuration loaded",
		zap.String("path", path),
		zap.Bool("only_staged", cfg.Commit.OnlyStagedChanges),
		zap.Int("workers", cfg.Analysis.Workers))
	return cfg, path, nil
}

// applyFlags 只覆盖用户显式设置过的参数
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("only-staged") {
		cfg.Commit.OnlyStagedChanges = flagOnlyStaged
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = flagWorkers
	}
	if flags.Changed("lang") {
		cfg.Commit.CommitLanguage = strings.ToLower(flagLang)
	}
	if flags.Changed("format") {
		cfg.Commit.CommitFormat = strings.ToLower(flagFormat)
	}
	if flags.Changed("expand-deleted") {
		cfg.Analysis.ExpandDeletedFiles = flagExpand
	}
}

// buildOptions 将配置转换为一次运行的参数
func buildOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		OnlyStaged:    cfg.Commit.OnlyStagedChanges,
		ForceAll:      flagAll,
		Workers:       cfg.Analysis.Workers,
		ExpandDeleted: cfg.Analysis.ExpandDeletedFiles,
		Runner:        runnerProvider(appLogger),
		Logger:        appLogger,
	}
}

// runWithProgress 在 stderr 上显示进度，结果从 LoadingModel 取回
func runWithProgress(ctx context.Context, out io.Writer, opts pipeline.Options) (*pipeline.Result, error) {
	model := ui.NewLoadingModel(ctx, func(ctx context.Context, progress func(pipeline.Stage)) (*pipeline.Result, error) {
		opts.Progress = progress
		return pipelineRunner(ctx, opts)
	})
	if _, err := tea.NewProgram(model, tea.WithOutput(out)).Run(); err != nil {
		return nil, err
	}
	return model.Result()
}

// writeArtifacts 按参数输出 diff、归属报告或 Prompt
func writeArtifacts(w io.Writer, res *pipeline.Result, cfg *config.Config) error {
	var out string
	switch {
	case flagDiffOnly:
		out = res.Diff
	case flagBlameOnly:
		out = res.Report
	case flagPrompt:
		b := prompt.NewBuilder(cfg.Commit.CommitLanguage, cfg.Commit.CommitFormat, cfg.Analysis.MaxDiffLength,
			prompt.WithLogger(appLogger),
			prompt.WithCustomInstructions(cfg.Commit.CustomInstructions))
		out = b.Build(res.Diff, res.Report)
	default:
		out = renderArtifacts(res)
	}
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// renderArtifacts 默认输出：diff 之后跟归属报告
func renderArtifacts(res *pipeline.Result) string {
	if res.Report == "" {
		return res.Diff
	}
	return res.Diff + "\n\n" + "Blame attribution:\n" + res.Report
}
