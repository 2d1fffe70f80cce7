package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/gitsage/collector"
	"github.com/penwyp/gitsage/internal/config"
	sageerrors "github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var flagWatchDebounce time.Duration

// repositoryWatcher 可在测试中替换
var repositoryWatcher = pipeline.WatchRepository

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever the index, HEAD or the config file changes",
		Long: `watch runs the analysis once, then keeps watching the repository's .git/index and
.git/HEAD as well as the config file. Every settled change triggers a fresh run.

Failures are reported and watching continues; press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().DurationVar(&flagWatchDebounce, "debounce", pipeline.DefaultWatchDebounce, "quiet period before re-running after a change")
	cmd.Flags().BoolVarP(&flagAll, "all", "a", false, "report every change category even when something is staged")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := initLogger(); err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	path, err := configPath()
	if err != nil {
		return err
	}
	base, err := config.NewYAMLConfigManager(path)
	if err != nil {
		return err
	}
	hot, err := config.NewHotReloadManager(base, path, appLogger)
	if err != nil {
		return err
	}
	defer func() { _ = hot.Stop() }()

	cfg, err := hot.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner := runnerProvider(appLogger)
	repo, err := collector.Locate(ctx, runner, "")
	if err != nil {
		return err
	}
	gitDir, err := collector.NewGit(runner, repo.Root, appLogger).GitDir(ctx)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	// 所有触发源汇入同一通道，分析串行执行
	triggers := make(chan string, 1)
	trigger := func(reason string) {
		select {
		case triggers <- reason:
		default:
		}
	}
	hot.OnConfigChange(func(*config.Config) { trigger("config changed") })

	watchErr := make(chan error, 1)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		watchErr <- repositoryWatcher(ctx, gitDir, flagWatchDebounce, appLogger, func() { trigger("repository changed") })
	}()
	// 返回前先停止监听并等待其退出
	defer func() {
		cancel()
		<-watchDone
	}()

	_, _ = fmt.Fprintln(errOut, renderStatusBar("Watching "+repo.Root, false))
	trigger("initial run")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err != nil {
				return err
			}
			return nil
		case reason := <-triggers:
			appLogger.Debug("Re-running analysis", zap.String("reason", reason))
			current, err := hot.Load()
			if err != nil {
				return err
			}
			analyzeOnce(ctx, out, errOut, current)
		}
	}
}

// analyzeOnce 执行一次分析并输出；失败只报告，不退出 watch。
func analyzeOnce(ctx context.Context, out, errOut io.Writer, cfg *config.Config) {
	res, err := pipelineRunner(ctx, buildOptions(cfg))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h := sageerrors.NewErrorHandler()
		_, _ = fmt.Fprint(errOut, h.FormatError(h.Handle(err)))
		return
	}
	if err := writeArtifacts(out, res, cfg); err != nil {
		appLogger.Warn("Failed to write output", zap.Error(err))
		return
	}
	skipped := len(multierr.Errors(res.Failures))
	msg := fmt.Sprintf("Analyzed %d files at %s", len(res.Files), time.Now().Format("15:04:05"))
	if skipped > 0 {
		msg += fmt.Sprintf(" (%d skipped)", skipped)
	}
	_, _ = fmt.Fprintln(errOut, renderStatusBar(msg, true))
}
