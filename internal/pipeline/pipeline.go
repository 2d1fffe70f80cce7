// Package pipeline runs one end-to-end analysis: locate the repository once,
// collect the change set once, then attribute every changed file.
package pipeline

import (
	"context"

	"github.com/penwyp/gitsage/blame"
	"github.com/penwyp/gitsage/collector"
	"github.com/penwyp/gitsage/internal/logger"
	"github.com/penwyp/gitsage/internal/process"
	"go.uber.org/zap"
)

// Stage 标识运行进度，用于驱动进度界面。
type Stage int

const (
	StageLocate Stage = iota
	StageCollect
	StageAttribute
	StageDone
)

// String 返回阶段名称
func (s Stage) String() string {
	switch s {
	case StageLocate:
		return "locate"
	case StageCollect:
		return "collect"
	case StageAttribute:
		return "attribute"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Options 一次运行的参数。
type Options struct {
	// Dir 为起始目录，空字符串表示当前工作目录。
	Dir string
	// OnlyStaged 对应 commit.onlyStagedChanges。
	OnlyStaged bool
	// ForceAll 强制输出四节完整 diff，优先于 OnlyStaged。
	ForceAll bool
	// Workers 并发分析的文件数，<=0 时使用 blame.DefaultWorkers。
	Workers       int
	ExpandDeleted bool
	// SkipBlame 只收集 diff，不做归属分析。
	SkipBlame bool

	Runner   process.Runner
	Logger   *zap.Logger
	Progress func(Stage)
}

// Result 一次运行产出的两个文本制品及其来源。
type Result struct {
	Repo       collector.Repository
	Diff       string
	Files      []string
	OnlyStaged bool
	Report     string
	// Failures 汇总单文件归属失败（multierr），没有失败时为 nil。
	Failures error
}

// Run 执行完整流程。定位与收集阶段的错误直接返回；
// 归属阶段的单文件失败只记录在 Result.Failures 中。
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := logger.OrNop(opts.Logger)
	runner := opts.Runner
	if runner == nil {
		runner = process.NewExecRunner(log)
	}
	progress := func(s Stage) {
		log.Debug("Pipeline stage", zap.Stringer("stage", s))
		if opts.Progress != nil {
			opts.Progress(s)
		}
	}

	progress(StageLocate)
	repo, err := collector.Locate(ctx, runner, opts.Dir)
	if err != nil {
		return nil, err
	}
	log.Debug("Located repository", zap.String("root", repo.Root))

	progress(StageCollect)
	col := collector.New(runner, repo,
		collector.WithLogger(log),
		collector.WithExpandedDeletions(opts.ExpandDeleted))

	probe := col.Probe(ctx)
	onlyStaged := !opts.ForceAll && (opts.OnlyStaged || probe.Staged)

	set, err := col.CollectProbed(ctx, probe, onlyStaged)
	if err != nil {
		// 探测失败会被当作"无变更"，超时或取消时以 ctx 的错误为准
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	result := &Result{
		Repo:       repo,
		Diff:       set.Diff,
		Files:      set.Files,
		OnlyStaged: set.OnlyStaged,
	}

	if !opts.SkipBlame {
		progress(StageAttribute)
		analyzer := blame.NewAnalyzer(col.Git(),
			blame.WithLogger(log),
			blame.WithStaged(set.OnlyStaged))

		report, err := analyzer.AnalyzeAll(ctx, set.Files, opts.Workers)
		if err != nil {
			return nil, err
		}
		result.Report = report.String()
		result.Failures = report.Failures()
	}

	progress(StageDone)
	return result, nil
}
