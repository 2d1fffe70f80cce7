package blame

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/penwyp/gitsage/collector"
	sageerrors "github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/logger"
	"go.uber.org/zap"
)

// Analyzer 对单个文件做 blame 归属分析。
type Analyzer struct {
	git    collector.GitReader
	logger *zap.Logger
	staged bool
	exists func(path string) bool
}

// Option 配置 Analyzer。
type Option func(*Analyzer)

// WithLogger 设置日志记录器。
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = logger.OrNop(l) }
}

// WithStaged 让变更行取自暂存区 diff，与仅暂存模式下收集到的 diff 保持一致。
// 暂存区行号会按工作区 diff 平移，以对齐 blame 使用的工作区行号。
func WithStaged(staged bool) Option {
	return func(a *Analyzer) { a.staged = staged }
}

// WithFileExists 替换磁盘存在性检查，参数为绝对路径。
func WithFileExists(exists func(path string) bool) Option {
	return func(a *Analyzer) { a.exists = exists }
}

// NewAnalyzer 创建 Analyzer。
func NewAnalyzer(git collector.GitReader, opts ...Option) *Analyzer {
	a := &Analyzer{
		git:    git,
		logger: zap.NewNop(),
		exists: fileExists,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze 返回单个文件的作者归属摘要。
//
// 已删除与新增文件直接返回描述文本；其余文件必须存在于磁盘、
// 仓库必须已有提交、且文件已在 HEAD 中，否则返回 FileState 类错误。
func (a *Analyzer) Analyze(ctx context.Context, file string) (string, error) {
	status, err := a.git.Status(ctx)
	if err != nil {
		return "", sageerrors.Wrap(sageerrors.ErrTypeCommand, "failed to read status for "+file, err)
	}
	return a.analyze(ctx, file, status)
}

func (a *Analyzer) analyze(ctx context.Context, file string, status collector.Status) (string, error) {
	if entry, ok := status.Lookup(file); ok {
		if entry.IsDeleted() {
			return "Deleted file: " + file, nil
		}
		if entry.IsNew() {
			return "New file: " + file, nil
		}
	}

	if !a.exists(filepath.Join(a.git.Dir(), filepath.FromSlash(file))) {
		return "", fmt.Errorf("%w: %s", sageerrors.ErrFileNotFound, file)
	}
	if !a.git.HasHead(ctx) {
		return "", sageerrors.ErrNoCommitsYet
	}
	tracked, err := a.git.TrackedAtHead(ctx, file)
	if err != nil {
		return "", sageerrors.Wrap(sageerrors.ErrTypeCommand, "failed to check "+file+" at HEAD", err)
	}
	if !tracked {
		return "", fmt.Errorf("%w: %s", sageerrors.ErrFileNotCommitted, file)
	}

	blameOut, err := a.git.Exec(ctx, "blame", "--line-porcelain", file)
	if err != nil {
		return "", sageerrors.Wrap(sageerrors.ErrTypeCommand, "failed to blame "+file, err)
	}
	records := Parse(blameOut.Stdout)

	changed, err := a.changedLines(ctx, file)
	if err != nil {
		return "", err
	}

	a.logger.Debug("Attributing file",
		zap.String("file", file),
		zap.Int("blame_records", len(records)),
		zap.Int("changed_lines", len(changed)))

	return Format(Attribute(records, changed)), nil
}

// changedLines 返回工作区行号下的变更行。
// 暂存模式下 `diff --cached` 的行号属于暂存区版本，而 blame 针对工作区文件，
// 因此再用 `diff --unified=0`（暂存区 -> 工作区）的 hunk 把行号平移过去。
func (a *Analyzer) changedLines(ctx context.Context, file string) (ChangedLines, error) {
	worktree, err := a.git.Exec(ctx, "diff", "--unified=0", "--", file)
	if err != nil {
		return nil, sageerrors.Wrap(sageerrors.ErrTypeCommand, "failed to diff "+file, err)
	}
	if !a.staged {
		return ParseChangedLines(worktree.Stdout), nil
	}

	cached, err := a.git.Exec(ctx, "diff", "--cached", "--unified=0", "--", file)
	if err != nil {
		return nil, sageerrors.Wrap(sageerrors.ErrTypeCommand, "failed to diff staged "+file, err)
	}
	return MapLines(ParseChangedLines(cached.Stdout), ParseHunks(worktree.Stdout)), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
