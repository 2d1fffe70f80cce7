package collector

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sageerrors "github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/logger"
	"github.com/penwyp/gitsage/internal/process"
	"go.uber.org/zap"
)

// Collector 负责收集四类变更并合并为一份 unified diff。
// 通过依赖注入的 Runner 以实现可测试性。
// 所有方法均以 context 控制生命周期。
type Collector struct {
	git           *Git
	readFile      func(name string) ([]byte, error)
	logger        *zap.Logger
	expandDeleted bool
}

// Option 配置 Collector。
type Option func(*Collector)

// WithLogger 设置日志记录器。
func WithLogger(l *zap.Logger) Option {
	return func(c *Collector) { c.logger = logger.OrNop(l) }
}

// WithFileReader 替换读取未跟踪文件内容的函数，参数为绝对路径。
func WithFileReader(read func(name string) ([]byte, error)) Option {
	return func(c *Collector) { c.readFile = read }
}

// WithExpandedDeletions 让已删除文件的 diff 每个原始行输出一个 "-" 行。
func WithExpandedDeletions(expand bool) Option {
	return func(c *Collector) { c.expandDeleted = expand }
}

// New 创建 Collector，repo 为 Locate 的结果。
func New(r process.Runner, repo Repository, opts ...Option) *Collector {
	c := &Collector{
		readFile: os.ReadFile,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.git = NewGit(r, repo.Root, c.logger)
	return c
}

// Git 返回底层的 git 查询器。
func (c *Collector) Git() *Git {
	return c.git
}

// Probe 独立探测四类变更。没有任何提交时不可能存在"相对 HEAD 删除"的文件，
// 因此 Deleted 只在 HEAD 存在时探测。
func (c *Collector) Probe(ctx context.Context) Probe {
	p := Probe{HasHead: c.git.HasHead(ctx)}
	p.Staged = c.git.HasChanges(ctx, Staged)
	p.Unstaged = c.git.HasChanges(ctx, Unstaged)
	p.Untracked = c.git.HasChanges(ctx, Untracked)
	p.Deleted = p.HasHead && c.git.HasChanges(ctx, Deleted)

	c.logger.Debug("Probed changes",
		zap.Bool("has_head", p.HasHead),
		zap.Bool("staged", p.Staged),
		zap.Bool("unstaged", p.Unstaged),
		zap.Bool("untracked", p.Untracked),
		zap.Bool("deleted", p.Deleted))
	return p
}

// Diff 构建合并后的 diff 文本，若无差异返回 errors.ErrNoChanges。
//
// onlyStaged 且存在暂存变更时仅返回暂存区 diff（不带分节标记）；
// 否则依次拼接暂存、未暂存、新文件、已删除四节。
func (c *Collector) Diff(ctx context.Context, onlyStaged bool) (string, []DiffFragment, error) {
	return c.diff(ctx, c.Probe(ctx), onlyStaged)
}

func (c *Collector) diff(ctx context.Context, probe Probe, onlyStaged bool) (string, []DiffFragment, error) {
	if !probe.Any() {
		return "", nil, sageerrors.ErrNoChanges
	}

	if onlyStaged && probe.Staged {
		fragments, err := c.trackedFragments(ctx, Staged)
		if err != nil {
			return "", nil, err
		}
		parts := make([]string, 0, len(fragments))
		for _, f := range fragments {
			parts = append(parts, f.Text)
		}
		return joinParts(parts, fragments)
	}

	var (
		parts     []string
		fragments []DiffFragment
	)

	for _, category := range []ChangeCategory{Staged, Unstaged} {
		if !probe.hasCategory(category) {
			continue
		}
		frs, err := c.trackedFragments(ctx, category)
		if err != nil {
			return "", nil, err
		}
		for _, f := range frs {
			parts = append(parts, category.Header()+"\n"+f.Text)
		}
		fragments = append(fragments, frs...)
	}

	if probe.Untracked {
		frs, err := c.untrackedFragments(ctx)
		if err != nil {
			return "", nil, err
		}
		if section := groupSection(Untracked, frs); section != "" {
			parts = append(parts, section)
		}
		fragments = append(fragments, frs...)
	}

	if probe.Deleted {
		frs, err := c.deletedFragments(ctx)
		if err != nil {
			return "", nil, err
		}
		if section := groupSection(Deleted, frs); section != "" {
			parts = append(parts, section)
		}
		fragments = append(fragments, frs...)
	}

	return joinParts(parts, fragments)
}

// Collect 收集 diff 与变更文件列表。
func (c *Collector) Collect(ctx context.Context, onlyStaged bool) (*ChangeSet, error) {
	return c.CollectProbed(ctx, c.Probe(ctx), onlyStaged)
}

// CollectProbed 与 Collect 相同，但复用调用方已经得到的探测结果。
// 仅当 onlyStaged 且确有暂存变更时才按仅暂存处理，文件列表与 diff 保持一致。
func (c *Collector) CollectProbed(ctx context.Context, probe Probe, onlyStaged bool) (*ChangeSet, error) {
	diff, fragments, err := c.diff(ctx, probe, onlyStaged)
	if err != nil {
		return nil, err
	}
	staged := onlyStaged && probe.Staged
	files, err := c.ChangedFiles(ctx, staged)
	if err != nil {
		return nil, err
	}
	return &ChangeSet{
		Diff:       diff,
		Fragments:  fragments,
		Files:      files,
		OnlyStaged: staged,
	}, nil
}

// ChangedFiles 从 `git status --porcelain` 解析变更文件，保持 git 输出顺序。
func (c *Collector) ChangedFiles(ctx context.Context, onlyStaged bool) ([]string, error) {
	status, err := c.git.Status(ctx)
	if err != nil {
		return nil, sageerrors.WrapFatal(sageerrors.ErrTypeCommand, "failed to list changed files", err)
	}
	return status.Files(onlyStaged), nil
}

// trackedFragments 处理暂存/未暂存两类：跳过子模块，丢弃空白 diff。
func (c *Collector) trackedFragments(ctx context.Context, category ChangeCategory) ([]DiffFragment, error) {
	files, err := c.git.ListFiles(ctx, category)
	if err != nil {
		return nil, sageerrors.WrapFatal(sageerrors.ErrTypeCommand, "failed to list "+category.String()+" files", err)
	}

	var fragments []DiffFragment
	for _, file := range files {
		if c.git.IsSubmodule(ctx, file) {
			c.logger.Debug("Skipping submodule", zap.String("file", file))
			continue
		}

		args := []string{"diff", "--", file}
		if category == Staged {
			args = []string{"diff", "--cached", "--", file}
		}
		res, err := c.git.Exec(ctx, args...)
		if err != nil {
			return nil, sageerrors.WrapFatal(sageerrors.ErrTypeCommand, "failed to diff "+category.String()+" file "+file, err)
		}
		if strings.TrimSpace(res.Stdout) == "" {
			continue
		}
		fragments = append(fragments, DiffFragment{
			Category: category,
			Path:     file,
			Text:     strings.TrimRight(res.Stdout, "\r\n"),
		})
	}
	return fragments, nil
}

// untrackedFragments 为每个未跟踪文件合成新文件 diff；读取失败的文件被跳过。
func (c *Collector) untrackedFragments(ctx context.Context) ([]DiffFragment, error) {
	files, err := c.git.ListFiles(ctx, Untracked)
	if err != nil {
		return nil, sageerrors.WrapFatal(sageerrors.ErrTypeCommand, "failed to list untracked files", err)
	}

	var fragments []DiffFragment
	for _, file := range files {
		content, err := c.readFile(filepath.Join(c.git.Dir(), filepath.FromSlash(file)))
		if err != nil {
			c.logger.Warn("Skipping unreadable untracked file", zap.String("file", file), zap.Error(err))
			continue
		}
		fragments = append(fragments, DiffFragment{
			Category: Untracked,
			Path:     file,
			Text:     SynthesizeNewFile(file, content),
		})
	}
	return fragments, nil
}

// deletedFragments 为每个已删除文件合成删除 diff；HEAD 中取不到内容的文件被跳过。
func (c *Collector) deletedFragments(ctx context.Context) ([]DiffFragment, error) {
	files, err := c.git.ListFiles(ctx, Deleted)
	if err != nil {
		return nil, sageerrors.WrapFatal(sageerrors.ErrTypeCommand, "failed to list deleted files", err)
	}

	var fragments []DiffFragment
	for _, file := range files {
		old, err := c.git.ShowHead(ctx, file)
		if err != nil {
			c.logger.Warn("Skipping deleted file without HEAD content", zap.String("file", file), zap.Error(err))
			continue
		}
		fragments = append(fragments, DiffFragment{
			Category: Deleted,
			Path:     file,
			Text:     SynthesizeDeletedFile(file, old, c.expandDeleted),
		})
	}
	return fragments, nil
}

func (p Probe) hasCategory(category ChangeCategory) bool {
	switch category {
	case Staged:
		return p.Staged
	case Unstaged:
		return p.Unstaged
	case Untracked:
		return p.Untracked
	case Deleted:
		return p.Deleted
	default:
		return false
	}
}

// groupSection 将同一类别的所有片段放在一个分节标记之下。
func groupSection(category ChangeCategory, fragments []DiffFragment) string {
	var texts []string
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) != "" {
			texts = append(texts, f.Text)
		}
	}
	if len(texts) == 0 {
		return ""
	}
	return category.Header() + "\n" + strings.Join(texts, "\n")
}

// joinParts 以空行分隔各节；全部为空时返回 errors.ErrNoChanges
// （例如所有变更都只涉及子模块）。
func joinParts(parts []string, fragments []DiffFragment) (string, []DiffFragment, error) {
	combined := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if combined == "" {
		return "", nil, sageerrors.ErrNoChanges
	}
	return combined, fragments, nil
}
