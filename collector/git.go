package collector

import (
	"context"
	"strconv"
	"strings"

	sageerrors "github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/logger"
	"github.com/penwyp/gitsage/internal/process"
	"go.uber.org/zap"
)

// submoduleMode 是 git 索引中 gitlink（子模块）条目的文件模式。
const submoduleMode = "160000"

// Git 在固定的仓库根目录下执行只读的 git 查询。
// 所有方法都可以并发调用。
type Git struct {
	runner process.Runner
	dir    string
	logger *zap.Logger
}

// NewGit 创建 Git，dir 通常为 Locate 返回的 Repository.Root。
func NewGit(runner process.Runner, dir string, l *zap.Logger) *Git {
	return &Git{runner: runner, dir: dir, logger: logger.OrNop(l)}
}

// Dir 返回工作目录。
func (g *Git) Dir() string {
	return g.dir
}

// run 执行 git，非 0 退出码不视为错误。
func (g *Git) run(ctx context.Context, args ...string) (process.Result, error) {
	return g.runner.Run(ctx, g.dir, "git", args...)
}

// Exec 执行 git，非 0 退出码转换为 *errors.CommandError。
func (g *Git) Exec(ctx context.Context, args ...string) (process.Result, error) {
	res, err := g.run(ctx, args...)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &sageerrors.CommandError{
			Command:  process.CommandLine("git", args...),
			Stdout:   strings.TrimSpace(res.Stdout),
			Stderr:   strings.TrimSpace(res.Stderr),
			ExitCode: res.ExitCode,
		}
	}
	return res, nil
}

// HasHead 判断仓库是否已有提交。
func (g *Git) HasHead(ctx context.Context) bool {
	res, err := g.run(ctx, "rev-parse", "HEAD")
	return err == nil && res.ExitCode == 0
}

// HasChanges 探测某一类变更是否存在：查询成功且输出去空白后非空。
func (g *Git) HasChanges(ctx context.Context, category ChangeCategory) bool {
	args := category.listArgs()
	if args == nil {
		return false
	}
	res, err := g.run(ctx, args...)
	if err != nil || res.ExitCode != 0 {
		g.logger.Debug("Change probe failed",
			zap.Stringer("category", category),
			zap.Int("exit_code", res.ExitCode),
			zap.Error(err))
		return false
	}
	return strings.TrimSpace(res.Stdout) != ""
}

// ListFiles 返回某一类变更的文件路径，保持 git 输出顺序。
func (g *Git) ListFiles(ctx context.Context, category ChangeCategory) ([]string, error) {
	res, err := g.Exec(ctx, category.listArgs()...)
	if err != nil {
		return nil, err
	}
	return splitPaths(res.Stdout), nil
}

// IsSubmodule 检查索引中该路径的模式是否为 160000。
func (g *Git) IsSubmodule(ctx context.Context, file string) bool {
	res, err := g.run(ctx, "ls-files", "--stage", "--", file)
	if err != nil || res.ExitCode != 0 {
		return false
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == submoduleMode {
			return true
		}
	}
	return false
}

// Status 返回解析后的 `git status --porcelain`。
func (g *Git) Status(ctx context.Context) (Status, error) {
	res, err := g.Exec(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParseStatus(res.Stdout), nil
}

// ShowHead 返回文件在 HEAD 中的内容。
func (g *Git) ShowHead(ctx context.Context, file string) (string, error) {
	res, err := g.Exec(ctx, "show", "HEAD:"+file)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// TrackedAtHead 判断文件是否存在于 HEAD 中。
func (g *Git) TrackedAtHead(ctx context.Context, file string) (bool, error) {
	res, err := g.run(ctx, "cat-file", "-e", "HEAD:"+file)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// GitDir 返回仓库 .git 目录的绝对路径，供 watch 监听索引与 HEAD 变化。
func (g *Git) GitDir(ctx context.Context) (string, error) {
	res, err := g.Exec(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// splitPaths 按行拆分路径列表，去掉空行并还原被引号包裹的路径。
func splitPaths(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		files = append(files, unquotePath(line))
	}
	return files
}

// unquotePath 还原 core.quotePath 产生的 C 风格引号路径。
func unquotePath(p string) string {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		if u, err := strconv.Unquote(p); err == nil {
			return u
		}
	}
	return p
}
