package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sageerrors "github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/process"
)

// insideWorkTree 是 `git rev-parse --is-inside-work-tree` 在工作树内的输出。
const insideWorkTree = "true"

// Locate 确认 dir 位于 git 工作树中并解析仓库根目录。
// dir 为空时使用进程当前目录。
//
// 两类失败互相独立：不在仓库中返回 errors.ErrNotGitRepo，
// 根目录无法解析返回 errors.ErrRepoRoot，两者均为致命错误。
func Locate(ctx context.Context, runner process.Runner, dir string) (Repository, error) {
	res, err := runner.Run(ctx, dir, "git", "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return Repository{}, fmt.Errorf("%w: %w", sageerrors.ErrNotGitRepo, err)
	}
	if res.ExitCode != 0 || strings.TrimSpace(res.Stderr) != "" || strings.TrimSpace(res.Stdout) != insideWorkTree {
		return Repository{}, sageerrors.ErrNotGitRepo
	}

	res, err = runner.Run(ctx, dir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return Repository{}, fmt.Errorf("%w: %w", sageerrors.ErrRepoRoot, err)
	}
	root := strings.TrimSpace(res.Stdout)
	if res.ExitCode != 0 || strings.TrimSpace(res.Stderr) != "" || root == "" {
		return Repository{}, fmt.Errorf("%w: %w", sageerrors.ErrRepoRoot, &sageerrors.CommandError{
			Command:  "git rev-parse --show-toplevel",
			Stdout:   root,
			Stderr:   strings.TrimSpace(res.Stderr),
			ExitCode: res.ExitCode,
		})
	}

	return Repository{Root: filepath.Clean(root)}, nil
}
