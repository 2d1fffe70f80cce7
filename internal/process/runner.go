package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Result 为一次外部命令执行的结果，执行后不再修改。
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success 表示命令以 0 退出。
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner 抽象出命令执行器，方便在单元测试中注入 Mock。
//
// 返回值约定：非 0 退出码不是 error，调用方需自行检查 Result.ExitCode / Result.Stderr。
// 只有命令无法启动（例如可执行文件不存在）或 ctx 被取消时才返回 error。
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// ExecRunner 基于 os/exec 执行系统命令。
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner 创建 ExecRunner，logger 为 nil 时不输出日志。
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Run 同步执行命令并分别捕获 stdout 与 stderr。
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Running command",
		zap.String("command", name),
		zap.Strings("args", args),
		zap.String("dir", dir))

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		res.ExitCode = exitErr.ExitCode()
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, fmt.Errorf("failed to execute %s: %w", CommandLine(name, args...), err)
	}

	r.logger.Debug("Command output",
		zap.Int("exit_code", res.ExitCode),
		zap.Int("stdout_length", len(res.Stdout)),
		zap.String("stdout", preview(res.Stdout)),
		zap.String("stderr", preview(res.Stderr)))

	return res, nil
}

// CommandLine 拼接命令行，仅用于日志与错误信息。
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

func preview(s string) string {
	if len(s) < 1000 {
		return s
	}
	return fmt.Sprintf("<%d bytes>", len(s))
}
