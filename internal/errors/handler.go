package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorHandler 错误处理器
type ErrorHandler struct {
	// 可以添加配置选项
}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Handle 将运行中止时的错误转换为结构化的用户错误信息。
// 只有致命错误会到达这里，单文件归因失败在批处理层已被吞掉。
func (h *ErrorHandler) Handle(err error) UserError {
	if err == nil {
		return UserError{ExitCode: ExitCodeSuccess}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return UserError{
			Message:    "Timeout exceeded",
			Suggestion: "Increase --timeout or narrow the change set",
			ExitCode:   ExitCodeTimeout,
		}
	}

	if errors.Is(err, context.Canceled) {
		return UserError{
			Message:  "Interrupted",
			ExitCode: ExitCodeInterrupted,
		}
	}

	suggestion := GetSuggestion(err)

	// 仓库错误
	if errors.Is(err, ErrNotGitRepo) {
		return UserError{
			Message:    ErrNotGitRepo.Message,
			Suggestion: suggestion,
			ExitCode:   ExitCodeNoRepository,
		}
	}
	if errors.Is(err, ErrRepoRoot) {
		return UserError{
			Message:    ErrRepoRoot.Message,
			Details:    detailsOf(err, ErrRepoRoot.Message),
			Suggestion: suggestion,
			ExitCode:   ExitCodeNoRepository,
		}
	}

	// 无变更
	if errors.Is(err, ErrNoChanges) {
		return UserError{
			Message:    ErrNoChanges.Message,
			Suggestion: suggestion,
			ExitCode:   ExitCodeNoChanges,
		}
	}

	if errors.Is(err, ErrNoCommitsYet) {
		return UserError{
			Message:    ErrNoCommitsYet.Message,
			Suggestion: suggestion,
			ExitCode:   ExitCodeNoCommits,
		}
	}

	// Git 命令错误
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return UserError{
			Message:  fmt.Sprintf("Git command failed: %s", cmdErr.Command),
			Details:  strings.TrimSpace(firstNonEmpty(cmdErr.Stderr, cmdErr.Stdout)),
			ExitCode: ExitCodeGitError,
		}
	}

	if GetType(err) == ErrTypeConfig {
		return UserError{
			Message:    err.Error(),
			Suggestion: suggestion,
			ExitCode:   ExitCodeConfigError,
		}
	}

	// 默认错误
	return UserError{
		Message:    err.Error(),
		Suggestion: suggestion,
		ExitCode:   ExitCodeGenericError,
	}
}

// FormatError 格式化错误信息为用户友好的输出
func (h *ErrorHandler) FormatError(userErr UserError) string {
	var sb strings.Builder

	// 错误消息（红色）
	sb.WriteString(color.RedString("Error: %s\n", userErr.Message))

	// 详细信息（如果有）
	if userErr.Details != "" {
		sb.WriteString(color.YellowString("Details: %s\n", userErr.Details))
	}

	// 建议（如果有）
	if userErr.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(userErr.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}

// WrapError 包装错误，添加上下文信息
func (h *ErrorHandler) WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// 辅助函数

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// detailsOf 去掉包装链中已经展示过的前缀
func detailsOf(err error, shown string) string {
	details := strings.TrimPrefix(err.Error(), shown)
	return strings.TrimSpace(strings.TrimPrefix(details, ":"))
}
