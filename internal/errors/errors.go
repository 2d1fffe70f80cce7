package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType int

const (
	// ErrTypeUnknown 未知错误
	ErrTypeUnknown ErrorType = iota
	// ErrTypeRepository 不在仓库中或无法解析仓库根目录
	ErrTypeRepository
	// ErrTypeNoChanges 四类变更均为空
	ErrTypeNoChanges
	// ErrTypeFileState 文件状态不满足 blame 前置条件
	ErrTypeFileState
	// ErrTypeCommand 外部命令执行失败
	ErrTypeCommand
	// ErrTypeConfig 配置相关错误
	ErrTypeConfig
	// ErrTypeValidation 验证错误
	ErrTypeValidation
	// ErrTypeTimeout 超时错误
	ErrTypeTimeout
)

// String 返回错误类型名称
func (t ErrorType) String() string {
	switch t {
	case ErrTypeRepository:
		return "repository"
	case ErrTypeNoChanges:
		return "no-changes"
	case ErrTypeFileState:
		return "file-state"
	case ErrTypeCommand:
		return "command"
	case ErrTypeConfig:
		return "config"
	case ErrTypeValidation:
		return "validation"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// SageError 统一错误结构
//
// Fatal 为 true 时整个运行中止（仓库定位、diff 收集）；
// 为 false 时仅跳过当前条目（单个文件的 blame 归因）。
type SageError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Fatal      bool
	Suggestion string
}

// Error 实现 error 接口
func (e *SageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 支持 errors.Is 和 errors.As
func (e *SageError) Unwrap() error {
	return e.Cause
}

// WithSuggestion 添加解决建议
func (e *SageError) WithSuggestion(suggestion string) *SageError {
	e.Suggestion = suggestion
	return e
}

// IsFatal 检查错误是否需要中止运行
func (e *SageError) IsFatal() bool {
	return e.Fatal
}

// New 创建新的 SageError（可跳过）
func New(errType ErrorType, message string) *SageError {
	return &SageError{
		Type:    errType,
		Message: message,
	}
}

// Wrap 包装已有错误（可跳过）
func Wrap(errType ErrorType, message string, cause error) *SageError {
	return &SageError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewFatal 创建致命错误
func NewFatal(errType ErrorType, message string) *SageError {
	return &SageError{
		Type:    errType,
		Message: message,
		Fatal:   true,
	}
}

// WrapFatal 包装致命错误
func WrapFatal(errType ErrorType, message string, cause error) *SageError {
	return &SageError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Fatal:   true,
	}
}

// CommandError 外部命令以非 0 退出码结束
type CommandError struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Error 实现 error 接口
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed with code %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	if e.Stdout != "" {
		return fmt.Sprintf("%s failed with code %d: %s", e.Command, e.ExitCode, e.Stdout)
	}
	return fmt.Sprintf("%s failed with code %d", e.Command, e.ExitCode)
}

// 预定义的常见错误
var (
	// 致命错误
	ErrNotGitRepo = NewFatal(ErrTypeRepository, "No Git repositories found in the current directory.").WithSuggestion("Run inside a Git working tree, or run 'git init' to create one")
	ErrRepoRoot   = NewFatal(ErrTypeRepository, "Unable to determine the Git repository root directory.")
	ErrNoChanges  = NewFatal(ErrTypeNoChanges, "No changes detected.").WithSuggestion("Modify, add or delete a file first")

	// 单文件错误
	ErrFileNotFound     = New(ErrTypeFileState, "File not found")
	ErrNoCommitsYet     = New(ErrTypeFileState, "Repository has no commits yet").WithSuggestion("Create an initial commit to enable blame attribution")
	ErrFileNotCommitted = New(ErrTypeFileState, "File has not been committed yet")
	ErrFileDeleted      = New(ErrTypeFileState, "File has been deleted")

	// 配置错误
	ErrConfigParse   = New(ErrTypeConfig, "配置文件解析失败").WithSuggestion("检查配置文件格式是否正确")
	ErrInvalidConfig = New(ErrTypeConfig, "配置无效").WithSuggestion("参考文档中的配置示例")
)

// Is 检查是否为特定错误
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As 尝试转换为特定错误类型
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetType 获取错误类型
func GetType(err error) ErrorType {
	var sageErr *SageError
	if errors.As(err, &sageErr) {
		return sageErr.Type
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return ErrTypeCommand
	}
	return ErrTypeUnknown
}

// IsFatal 检查错误是否需要中止运行；未分类的错误视为致命。
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var sageErr *SageError
	if errors.As(err, &sageErr) {
		return sageErr.IsFatal()
	}
	return true
}

// GetSuggestion 获取错误建议
func GetSuggestion(err error) string {
	var sageErr *SageError
	if errors.As(err, &sageErr) {
		return sageErr.Suggestion
	}
	return ""
}

// FormatError 格式化错误输出
func FormatError(err error) string {
	var sageErr *SageError
	if !errors.As(err, &sageErr) {
		return err.Error()
	}

	msg := err.Error()
	if sageErr.Suggestion != "" {
		msg += fmt.Sprintf("\n💡 %s", sageErr.Suggestion)
	}

	return msg
}
