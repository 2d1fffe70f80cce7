package errors

// Exit codes for different error types
const (
	ExitCodeSuccess      = 0
	ExitCodeGenericError = 1
	ExitCodeNoRepository = 2
	ExitCodeNoChanges    = 3
	ExitCodeNoCommits    = 4
	ExitCodeGitError     = 5
	ExitCodeConfigError  = 6
	ExitCodeTimeout      = 124 // Standard timeout exit code
	ExitCodeInterrupted  = 130 // 128 + SIGINT
)

// UserError 面向用户的错误描述
type UserError struct {
	Message    string // 用户友好的错误消息
	Details    string // 详细的错误信息（可选）
	Suggestion string // 建议的解决方案
	ExitCode   int    // 退出码
}
