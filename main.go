package main

import (
	"fmt"
	"os"

	"github.com/penwyp/gitsage/cmd"
	"github.com/penwyp/gitsage/internal/errors"
)

// main 为 CLI 入口，调用 cmd.Execute，并将错误映射为退出码。
func main() {
	if err := cmd.Execute(); err != nil {
		h := errors.NewErrorHandler()
		userErr := h.Handle(err)
		_, _ = fmt.Fprint(os.Stderr, h.FormatError(userErr))
		os.Exit(userErr.ExitCode)
	}
}
