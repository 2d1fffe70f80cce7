package process

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("sh not available on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
}

func TestExecRunner_CapturesStreams(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r := NewExecRunner(nil)
	res, err := r.Run(context.Background(), "", "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Success())
}

func TestExecRunner_NonZeroExitIsNotError(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r := NewExecRunner(nil)
	res, err := r.Run(context.Background(), "", "sh", "-c", "echo boom 1>&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Success())
	assert.Equal(t, "boom", strings.TrimSpace(res.Stderr))
}

func TestExecRunner_WorkingDirectory(t *testing.T) {
	t.Parallel()
	requireShell(t)

	dir := t.TempDir()
	r := NewExecRunner(nil)
	res, err := r.Run(context.Background(), dir, "sh", "-c", "pwd -P")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(res.Stdout))
}

func TestExecRunner_MissingBinary(t *testing.T) {
	t.Parallel()

	r := NewExecRunner(nil)
	_, err := r.Run(context.Background(), "", "gitsage-definitely-not-a-binary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gitsage-definitely-not-a-binary")
}

func TestExecRunner_CanceledContext(t *testing.T) {
	t.Parallel()
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewExecRunner(nil)
	_, err := r.Run(ctx, "", "sh", "-c", "sleep 5")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "git", CommandLine("git"))
	assert.Equal(t, "git diff --cached -- a.go", CommandLine("git", "diff", "--cached", "--", "a.go"))
}
