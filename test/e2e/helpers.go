package e2e

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHelper provides utilities for E2E tests
type TestHelper struct {
	t       *testing.T
	binPath string
	// configPath 指向不存在的临时文件，避免读取用户配置
	configPath string
}

// NewTestHelper builds the binary once per test and skips when git is unavailable
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	return &TestHelper{
		t:          t,
		binPath:    buildBinary(t),
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
	}
}

// buildBinary 构建 gitsage 可执行文件并返回路径。
func buildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "gitsage-bin")
	if runtime.GOOS == "windows" {
		binPath += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", binPath, "github.com/penwyp/gitsage")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v, output: %s", err, string(out))
	}
	return binPath
}

// RepoConfig holds configuration for creating a test repository
type RepoConfig struct {
	UserEmail     string
	UserName      string
	InitialCommit bool
}

// DefaultRepoConfig returns a default repo configuration
func DefaultRepoConfig() RepoConfig {
	return RepoConfig{
		UserEmail:     "test@example.com",
		UserName:      "Test User",
		InitialCommit: true,
	}
}

// CreateGitRepo creates a new git repository with initial setup
func (h *TestHelper) CreateGitRepo(config RepoConfig) string {
	dir := h.t.TempDir()

	h.RunGit(dir, "init")
	h.RunGit(dir, "config", "user.email", config.UserEmail)
	h.RunGit(dir, "config", "user.name", config.UserName)
	h.RunGit(dir, "config", "commit.gpgsign", "false")

	if config.InitialCommit {
		h.AddFile(dir, "README.md", "# Test Repository\n", true)
		h.RunGit(dir, "commit", "-m", "chore: initial commit")
	}

	return dir
}

// RunGit executes a git command in the specified directory
func (h *TestHelper) RunGit(dir string, args ...string) string {
	h.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		h.t.Fatalf("git %v failed: %v\nOutput: %s", args, err, out)
	}
	return string(out)
}

// CommitAs commits the staged changes with the given author
func (h *TestHelper) CommitAs(dir, name, email, message string) {
	h.RunGit(dir, "commit", "--author", fmt.Sprintf("%s <%s>", name, email), "-m", message)
}

// AddFile creates a file in the repository and optionally stages it
func (h *TestHelper) AddFile(repoDir, filename, content string, stage bool) {
	h.t.Helper()
	filePath := filepath.Join(repoDir, filename)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(h.t, os.WriteFile(filePath, []byte(content), 0o644))

	if stage {
		h.RunGit(repoDir, "add", filename)
	}
}

// Result is the outcome of one gitsage invocation
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunGitsage executes gitsage with the given arguments in dir
func (h *TestHelper) RunGitsage(dir string, args ...string) Result {
	h.t.Helper()
	args = append([]string{"--config", h.configPath, "--plain"}, args...)
	cmd := exec.Command(h.binPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "NO_COLOR=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		require.True(h.t, errors.As(err, &exitErr), "expected exec.ExitError, got %T: %v", err, err)
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

// WriteConfig writes the YAML config used by RunGitsage
func (h *TestHelper) WriteConfig(content string) {
	h.t.Helper()
	require.NoError(h.t, os.WriteFile(h.configPath, []byte(strings.TrimLeft(content, "\n")), 0o644))
}

// AssertExitCode checks the exit code and prints both streams on mismatch
func (h *TestHelper) AssertExitCode(res Result, expectedCode int) {
	h.t.Helper()
	require.Equal(h.t, expectedCode, res.ExitCode, "stdout:\n%s\nstderr:\n%s", res.Stdout, res.Stderr)
}
