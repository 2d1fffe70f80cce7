package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goFile = `package main

func main() {
	println("one")
}
`

const goFileChanged = `package main

func main() {
	println("one")
	println("two")
	println("three")
}
`

func TestE2E_Version(t *testing.T) {
	h := NewTestHelper(t)
	res := h.RunGitsage(t.TempDir(), "--version")
	h.AssertExitCode(res, 0)
	assert.Contains(t, res.Stdout, "gitsage version")
}

func TestE2E_NotARepository(t *testing.T) {
	h := NewTestHelper(t)
	res := h.RunGitsage(t.TempDir())
	h.AssertExitCode(res, 2)
	assert.Empty(t, res.Stdout)
	assert.Contains(t, res.Stderr, "Error:")
}

func TestE2E_NoChanges(t *testing.T) {
	h := NewTestHelper(t)
	repo := h.CreateGitRepo(DefaultRepoConfig())

	res := h.RunGitsage(repo)
	h.AssertExitCode(res, 3)
	assert.Empty(t, res.Stdout)
}

func TestE2E_StagedModificationAttributed(t *testing.T) {
	h := NewTestHelper(t)
	repo := h.CreateGitRepo(DefaultRepoConfig())

	h.AddFile(repo, "main.go", goFile, true)
	h.CommitAs(repo, "Bob", "bob@example.com", "feat: add main")

	h.AddFile(repo, "main.go", goFileChanged, true)
	// 未暂存的文件不应出现在 staged-only 输出中
	h.AddFile(repo, "scratch.txt", "scratch\n", false)

	res := h.RunGitsage(repo)
	h.AssertExitCode(res, 0)

	assert.Contains(t, res.Stdout, "diff --git a/main.go b/main.go")
	assert.Contains(t, res.Stdout, `+	println("two")`)
	assert.NotContains(t, res.Stdout, "scratch.txt")
	assert.NotContains(t, res.Stdout, "# Staged changes:")
	assert.Contains(t, res.Stdout, "modified 2 lines (5, 6)")
}

// 同一文件既有暂存修改又有未暂存修改时，行号以工作区为准
func TestE2E_StagedLineWithUnstagedEditsAbove(t *testing.T) {
	h := NewTestHelper(t)
	repo := h.CreateGitRepo(DefaultRepoConfig())

	h.AddFile(repo, "f.txt", "l1\nl2\nl3\n", true)
	h.CommitAs(repo, "Bob", "bob@example.com", "feat: add f")

	h.AddFile(repo, "f.txt", "l1\nl2\nl3\nstaged\n", true)
	h.AddFile(repo, "f.txt", "u1\nu2\nl1\nl2\nl3\nstaged\n", false)

	res := h.RunGitsage(repo, "--blame-only")
	h.AssertExitCode(res, 0)

	assert.Contains(t, res.Stdout, "modified 1 line (6)")
	assert.NotContains(t, res.Stdout, "Bob")
}

func TestE2E_AllCategories(t *testing.T) {
	h := NewTestHelper(t)
	repo := h.CreateGitRepo(DefaultRepoConfig())

	h.AddFile(repo, "main.go", goFile, true)
	h.AddFile(repo, "old.txt", "gone\n", true)
	h.CommitAs(repo, "Bob", "bob@example.com", "feat: add files")

	h.AddFile(repo, "main.go", goFileChanged, true)
	h.AddFile(repo, "notes.txt", "hello\n", false)
	require.NoError(t, os.Remove(filepath.Join(repo, "old.txt")))

	res := h.RunGitsage(repo, "--all")
	h.AssertExitCode(res, 0)

	out := res.Stdout
	staged := strings.Index(out, "# Staged changes:")
	untracked := strings.Index(out, "# New files:")
	deleted := strings.Index(out, "# Deleted files:")
	require.GreaterOrEqual(t, staged, 0, out)
	require.Greater(t, untracked, staged, out)
	require.Greater(t, deleted, untracked, out)
	assert.Contains(t, out, "new file mode 100644")
	assert.Contains(t, out, "+hello")
	assert.Contains(t, out, "New file: notes.txt")
}

func TestE2E_DiffOnlyAndBlameOnly(t *testing.T) {
	h := NewTestHelper(t)
	repo := h.CreateGitRepo(DefaultRepoConfig())

	h.AddFile(repo, "main.go", goFile, true)
	h.CommitAs(repo, "Bob", "bob@example.com", "feat: add main")
	h.AddFile(repo, "main.go", goFileChanged, true)

	diffOnly := h.RunGitsage(repo, "--diff-only")
	h.AssertExitCode(diffOnly, 0)
	assert.Contains(t, diffOnly.Stdout, "diff --git")
	assert.NotContains(t, diffOnly.Stdout, "modified")

	blameOnly := h.RunGitsage(repo, "--blame-only")
	h.AssertExitCode(blameOnly, 0)
	assert.NotContains(t, blameOnly.Stdout, "diff --git")
	assert.Contains(t, blameOnly.Stdout, "modified 2 lines (5, 6)")
}

func TestE2E_PromptUsesConfig(t *testing.T) {
	h := NewTestHelper(t)
	repo := h.CreateGitRepo(DefaultRepoConfig())
	h.WriteConfig(`
commit:
  commitLanguage: japanese
  commitFormat: angular
`)

	h.AddFile(repo, "main.go", goFile, true)

	res := h.RunGitsage(repo, "--prompt")
	h.AssertExitCode(res, 0)
	assert.Contains(t, res.Stdout, "コミットメッセージを日本語で書いてください。")
	assert.Contains(t, res.Stdout, "Git diff to analyze:")
	assert.Contains(t, res.Stdout, "New file: main.go")
}

func TestE2E_InvalidConfig(t *testing.T) {
	h := NewTestHelper(t)
	repo := h.CreateGitRepo(DefaultRepoConfig())
	h.WriteConfig(`
analysis:
  workers: 1000
`)
	h.AddFile(repo, "main.go", goFile, true)

	res := h.RunGitsage(repo)
	h.AssertExitCode(res, 6)
}
