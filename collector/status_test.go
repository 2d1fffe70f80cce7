package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	out := " M leading-space.go\n" +
		"A  added.go\n" +
		"D  staged-delete.go\n" +
		" D worktree-delete.go\n" +
		"?? new.txt\n" +
		"R  a.go -> b.go\n" +
		"R100 c.go -> d.go\n" +
		"?? \"with space\\tand tab.txt\"\n" +
		"Entering 'vendor/lib'\n" +
		" M vendor/lib (Submodule changes)\n" +
		"Subproject commit 0123456789abcdef\n" +
		"?? docs/Submodule notes.md\n" +
		" M scripts/Entering.sh\n" +
		"\n"

	status := ParseStatus(out)
	require.Len(t, status, 10)

	assert.Equal(t, StatusEntry{Index: ' ', Worktree: 'M', Path: "leading-space.go"}, status[0])
	assert.True(t, status[1].IsNew())
	assert.True(t, status[1].IsStaged())
	assert.True(t, status[2].IsDeleted())
	assert.True(t, status[2].IsStaged())
	assert.True(t, status[3].IsDeleted())
	assert.False(t, status[3].IsStaged())
	assert.True(t, status[4].IsUntracked())
	assert.True(t, status[4].IsNew())
	assert.False(t, status[4].IsStaged())

	assert.Equal(t, "b.go", status[5].Path)
	assert.Equal(t, "a.go", status[5].OrigPath)
	assert.Equal(t, StatusEntry{Index: 'R', Worktree: ' ', Path: "d.go", OrigPath: "c.go"}, status[6])
	assert.Equal(t, "with space\tand tab.txt", status[7].Path)
	// 路径中的 Submodule/Entering 字样不影响条目
	assert.Equal(t, "docs/Submodule notes.md", status[8].Path)
	assert.True(t, status[8].IsUntracked())
	assert.Equal(t, StatusEntry{Index: ' ', Worktree: 'M', Path: "scripts/Entering.sh"}, status[9])
}

func TestIsSubmoduleLine(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"Entering 'vendor/lib'", true},
		{"Subproject commit 0123456789abcdef", true},
		{"Submodule path 'vendor/lib': checked out 'abc'", true},
		{" M vendor/lib (Submodule changes)", true},
		{"?? docs/Submodule notes.md", false},
		{" M Entering.go", false},
		{"A  pkg/Submodule/manager.go", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, isSubmoduleLine(tt.line))
		})
	}
}

func TestStatus_Lookup(t *testing.T) {
	status := ParseStatus("?? src/new.go\n M README.md\n")

	entry, ok := status.Lookup("/src/new.go")
	require.True(t, ok)
	assert.True(t, entry.IsNew())

	entry, ok = status.Lookup("./README.md")
	require.True(t, ok)
	assert.Equal(t, byte('M'), entry.Worktree)

	_, ok = status.Lookup("missing.go")
	assert.False(t, ok)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "a/b.go", NormalizePath("/a/b.go"))
	assert.Equal(t, "a/b.go", NormalizePath("a/./b.go"))
	assert.Equal(t, "a/b.go", NormalizePath(`a\b.go`))
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a.go", "dir/中文.txt"}, splitPaths("a.go\n\"dir/\\344\\270\\255\\346\\226\\207.txt\"\n\n"))
	assert.Nil(t, splitPaths(" \n"))
}
