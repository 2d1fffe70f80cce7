package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/gitsage/collector"
	sageerrors "github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/pipeline"
	"github.com/penwyp/gitsage/internal/process"
	"github.com/penwyp/gitsage/internal/process/processtest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resetCommand 恢复注入的依赖并清空上一次执行留下的参数状态。
func resetCommand(t *testing.T) string {
	t.Helper()

	origRunner, origPipeline, origTerminal, origWatcher := runnerProvider, pipelineRunner, isTerminal, repositoryWatcher
	t.Cleanup(func() {
		runnerProvider, pipelineRunner, isTerminal, repositoryWatcher = origRunner, origPipeline, origTerminal, origWatcher
	})
	isTerminal = func(io.Writer) bool { return false }

	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)

	return filepath.Join(t.TempDir(), "config.yaml")
}

// execute 以给定参数执行根命令，返回 stdout 与 stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// stubPipeline 替换 pipelineRunner，记录收到的参数
func stubPipeline(res *pipeline.Result, err error) *[]pipeline.Options {
	var calls []pipeline.Options
	pipelineRunner = func(_ context.Context, opts pipeline.Options) (*pipeline.Result, error) {
		calls = append(calls, opts)
		return res, err
	}
	return &calls
}

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Repo:       collector.Repository{Root: "/repo"},
		Diff:       "diff --git a/main.go b/main.go\n+hello",
		Files:      []string{"main.go"},
		OnlyStaged: true,
		Report:     "Alice <a@x.com> modified 1 line (3)",
	}
}

func TestRoot_Version(t *testing.T) {
	cfgPath := resetCommand(t)
	calls := stubPipeline(sampleResult(), nil)

	out, _, err := execute(t, "--config", cfgPath, "--version")
	require.NoError(t, err)
	assert.Equal(t, GetVersionString()+"\n", out)
	assert.Empty(t, *calls)
}

func TestRoot_DefaultOutput(t *testing.T) {
	cfgPath := resetCommand(t)
	calls := stubPipeline(sampleResult(), nil)

	out, errOut, err := execute(t, "--config", cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "diff --git a/main.go b/main.go\n+hello\n\nBlame attribution:\nAlice <a@x.com> modified 1 line (3)\n", out)
	assert.Empty(t, errOut)

	require.Len(t, *calls, 1)
	opts := (*calls)[0]
	assert.True(t, opts.OnlyStaged)
	assert.False(t, opts.ForceAll)
	assert.Equal(t, 4, opts.Workers)
	assert.False(t, opts.SkipBlame)
	assert.NotNil(t, opts.Runner)
}

func TestRoot_OutputSelection(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "diff only",
			args:     []string{"--diff-only"},
			contains: []string{"+hello"},
			excludes: []string{"Alice"},
		},
		{
			name:     "blame only",
			args:     []string{"--blame-only"},
			contains: []string{"Alice <a@x.com> modified 1 line (3)"},
			excludes: []string{"+hello"},
		},
		{
			name:     "prompt",
			args:     []string{"--prompt", "--lang", "Chinese", "--format", "emoji"},
			contains: []string{"Git diff to analyze:", "Git blame analysis:", "请用中文写提交信息。", "+hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := resetCommand(t)
			stubPipeline(sampleResult(), nil)

			out, _, err := execute(t, append([]string{"--config", cfgPath}, tt.args...)...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRoot_DiffOnlySkipsBlame(t *testing.T) {
	cfgPath := resetCommand(t)
	calls := stubPipeline(sampleResult(), nil)

	_, _, err := execute(t, "--config", cfgPath, "--diff-only")
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.True(t, (*calls)[0].SkipBlame)
}

func TestRoot_ConfigFileAndFlagOverrides(t *testing.T) {
	cfgPath := resetCommand(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
commit:
  onlyStagedChanges: false
analysis:
  workers: 8
  expandDeletedFiles: true
`), 0o644))
	calls := stubPipeline(sampleResult(), nil)

	_, _, err := execute(t, "--config", cfgPath, "-w", "2", "--all")
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	opts := (*calls)[0]
	assert.False(t, opts.OnlyStaged)
	assert.True(t, opts.ForceAll)
	assert.True(t, opts.ExpandDeleted)
	assert.Equal(t, 2, opts.Workers)
}

func TestRoot_InvalidFlagValue(t *testing.T) {
	cfgPath := resetCommand(t)
	calls := stubPipeline(sampleResult(), nil)

	_, _, err := execute(t, "--config", cfgPath, "--prompt", "--lang", "klingon")
	require.Error(t, err)
	assert.ErrorIs(t, err, sageerrors.ErrInvalidConfig)
	assert.Empty(t, *calls)
}

func TestRoot_MutuallyExclusiveFlags(t *testing.T) {
	cfgPath := resetCommand(t)
	stubPipeline(sampleResult(), nil)

	_, _, err := execute(t, "--config", cfgPath, "--diff-only", "--blame-only")
	assert.Error(t, err)
}

func TestRoot_PipelineErrorPropagates(t *testing.T) {
	cfgPath := resetCommand(t)
	stubPipeline(nil, sageerrors.ErrNoChanges)

	out, _, err := execute(t, "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, sageerrors.ErrNoChanges)
	assert.Empty(t, out)

	h := sageerrors.NewErrorHandler()
	assert.Equal(t, sageerrors.ExitCodeNoChanges, h.Handle(err).ExitCode)
}

func TestRoot_EndToEndWithScriptedGit(t *testing.T) {
	cfgPath := resetCommand(t)
	r, _ := scriptedRepo(t)
	runnerProvider = func(*zap.Logger) process.Runner { return r }

	out, _, err := execute(t, "--config", cfgPath, "--blame-only")
	require.NoError(t, err)
	assert.Equal(t, "Alice <a@x.com> modified 2 lines (10, 11)\n", out)
}

func TestRoot_TimeoutMapsToExitCode(t *testing.T) {
	cfgPath := resetCommand(t)
	pipelineRunner = func(ctx context.Context, _ pipeline.Options) (*pipeline.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	// 超时以秒为单位，这里只验证 ctx 被设置了截止时间
	done := make(chan error, 1)
	go func() {
		_, _, err := execute(t, "--config", cfgPath, "--timeout", "1")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, sageerrors.ExitCodeTimeout, sageerrors.NewErrorHandler().Handle(err).ExitCode)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout was not applied")
	}
}

func TestRenderStatusBar(t *testing.T) {
	assert.Contains(t, renderStatusBar("Created config", true), "✓ Created config")
	assert.Contains(t, renderStatusBar("Watching /repo", false), "▶ Watching /repo")
}

// ---------------- 脚本化的 git 仓库 ----------------

const (
	aliceHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bobHash   = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

const scriptedDiff = "diff --git a/main.go b/main.go\n" +
	"index 1111111..2222222 100644\n" +
	"--- a/main.go\n" +
	"+++ b/main.go\n" +
	"@@ -9,0 +10,2 @@ func main() {\n" +
	"+\tfmt.Println(\"a\")\n" +
	"+\tfmt.Println(\"b\")\n"

func scriptedBlame() string {
	var sb strings.Builder
	for i := 1; i <= 11; i++ {
		hash, name, mail := bobHash, "Bob", "b@x.com"
		if i >= 10 {
			hash, name, mail = aliceHash, "Alice", "a@x.com"
		}
		fmt.Fprintf(&sb, "%s %d %d 1\nauthor %s\nauthor-mail <%s>\nauthor-time 1700000000\nfilename main.go\n\tline %d\n",
			hash, i, i, name, mail, i)
	}
	return sb.String()
}

// scriptedRepo 一个只有 main.go 被暂存修改的仓库，root 为真实目录
func scriptedRepo(t *testing.T) (*processtest.FakeRunner, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	r := processtest.NewFakeRunner().
		OK("true\n", "rev-parse", "--is-inside-work-tree").
		OK(root+"\n", "rev-parse", "--show-toplevel").
		OK(filepath.Join(root, ".git")+"\n", "rev-parse", "--absolute-git-dir").
		OK("abc\n", "rev-parse", "HEAD").
		OK("main.go\n", "diff", "--cached", "--name-only").
		OK("100644 1111111 0\tmain.go\n", "ls-files", "--stage", "--", "main.go").
		OK(scriptedDiff, "diff", "--cached", "--", "main.go").
		OK("M  main.go\n", "status", "--porcelain").
		OK("", "cat-file", "-e", "HEAD:main.go").
		OK(scriptedBlame(), "blame", "--line-porcelain", "main.go").
		OK(scriptedDiff, "diff", "--cached", "--unified=0", "--", "main.go").
		OK("", "diff", "--unified=0", "--", "main.go")
	return r, root
}
