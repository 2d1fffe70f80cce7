package collector

import (
	"context"

	"github.com/penwyp/gitsage/internal/process"
)

// GitReader provides read-only git queries rooted at one repository.
//
// Methods map onto git commands:
//   - HasHead: `git rev-parse HEAD`
//   - Status: `git status --porcelain`
//   - TrackedAtHead: `git cat-file -e HEAD:<file>`
//   - Exec: any git invocation, non-zero exit converted to *errors.CommandError
//
// Example usage:
//
//	git := collector.NewGit(runner, repo.Root, logger)
//	status, err := git.Status(ctx)
//	if err != nil {
//		return fmt.Errorf("failed to read status: %w", err)
//	}
type GitReader interface {
	Dir() string
	HasHead(ctx context.Context) bool
	Status(ctx context.Context) (Status, error)
	TrackedAtHead(ctx context.Context, file string) (bool, error)
	Exec(ctx context.Context, args ...string) (process.Result, error)
}

// ChangeSetCollector assembles the combined diff and the changed file list.
//
// Example usage:
//
//	col := collector.New(runner, repo)
//	set, err := col.Collect(ctx, true)
//	if errors.Is(err, sageerrors.ErrNoChanges) {
//		fmt.Println("Nothing to report.")
//	}
type ChangeSetCollector interface {
	// Probe reports which of the four change categories are present.
	Probe(ctx context.Context) Probe

	// Collect returns the diff text and the changed files.
	// Returns errors.ErrNoChanges when every category is empty.
	Collect(ctx context.Context, onlyStaged bool) (*ChangeSet, error)

	// CollectProbed reuses a Probe result obtained by the caller.
	CollectProbed(ctx context.Context, probe Probe, onlyStaged bool) (*ChangeSet, error)

	// ChangedFiles parses `git status --porcelain` in upstream order.
	ChangedFiles(ctx context.Context, onlyStaged bool) ([]string, error)
}

var (
	_ GitReader          = (*Git)(nil)
	_ ChangeSetCollector = (*Collector)(nil)
)
