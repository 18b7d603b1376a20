package worktree

import (
	"context"
	"strings"

	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// Prune asks the adapter to prune stale worktree administrative files for
// repoPath. A concurrent prune (another process winning the race) is
// tolerated rather than surfaced as an error.
func Prune(ctx context.Context, mutator gitadapter.Mutator, repoPath string) error {
	err := mutator.PruneWorktrees(ctx, repoPath)
	if err == nil {
		return nil
	}
	if isConcurrentModification(err) {
		return nil
	}
	return err
}

func isConcurrentModification(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already") || strings.Contains(msg, "in use") || strings.Contains(msg, "no such file or directory")
}
