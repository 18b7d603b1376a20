package worktree

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// StaleCheck is the result of IsStale.
type StaleCheck struct {
	Stale  bool
	Reason string
}

// IsStale reports whether the worktree at worktreePath is stale: its
// directory no longer exists, or the adapter itself already marks it
// prunable. The adapter's own ListWorktrees is the source of truth for
// "prunable" (it runs `git worktree list --porcelain` or equivalent);
// this function folds in the directory-missing case on top, normalizing
// worktreePath to its deepest existing ancestor first so a worktree whose
// directory was deleted out from under Git is still detected as stale
// even when Git hasn't noticed yet.
func IsStale(ctx context.Context, reader gitadapter.Reader, repoPath, worktreePath string) (StaleCheck, error) {
	normalized := deepestExistingAncestor(worktreePath)
	if _, err := os.Stat(worktreePath); err != nil {
		if os.IsNotExist(err) {
			return StaleCheck{Stale: true, Reason: "worktree directory is missing"}, nil
		}
		return StaleCheck{}, err
	}

	worktrees, err := reader.ListWorktrees(ctx, repoPath, gitadapter.ListWorktreesOptions{SkipDirtyCheck: true, SkipConflictCheck: true})
	if err != nil {
		return StaleCheck{}, err
	}
	for _, wt := range worktrees {
		if wt.Path == worktreePath || wt.Path == normalized {
			if wt.IsStale {
				return StaleCheck{Stale: true, Reason: "adapter reports worktree as prunable"}, nil
			}
			return StaleCheck{Stale: false}, nil
		}
	}
	// Not listed by the adapter at all: treat as stale rather than
	// assuming liveness for a worktree Git itself doesn't know about.
	return StaleCheck{Stale: true, Reason: "adapter does not recognize this worktree"}, nil
}

// deepestExistingAncestor resolves symlinks on worktreePath; if the path
// itself is missing, it walks up to the deepest ancestor directory that
// still exists, since a fully-deleted worktree directory can't be
// symlink-resolved directly.
func deepestExistingAncestor(worktreePath string) string {
	if resolved, err := filepath.EvalSymlinks(worktreePath); err == nil {
		return resolved
	}
	dir := worktreePath
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return resolved
		}
	}
}
