package worktree

import (
	"os"
	"path/filepath"
)

// CleanupStaleRebaseFiles removes AUTO_MERGE, REBASE_HEAD, and ORIG_HEAD
// from gitDir on a best-effort basis, but only when no rebase is actually
// in progress (neither rebase-merge/ nor rebase-apply/ exists) — those
// files are meaningful while a rebase is active and must not be touched
// then.
func CleanupStaleRebaseFiles(gitDir string) {
	if rebaseInProgress(gitDir) {
		return
	}
	for _, name := range []string{"AUTO_MERGE", "REBASE_HEAD", "ORIG_HEAD"} {
		_ = os.Remove(filepath.Join(gitDir, name))
	}
}

func rebaseInProgress(gitDir string) bool {
	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		if info, err := os.Stat(filepath.Join(gitDir, dir)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}
