package worktree

import (
	"context"
	"regexp"

	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// worktreeConflictPattern matches the two phrasings Git uses when a ref is
// checked out elsewhere: "already used by worktree at <path>" and
// "checked out at <path>" / "checked out in worktree at <path>".
var worktreeConflictPattern = regexp.MustCompile(`(?:already used by worktree at|checked out(?: in worktree)? at) '?([^'\n]+)'?`)

// ParseWorktreeConflict extracts the worktree path from an adapter error
// message reporting that a ref is checked out elsewhere, if any.
func ParseWorktreeConflict(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	m := worktreeConflictPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return "", false
	}
	return m[1], true
}

// RetryWithPrune runs op; if op fails with an error that names a worktree
// holding the ref it needed, and that worktree turns out to be stale, it
// prunes and retries op once (or up to maxRetries times). Any other
// failure, or a conflicting worktree that turns out to be live, is
// returned immediately.
func RetryWithPrune(ctx context.Context, reader gitadapter.Reader, mutator gitadapter.Mutator, repoPath string, maxRetries int, op func() error) error {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		conflictPath, ok := ParseWorktreeConflict(err)
		if !ok {
			return err
		}
		check, checkErr := IsStale(ctx, reader, repoPath, conflictPath)
		if checkErr != nil || !check.Stale {
			return err
		}
		if pruneErr := Prune(ctx, mutator, repoPath); pruneErr != nil {
			return pruneErr
		}
	}
	return lastErr
}
