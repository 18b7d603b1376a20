package govcs

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
)

// parseWorktreePorcelain parses `git worktree list --porcelain` output: one
// blank-line-separated record per worktree, each a sequence of
// "<key>[ <value>]" lines. The first worktree listed is always the main
// one. A record carrying a "prunable" line is a stale worktree (its
// directory may be gone or its lock broken); the executor's preflight
// treats that the same as a missing directory.
func parseWorktreePorcelain(output string) []domain.Worktree {
	var worktrees []domain.Worktree
	var cur *domain.Worktree
	flush := func() {
		if cur != nil {
			worktrees = append(worktrees, *cur)
			cur = nil
		}
	}
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			flush()
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "worktree":
			flush()
			cur = &domain.Worktree{Path: value}
		case "HEAD":
			if cur != nil {
				cur.HeadSha = plumbing.NewHash(value)
			}
		case "branch":
			if cur != nil {
				cur.Branch = plumbing.ReferenceName(value)
			}
		case "prunable":
			if cur != nil {
				cur.IsStale = true
			}
		}
	}
	flush()
	if len(worktrees) > 0 {
		worktrees[0].IsMain = true
	}
	return worktrees
}
