package domain

import "github.com/go-git/go-git/v5/plumbing"

// WorkingTree describes the state of the working directory attached to the
// active worktree.
type WorkingTree struct {
	// CurrentBranch is empty when HEAD is detached.
	CurrentBranch     plumbing.ReferenceName
	CurrentCommitSha  plumbing.Hash
	Tracking          plumbing.ReferenceName // empty if there is no upstream
	Detached          bool
	IsRebasing        bool

	Staged      []string
	Modified    []string
	Created     []string
	Deleted     []string
	Renamed     []string
	Untracked   []string
	Conflicted  []string
}

// Union returns the (deduplicated) set of all paths touched by any of the
// disjoint file sets, including Conflicted.
func (wt WorkingTree) Union() []string {
	seen := make(map[string]bool)
	var all []string
	add := func(paths []string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				all = append(all, p)
			}
		}
	}
	add(wt.Staged)
	add(wt.Modified)
	add(wt.Created)
	add(wt.Deleted)
	add(wt.Renamed)
	add(wt.Untracked)
	add(wt.Conflicted)
	return all
}

// IsClean reports whether the working tree has no staged, modified,
// created, deleted, renamed, or conflicted files. Untracked files are
// ignored.
func (wt WorkingTree) IsClean() bool {
	return len(wt.Staged) == 0 &&
		len(wt.Modified) == 0 &&
		len(wt.Created) == 0 &&
		len(wt.Deleted) == 0 &&
		len(wt.Renamed) == 0 &&
		len(wt.Conflicted) == 0
}

// Worktree describes one working-directory checkout attached to a
// repository. Multiple worktrees may coexist; Path uniquely identifies one.
type Worktree struct {
	Path     string
	HeadSha  plumbing.Hash
	Branch   plumbing.ReferenceName // empty if detached
	IsMain   bool
	IsStale  bool

	IsDirty         bool
	ConflictedFiles []string
}
