// Package domain holds the normalized, in-memory value types that the rest
// of the module operates on: commits, branches, working-tree status,
// worktrees, repository snapshots, forge pull requests, the projected
// UiStack, and the rebase intent/session/job types.
//
// Everything here is a plain value. None of these types hold behavior beyond
// small derived accessors; the reasoning lives in internal/stackproj,
// internal/permission, internal/rebase, internal/projected and
// internal/executor.
package domain

import "github.com/go-git/go-git/v5/plumbing"

// Commit is immutable by identity: its Sha never changes once observed.
type Commit struct {
	Sha plumbing.Hash

	// Subject is the first line of the commit message.
	Subject string

	// AuthoredAtMs is milliseconds since the Unix epoch.
	AuthoredAtMs int64

	// ParentSha is the zero hash if this is a root commit.
	ParentSha plumbing.Hash

	// ChildrenSha is derived: the inverse of ParentSha across the loaded
	// set of commits. Multi-parent (merge) commits are modeled with a
	// single ParentSha (the first parent) since they are not stacks and
	// are never restructured by this module.
	ChildrenSha []plumbing.Hash
}

func (c Commit) IsRoot() bool {
	return c.ParentSha.IsZero()
}
