package domain

import "github.com/go-git/go-git/v5/plumbing"

// BranchAnnotation is a branch whose head lands on a particular UiCommit.
type BranchAnnotation struct {
	Name        string
	IsCurrent   bool
	PullRequest *UiPullRequest

	// IsMerged is set by the caller (typically by combining forge state
	// with the merged-branch detector) when known; nil means unknown.
	IsMerged *bool
}

// UiPullRequest is the subset of PullRequest surfaced on a BranchAnnotation,
// plus a derived IsInSync flag.
type UiPullRequest struct {
	Number      int64
	State       PullRequestState
	Permalink   string
	IsInSync    bool
}

// RebaseStatus annotates a UiCommit with the rebase job state affecting it,
// if any job in an active session targets this commit's branch.
type RebaseStatus struct {
	JobStatus JobStatus
}

// UiCommit is one commit's projection within a UiStack.
type UiCommit struct {
	Sha          plumbing.Hash
	Subject      string
	AuthoredAtMs int64
	IsCurrent    bool

	Branches []BranchAnnotation

	RebaseStatus *RebaseStatus

	Spinoffs []*UiStack
}

// UiStack is a rooted, ordered sequence of UiCommit: the trunk spine, or one
// spinoff lane. Exactly one top-level UiStack (the one returned by
// BuildUiStack) has IsTrunk true; every *UiStack reachable through Commits[
// i].Spinoffs is a non-trunk stack.
type UiStack struct {
	IsTrunk bool
	Commits []*UiCommit
}
