package domain

import "github.com/go-git/go-git/v5/plumbing"

// NodeState is the recursive shape describing a subtree of branches to move
// together: the branch at its head, the set of commits it owns (between its
// base and its head, exclusive/inclusive per stackproj's convention), and
// its own children (nested spinoffs).
type NodeState struct {
	Branch     plumbing.ReferenceName
	HeadSha    plumbing.Hash
	BaseSha    plumbing.Hash
	OwnedShas  []plumbing.Hash
	Children   []*NodeState
}

// Target pairs a NodeState with the base commit it should be rebased onto.
type Target struct {
	Node         *NodeState
	TargetBaseSha plumbing.Hash
}

// Intent is a user-facing description of the subtree(s) to move, not yet
// executed. It is input to either speculative projection (internal/projected)
// or session start (internal/rebase).
type Intent struct {
	ID           string
	CreatedAtMs  int64
	Targets      []Target
}
