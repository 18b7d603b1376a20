package domain

import "github.com/go-git/go-git/v5/plumbing"

// StackMutation is emitted by CompleteJob for the caller to apply against
// its own branch metadata store (e.g. updating a branch's recorded parent
// and head after a successful rebase).
type StackMutation struct {
	Branch     plumbing.ReferenceName
	NewBaseSha plumbing.Hash
	NewHeadSha plumbing.Hash
}
