package executor

import (
	"context"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/gitadapter"
	"github.com/aviator-co/stackcore/internal/sessionstore"
)

// Finalize runs once a session reaches a terminal status: its store entry
// is removed. An aborted session additionally
// asks the adapter to unwind any in-progress rebase before the entry is
// dropped. A session that is still running or awaiting-user is left
// untouched.
func Finalize(ctx context.Context, adapter gitadapter.Mutator, store *sessionstore.Store, repoPath string, state domain.RebaseState) error {
	switch state.Session.Status {
	case domain.SessionCompleted:
		return store.Clear(repoPath)
	case domain.SessionAborted:
		if err := adapter.RebaseAbort(ctx, repoPath); err != nil {
			return &coreerrors.AdapterError{Command: "rebase-abort", Message: err.Error(), Cause: err}
		}
		return store.Clear(repoPath)
	default:
		return nil
	}
}
