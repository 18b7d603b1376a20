package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aviator-co/stackcore/internal/config"
	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/executor"
	"github.com/aviator-co/stackcore/internal/rebase"
	"github.com/aviator-co/stackcore/internal/sessionstore"
	"github.com/aviator-co/stackcore/internal/utils/errutils"
	"github.com/aviator-co/stackcore/internal/utils/sliceutils"
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "advance the in-progress rebase session by one job",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repoPath, err := getRepoPath(ctx)
		if err != nil {
			return err
		}
		store, err := getStore(repoPath)
		if err != nil {
			return err
		}
		stored, ok := store.Get(repoPath)
		if !ok {
			return &coreerrors.ConcurrencyConflict{Reason: "not_found"}
		}

		now := nowMs()
		state := stored.State

		if state.Queue.ActiveJobID != "" {
			if job := state.JobsByID[state.Queue.ActiveJobID]; job != nil && job.Status == domain.JobAwaitingUser {
				workingTree, err := getAdapter().GetWorkingTreeStatus(ctx, repoPath)
				if err != nil {
					return err
				}
				resumed, err := rebase.Resume(state, workingTree, now)
				if err != nil {
					abortOnInvariantViolation(ctx, store, repoPath, state, now, err)
					return err
				}
				state = resumed
			}
		}

		exec := &executor.Executor{Adapter: getAdapter(), Resolver: getResolver()}
		outcome, err := exec.Step(ctx, repoPath, state, now, genJobID)
		if err != nil {
			abortOnInvariantViolation(ctx, store, repoPath, state, now, err)
			return err
		}

		updated, err := sessionstore.UpdateWithRetry(store, repoPath, config.Core.Retry.MaxAttempts, func(current domain.StoredRebaseSession) domain.StoredRebaseSession {
			current.State = outcome.State
			current.UpdatedAtMs = now
			for _, path := range outcome.AutoDetached {
				current.AutoDetachedWorktrees = sliceutils.AppendIfNotContains(current.AutoDetachedWorktrees, path)
			}
			return current
		})
		if err != nil {
			return err
		}

		for _, m := range outcome.Mutations {
			fmt.Printf("moved %s onto %s (new head %s)\n", m.Branch.Short(), m.NewBaseSha.String()[:8], m.NewHeadSha.String()[:8])
		}

		switch updated.State.Session.Status {
		case domain.SessionAwaitingUser:
			activeJob := updated.State.JobsByID[updated.State.Queue.ActiveJobID]
			fmt.Printf("conflict rebasing %s: resolve the listed files, stage them, then run `stackcore step` again\n", activeJob.Branch.Short())
			for _, c := range activeJob.Conflicts {
				fmt.Printf("  %s\n", c.Path)
			}
		case domain.SessionCompleted:
			if err := executor.Finalize(ctx, getAdapter(), store, repoPath, updated.State); err != nil {
				return err
			}
			fmt.Println("rebase session completed")
		default:
			fmt.Printf("%d job(s) remaining\n", len(updated.State.Queue.PendingJobIDs))
		}
		return nil
	},
}

// abortOnInvariantViolation is a no-op unless cause is an InvariantViolation
// — a bug in the state machine itself, not a user-actionable error — in
// which case it aborts the session from state, persists the abort, unwinds
// any in-progress adapter-level rebase, and logs the failure, so the broken
// session doesn't stay wedged for the next `stackcore step` to trip over
// again. Persistence failures are logged rather than returned: cause is
// already the error the caller is about to surface, and it takes priority.
func abortOnInvariantViolation(ctx context.Context, store *sessionstore.Store, repoPath string, state domain.RebaseState, now int64, cause error) {
	if _, ok := errutils.As[*coreerrors.InvariantViolation](cause); !ok {
		return
	}

	log := logrus.WithField("repo", repoPath).WithField("session", state.Session.ID).WithError(cause)
	log.Error("aborting rebase session after invariant violation")

	aborted := rebase.Abort(state, now)
	updated, err := sessionstore.UpdateWithRetry(store, repoPath, config.Core.Retry.MaxAttempts, func(current domain.StoredRebaseSession) domain.StoredRebaseSession {
		current.State = aborted
		current.UpdatedAtMs = now
		return current
	})
	if err != nil {
		log.WithError(err).Error("failed to persist session abort after invariant violation")
		return
	}

	if err := executor.Finalize(ctx, getAdapter(), store, repoPath, updated.State); err != nil {
		log.WithError(err).Error("failed to unwind adapter state after aborting on invariant violation")
	}
}
