// Package executor drives the rebase state machine (internal/rebase)
// against a gitadapter.Adapter, one active job at a time, handling the
// worktree pre-flight, the fast-forward/patch apply decision, and
// restoring any worktrees it had to detach.
package executor

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/gitadapter"
	"github.com/aviator-co/stackcore/internal/rebase"
	"github.com/aviator-co/stackcore/internal/utils/cleanup"
	"github.com/aviator-co/stackcore/internal/worktree"
)

// Executor drives jobs of a single rebase session against one repository.
type Executor struct {
	Adapter  gitadapter.Adapter
	Resolver *worktree.GitDirResolver
}

// StepOutcome is the result of running the session's current active job to
// either completion or an awaiting-user halt.
type StepOutcome struct {
	State          domain.RebaseState
	Mutations      []domain.StackMutation
	AutoDetached   []string // worktree paths newly detached by this step
	AwaitingUser   bool
}

// Step pops the next queued job (if none is active), runs it through
// pre-flight, apply, and outcome handling, and returns the resulting
// state. If the active job's apply reports conflicts, the session is left
// awaiting-user and StepOutcome.AwaitingUser is true; the caller must not
// call Step again until Resume has been applied externally.
func (e *Executor) Step(ctx context.Context, repoPath string, state domain.RebaseState, now int64, genJobID rebase.JobIDGenerator) (StepOutcome, error) {
	if state.Queue.ActiveJobID == "" {
		_, next, ok := rebase.NextJob(state)
		if !ok {
			return StepOutcome{State: state}, nil
		}
		state = next
	}

	jobID := state.Queue.ActiveJobID
	job := *state.JobsByID[jobID]

	detached, err := e.preflight(ctx, repoPath, job.Branch)
	if err != nil {
		return StepOutcome{}, err
	}

	// A worktree detached during preflight must not be left stranded if
	// anything below fails outright; this runs only on error returns,
	// since a conflict (awaiting-user) return deliberately leaves the
	// worktree detached until the branch itself has moved.
	var cu cleanup.Cleanup
	cu.Add(func() {
		if restoreErr := e.restore(ctx, repoPath, job.Branch, detached); restoreErr != nil {
			logrus.WithError(restoreErr).WithField("branch", job.Branch).Warn("failed to restore detached worktree after a failed step")
		}
	})
	defer cu.Cleanup()

	var outcome StepOutcome
	outcome.AutoDetached = detached

	if job.TargetBaseSha == job.OriginalBaseSha {
		// Nothing to move; the branch is already based where it needs to
		// be, so this job completes as a no-op fast-forward.
		next, mutations, err := rebase.CompleteJob(state, jobID, job.OriginalHeadSha, domain.BackendFastForward, now, nil, genJobID)
		if err != nil {
			return StepOutcome{}, err
		}
		if err := e.restore(ctx, repoPath, job.Branch, detached); err != nil {
			return StepOutcome{}, err
		}
		cu.Cancel()
		outcome.State = next
		outcome.Mutations = mutations
		return outcome, nil
	}

	var applyResult gitadapter.ApplyResult
	if len(job.Conflicts) > 0 {
		// This job was popped back to applying by rebase.Resume: it is
		// already mid-am on repoPath with the user's conflict resolutions
		// staged, so the move continues the existing am rather than
		// re-checking-out the base and re-applying the patch from scratch.
		applyResult, err = e.Adapter.ContinueApply(ctx, repoPath)
		if err != nil {
			return StepOutcome{}, &coreerrors.AdapterError{Command: "am-continue", Message: err.Error(), Cause: err}
		}
	} else {
		if err := e.Adapter.Checkout(ctx, repoPath, job.TargetBaseSha.String(), gitadapter.CheckoutOptions{Force: false}); err != nil {
			return StepOutcome{}, &coreerrors.AdapterError{Command: "checkout", Message: err.Error(), Cause: err}
		}

		patch, err := e.Adapter.FormatPatch(ctx, repoPath, job.OriginalBaseSha.String()+".."+job.OriginalHeadSha.String())
		if err != nil {
			return StepOutcome{}, &coreerrors.AdapterError{Command: "format-patch", Message: err.Error(), Cause: err}
		}

		applyResult, err = e.Adapter.ApplyPatch(ctx, repoPath, patch)
		if err != nil {
			return StepOutcome{}, &coreerrors.AdapterError{Command: "apply", Message: err.Error(), Cause: err}
		}
	}

	if !applyResult.Success {
		next, err := rebase.RecordConflict(state, jobID, applyResult.Conflicts, now)
		if err != nil {
			return StepOutcome{}, err
		}
		cu.Cancel()
		outcome.State = next
		outcome.AwaitingUser = true
		return outcome, nil
	}

	newHead, err := e.Adapter.ResolveRef(ctx, repoPath, "HEAD")
	if err != nil {
		return StepOutcome{}, &coreerrors.AdapterError{Command: "resolve-ref", Message: err.Error(), Cause: err}
	}

	rewrites := []domain.CommitRewrite{{Branch: job.Branch, OldSha: job.OriginalHeadSha, NewSha: newHead}}
	next, mutations, err := rebase.CompleteJob(state, jobID, newHead, domain.BackendApply, now, rewrites, genJobID)
	if err != nil {
		return StepOutcome{}, err
	}
	if err := e.restore(ctx, repoPath, job.Branch, detached); err != nil {
		return StepOutcome{}, err
	}
	cu.Cancel()

	outcome.State = next
	outcome.Mutations = mutations
	return outcome, nil
}

// preflight checks whether branch is checked out in another worktree: if
// that worktree is stale, it's pruned so the branch frees up; if it's live
// and dirty, a WorktreeConflict is returned; if live and clean, it's
// detached (checked out to its own detached head) so the branch can move,
// and its path is returned for later restoration.
func (e *Executor) preflight(ctx context.Context, repoPath string, branch plumbing.ReferenceName) ([]string, error) {
	worktrees, err := e.Adapter.ListWorktrees(ctx, repoPath, gitadapter.ListWorktreesOptions{})
	if err != nil {
		return nil, &coreerrors.AdapterError{Command: "worktree-list", Message: err.Error(), Cause: err}
	}

	for _, wt := range worktrees {
		if wt.IsMain || wt.Branch != branch {
			continue
		}

		check, err := worktree.IsStale(ctx, e.Adapter, repoPath, wt.Path)
		if err != nil {
			return nil, err
		}
		if check.Stale {
			if err := worktree.Prune(ctx, e.Adapter, repoPath); err != nil {
				return nil, err
			}
			continue
		}

		if wt.IsDirty {
			return nil, &coreerrors.WorktreeConflict{Branch: string(branch), WorktreePath: wt.Path, IsDirty: true}
		}

		if err := e.Adapter.Checkout(ctx, wt.Path, wt.HeadSha.String(), gitadapter.CheckoutOptions{}); err != nil {
			return nil, &coreerrors.AdapterError{Command: "checkout", Message: err.Error(), Cause: err}
		}
		logrus.WithField("branch", branch).WithField("worktree", wt.Path).Debug("detached worktree to free branch for rebase")
		return []string{wt.Path}, nil
	}
	return nil, nil
}

// restore re-attaches any worktree this step detached, back onto branch,
// now that the branch has safely moved.
func (e *Executor) restore(ctx context.Context, repoPath string, branch plumbing.ReferenceName, detachedPaths []string) error {
	for _, path := range detachedPaths {
		if err := e.Adapter.Checkout(ctx, path, string(branch), gitadapter.CheckoutOptions{}); err != nil {
			return &coreerrors.AdapterError{Command: "checkout", Message: err.Error(), Cause: err}
		}
	}
	return nil
}
