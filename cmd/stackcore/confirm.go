package main

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/rebase"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <head-branch> <base-branch>",
	Short: "start a rebase session moving head-branch (and its stacked descendants) onto base-branch",
	Args:  cobra.ExactArgs(2),
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
		if store.Has(repoPath) {
			return &coreerrors.Validation{Reason: "session-exists", Message: "a rebase session is already in progress; run `step` or `cancel` first"}
		}

		snapshot, err := getSnapshot(ctx, repoPath)
		if err != nil {
			return err
		}
		reader := getAdapter()

		headSha, err := resolveTarget(ctx, reader, repoPath, snapshot, args[0])
		if err != nil {
			return err
		}
		baseSha, err := resolveTarget(ctx, reader, repoPath, snapshot, args[1])
		if err != nil {
			return err
		}

		intent, err := rebase.BuildIntent(snapshot, headSha, baseSha, newIntentID(), nowMs())
		if err != nil {
			return err
		}

		now := nowMs()
		sessionID := newSessionID()
		state := rebase.Start(sessionID, intent, initialTrunkSha(snapshot), now, genJobID)

		stored := domain.StoredRebaseSession{
			SchemaVersion:  domain.CurrentSchemaVersion,
			Intent:         intent,
			State:          state,
			CreatedAtMs:    now,
			UpdatedAtMs:    now,
			OriginalBranch: snapshot.WorkingTree.CurrentBranch,
		}
		if err := store.Create(repoPath, stored); err != nil {
			return err
		}

		fmt.Printf("started rebase session %s with %d job(s); run `stackcore step` to advance it\n", sessionID, len(state.Queue.PendingJobIDs))
		return nil
	},
}

// initialTrunkSha returns the head sha of the snapshot's trunk branch, so
// an aborted session has a recorded point to restore the trunk ref to.
// Returns the zero hash if no branch is marked trunk.
func initialTrunkSha(snapshot domain.RepoSnapshot) plumbing.Hash {
	for _, b := range snapshot.Branches {
		if b.IsTrunk {
			return b.HeadSha
		}
	}
	return plumbing.ZeroHash
}
