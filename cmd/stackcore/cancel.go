package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/executor"
	"github.com/aviator-co/stackcore/internal/rebase"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "abort the in-progress rebase session and unwind any partial apply",
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

		aborted := rebase.Abort(stored.State, nowMs())
		if err := executor.Finalize(ctx, getAdapter(), store, repoPath, aborted); err != nil {
			return err
		}

		fmt.Println("rebase session aborted")
		return nil
	},
}
