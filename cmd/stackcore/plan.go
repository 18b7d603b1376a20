package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aviator-co/stackcore/internal/rebase"
)

var planCmd = &cobra.Command{
	Use:   "plan <head-branch> <base-branch>",
	Short: "preview the jobs a rebase session would run, without starting one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repoPath, err := getRepoPath(ctx)
		if err != nil {
			return err
		}
		snapshot, err := getSnapshot(ctx, repoPath)
		if err != nil {
			return err
		}

		headSha, err := resolveTarget(ctx, getAdapter(), repoPath, snapshot, args[0])
		if err != nil {
			return err
		}
		baseSha, err := resolveTarget(ctx, getAdapter(), repoPath, snapshot, args[1])
		if err != nil {
			return err
		}

		intent, err := rebase.BuildIntent(snapshot, headSha, baseSha, newIntentID(), nowMs())
		if err != nil {
			return err
		}

		plan := rebase.CreateRebasePlan(intent, jobIDGenForPlan())
		if len(plan.Jobs) == 0 {
			fmt.Println("nothing to rebase")
			return nil
		}
		for _, job := range plan.Jobs {
			fmt.Printf(
				"%*s%-5s %s -> %s (base %s)\n",
				job.Depth*2, "", "move", job.Branch.Short(), job.TargetBaseSha.String()[:8], job.OriginalBaseSha.String()[:8],
			)
		}
		return nil
	},
}
