package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/stackproj"
	"github.com/aviator-co/stackcore/internal/utils/colors"
	"github.com/aviator-co/stackcore/internal/utils/stackutils"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "show the stack of branches built on top of trunk",
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

		var forgeState *domain.ForgeState
		if f := getForge(ctx, repoPath); f != nil {
			state, err := f.FetchState(ctx)
			if err != nil {
				return err
			}
			forgeState = &state
		}

		ui, err := stackproj.BuildUiStack(snapshot, forgeState)
		if err != nil {
			return err
		}
		if ui == nil {
			fmt.Println("no stack found (no commits, or no trunk branch could be identified)")
			return nil
		}
		now := time.Now()
		render := func(commit *domain.UiCommit) string {
			return renderCommitAnnotation(commit, now)
		}
		fmt.Println(stackutils.RenderTree(ui, render))
		return nil
	},
}

// renderCommitAnnotation renders the branch names (and, if a rebase session
// has touched this commit, its job status) landing on one commit, along
// with a humanized relative age ("3 hours ago") measured against now.
func renderCommitAnnotation(commit *domain.UiCommit, now time.Time) string {
	var parts []string

	subject := commit.Subject
	if commit.IsCurrent {
		subject = colors.Bold(subject)
	}
	parts = append(parts, subject)

	age := humanize.RelTime(time.UnixMilli(commit.AuthoredAtMs), now, "ago", "from now")
	parts = append(parts, colors.Faint("("+age+")"))

	var names []string
	for _, b := range commit.Branches {
		name := b.Name
		if b.IsCurrent {
			name = colors.Success(name)
		} else {
			name = colors.UserInput(name)
		}
		if b.PullRequest != nil {
			name = fmt.Sprintf("%s (#%d %s)", name, b.PullRequest.Number, b.PullRequest.State)
		}
		names = append(names, name)
	}
	if len(names) > 0 {
		parts = append(parts, "["+strings.Join(names, ", ")+"]")
	}

	if commit.RebaseStatus != nil {
		parts = append(parts, colors.Warning("("+string(commit.RebaseStatus.JobStatus)+")"))
	}

	return strings.Join(parts, " ")
}
