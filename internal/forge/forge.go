// Package forge defines the read-only PR metadata and merge-side-effect
// boundary this module uses, separate from internal/gitadapter: one talks
// to the local repository, the other to the remote forge.
package forge

import (
	"context"

	"github.com/aviator-co/stackcore/internal/domain"
)

// CreatePullRequestOptions configures CreatePullRequest.
type CreatePullRequestOptions struct {
	Title string
	Head  string
	Base  string
	Draft bool
}

// MergeStrategy mirrors GitHub's three pull-request merge strategies.
type MergeStrategy string

const (
	MergeStrategyMerge  MergeStrategy = "merge"
	MergeStrategySquash MergeStrategy = "squash"
	MergeStrategyRebase MergeStrategy = "rebase"
)

// Forge is the capability this module depends on for pull-request state
// and the one side effect (merging a PR) the rebase executor needs to
// coordinate with. Implementations wrap a specific forge (githubforge is
// the only one this module ships); callers depend on this interface, not
// a concrete forge, so a different forge backend can be substituted
// without touching the code that coordinates with it.
type Forge interface {
	FetchState(ctx context.Context) (domain.ForgeState, error)
	CreatePullRequest(ctx context.Context, opts CreatePullRequestOptions) (domain.PullRequest, error)
	MergePullRequest(ctx context.Context, number int, strategy MergeStrategy) error
	ClosePullRequest(ctx context.Context, number int) error
	DeleteRemoteBranch(ctx context.Context, name string) error
}
