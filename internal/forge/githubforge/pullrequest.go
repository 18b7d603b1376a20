package githubforge

import (
	"context"
	"strings"

	"github.com/shurcooL/githubv4"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/forge"
)

// pullRequest is the GraphQL shape this package queries a PR into.
type pullRequest struct {
	ID          string
	Number      int64
	HeadRefName string
	HeadRefOID  string
	BaseRefName string
	IsDraft     bool
	Mergeable   githubv4.MergeableState
	Merged      bool
	Permalink   string
	State       githubv4.PullRequestState
	Title       string
}

func (p pullRequest) headBranchName() string {
	return strings.TrimPrefix(p.HeadRefName, "refs/heads/")
}

func (p pullRequest) baseBranchName() string {
	return strings.TrimPrefix(p.BaseRefName, "refs/heads/")
}

func (p pullRequest) toDomain() domain.PullRequest {
	state := domain.PullRequestOpen
	switch {
	case p.Merged:
		state = domain.PullRequestMerged
	case p.State == githubv4.PullRequestStateClosed:
		state = domain.PullRequestClosed
	case p.IsDraft:
		state = domain.PullRequestDraft
	}
	var readiness *domain.MergeReadiness
	if state == domain.PullRequestOpen || state == domain.PullRequestDraft {
		readiness = &domain.MergeReadiness{
			Mergeable: p.Mergeable == githubv4.MergeableStateMergeable,
		}
	}
	return domain.PullRequest{
		Number:      p.Number,
		State:       state,
		HeadRefName: p.headBranchName(),
		BaseRefName: p.baseBranchName(),
		HeadSha:     p.HeadRefOID,
		Permalink:   p.Permalink,
		Readiness:   readiness,
	}
}

// pageInfo mirrors GraphQL's standard Relay cursor-pagination shape.
type pageInfo struct {
	EndCursor   string
	HasNextPage bool
}

const pullRequestPageSize = 100

// FetchState pages through every pull request on the repository and
// aggregates them, along with the set of branch names GitHub reports as
// already merged, into a domain.ForgeState snapshot.
func (c *Client) FetchState(ctx context.Context) (domain.ForgeState, error) {
	var state domain.ForgeState
	after := ""
	for {
		var query struct {
			Repository struct {
				PullRequests struct {
					PageInfo pageInfo
					Nodes    []pullRequest
				} `graphql:"pullRequests(states: $states, first: $first, after: $after)"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}
		vars := map[string]any{
			"owner":  githubv4.String(c.owner),
			"repo":   githubv4.String(c.repo),
			"first":  githubv4.Int(pullRequestPageSize),
			"after":  nullable(githubv4.String(after)),
			"states": []githubv4.PullRequestState{githubv4.PullRequestStateOpen, githubv4.PullRequestStateClosed, githubv4.PullRequestStateMerged},
		}
		if err := c.query(ctx, &query, vars); err != nil {
			return domain.ForgeState{}, classify(err)
		}
		for _, pr := range query.Repository.PullRequests.Nodes {
			dpr := pr.toDomain()
			state.PullRequests = append(state.PullRequests, dpr)
			if dpr.State == domain.PullRequestMerged {
				state.MergedBranchNames = append(state.MergedBranchNames, dpr.HeadRefName)
			}
		}
		if !query.Repository.PullRequests.PageInfo.HasNextPage {
			break
		}
		after = query.Repository.PullRequests.PageInfo.EndCursor
	}
	return state, nil
}

// repositoryID looks up the GraphQL node ID of the owner/repo this client is
// scoped to. CreatePullRequest needs it as the mutation's RepositoryID.
func (c *Client) repositoryID(ctx context.Context) (githubv4.ID, error) {
	var query struct {
		Repository struct {
			ID githubv4.ID
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	vars := map[string]any{
		"owner": githubv4.String(c.owner),
		"repo":  githubv4.String(c.repo),
	}
	if err := c.query(ctx, &query, vars); err != nil {
		return nil, classify(err)
	}
	return query.Repository.ID, nil
}

// CreatePullRequest opens a new pull request for opts.Head against opts.Base.
func (c *Client) CreatePullRequest(ctx context.Context, opts forge.CreatePullRequestOptions) (domain.PullRequest, error) {
	repoID, err := c.repositoryID(ctx)
	if err != nil {
		return domain.PullRequest{}, err
	}
	input := githubv4.CreatePullRequestInput{
		RepositoryID: repoID,
		BaseRefName:  githubv4.String(opts.Base),
		HeadRefName:  githubv4.String(opts.Head),
		Title:        githubv4.String(opts.Title),
		Draft:        nullable(githubv4.Boolean(opts.Draft)),
	}
	var mutation struct {
		CreatePullRequest struct {
			PullRequest pullRequest
		} `graphql:"createPullRequest(input: $input)"`
	}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return domain.PullRequest{}, classify(err)
	}
	return mutation.CreatePullRequest.PullRequest.toDomain(), nil
}

// mergeMethodFor maps this module's closed forge.MergeStrategy enum onto
// githubv4's merge-method enum.
func mergeMethodFor(strategy forge.MergeStrategy) githubv4.PullRequestMergeMethod {
	switch strategy {
	case forge.MergeStrategySquash:
		return githubv4.PullRequestMergeMethodSquash
	case forge.MergeStrategyRebase:
		return githubv4.PullRequestMergeMethodRebase
	default:
		return githubv4.PullRequestMergeMethodMerge
	}
}

// MergePullRequest merges a pull request using the given strategy.
func (c *Client) MergePullRequest(ctx context.Context, number int, strategy forge.MergeStrategy) error {
	id, err := c.pullRequestNodeID(ctx, number)
	if err != nil {
		return err
	}
	input := githubv4.MergePullRequestInput{
		PullRequestID: id,
		MergeMethod:   ptr(mergeMethodFor(strategy)),
	}
	var mutation struct {
		MergePullRequest struct {
			PullRequest pullRequest
		} `graphql:"mergePullRequest(input: $input)"`
	}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return classify(err)
	}
	return nil
}

// ClosePullRequest closes a pull request without merging it.
func (c *Client) ClosePullRequest(ctx context.Context, number int) error {
	id, err := c.pullRequestNodeID(ctx, number)
	if err != nil {
		return err
	}
	input := githubv4.ClosePullRequestInput{PullRequestID: id}
	var mutation struct {
		ClosePullRequest struct {
			PullRequest pullRequest
		} `graphql:"closePullRequest(input: $input)"`
	}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return classify(err)
	}
	return nil
}

// pullRequestNodeID looks up the GraphQL node ID for a pull request number,
// since mutations address pull requests by node ID rather than number.
func (c *Client) pullRequestNodeID(ctx context.Context, number int) (githubv4.ID, error) {
	var query struct {
		Repository struct {
			PullRequest struct {
				ID githubv4.ID
			} `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	vars := map[string]any{
		"owner":  githubv4.String(c.owner),
		"repo":   githubv4.String(c.repo),
		"number": githubv4.Int(number),
	}
	if err := c.query(ctx, &query, vars); err != nil {
		return nil, classify(err)
	}
	return query.Repository.PullRequest.ID, nil
}

// DeleteRemoteBranch deletes a branch ref from the remote via the REST API;
// GitHub's GraphQL schema has no ref-deletion mutation.
func (c *Client) DeleteRemoteBranch(ctx context.Context, name string) error {
	endpoint := "/repos/" + c.owner + "/" + c.repo + "/git/refs/heads/" + name
	if err := c.restDelete(ctx, endpoint); err != nil {
		if fe, ok := err.(*coreerrors.ForgeError); ok && fe.Kind == coreerrors.ForgeNotFound {
			// Already gone: deleting a remote branch is idempotent.
			return nil
		}
		return err
	}
	return nil
}

var _ forge.Forge = (*Client)(nil)
