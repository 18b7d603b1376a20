package domain

// PullRequestState is a closed enum over the lifecycle states of a forge
// pull request.
type PullRequestState string

const (
	PullRequestOpen   PullRequestState = "open"
	PullRequestDraft  PullRequestState = "draft"
	PullRequestClosed PullRequestState = "closed"
	PullRequestMerged PullRequestState = "merged"
)

// MergeReadiness carries the optional merge-readiness block the forge
// reports for an open pull request.
type MergeReadiness struct {
	Mergeable      bool
	ChecksPassing  bool
	ChecksPending  bool
	ReviewApproved bool
}

// PullRequest is the external, read-only forge view of a branch's PR.
type PullRequest struct {
	Number       int64
	State        PullRequestState
	HeadRefName  string
	BaseRefName  string
	HeadSha      string
	Permalink    string
	Readiness    *MergeReadiness
}

// ForgeState is the aggregate result of Forge.FetchState.
type ForgeState struct {
	PullRequests       []PullRequest
	MergedBranchNames  []string
}

// FindByHeadRef returns the pull request whose HeadRefName matches the given
// normalized branch name, if any.
func (s ForgeState) FindByHeadRef(headRef string) (PullRequest, bool) {
	for _, pr := range s.PullRequests {
		if pr.HeadRefName == headRef {
			return pr, true
		}
	}
	return PullRequest{}, false
}
