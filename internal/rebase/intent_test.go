package rebase_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/rebase"
)

func TestBuildIntent_SingleBranchOwnedShasExcludeBase(t *testing.T) {
	root := domain.Commit{Sha: h("root"), ParentSha: plumbing.ZeroHash, AuthoredAtMs: 1}
	mid := domain.Commit{Sha: h("mid"), ParentSha: root.Sha, AuthoredAtMs: 2}
	feat := domain.Commit{Sha: h("feat"), ParentSha: mid.Sha, AuthoredAtMs: 3}

	repo := domain.RepoSnapshot{
		Commits: map[string]domain.Commit{
			root.Sha.String(): root, mid.Sha.String(): mid, feat.Sha.String(): feat,
		},
		Branches: []domain.Branch{
			{Ref: "refs/heads/main", IsTrunk: true, HeadSha: root.Sha},
			{Ref: "refs/heads/feat", HeadSha: feat.Sha},
		},
	}

	intent, err := rebase.BuildIntent(repo, feat.Sha, root.Sha, "intent-1", 100)
	require.NoError(t, err)
	require.Len(t, intent.Targets, 1)
	node := intent.Targets[0].Node
	require.Equal(t, plumbing.ReferenceName("refs/heads/feat"), node.Branch)
	require.Equal(t, []plumbing.Hash{mid.Sha, feat.Sha}, node.OwnedShas)
	require.Empty(t, node.Children)
}

func TestBuildIntent_AttachesChildBranchAsNestedNode(t *testing.T) {
	root := domain.Commit{Sha: h("root"), ParentSha: plumbing.ZeroHash, AuthoredAtMs: 1}
	feat := domain.Commit{Sha: h("feat"), ParentSha: root.Sha, AuthoredAtMs: 2}
	child := domain.Commit{Sha: h("child"), ParentSha: feat.Sha, AuthoredAtMs: 3}

	repo := domain.RepoSnapshot{
		Commits: map[string]domain.Commit{
			root.Sha.String(): root, feat.Sha.String(): feat, child.Sha.String(): child,
		},
		Branches: []domain.Branch{
			{Ref: "refs/heads/main", IsTrunk: true, HeadSha: root.Sha},
			{Ref: "refs/heads/feat", HeadSha: feat.Sha},
			{Ref: "refs/heads/child", HeadSha: child.Sha},
		},
	}

	intent, err := rebase.BuildIntent(repo, feat.Sha, root.Sha, "intent-1", 100)
	require.NoError(t, err)
	node := intent.Targets[0].Node
	require.Len(t, node.Children, 1)
	require.Equal(t, plumbing.ReferenceName("refs/heads/child"), node.Children[0].Branch)
	require.Equal(t, feat.Sha, node.Children[0].BaseSha)
}

func TestBuildIntent_UnknownShaIsValidationError(t *testing.T) {
	repo := domain.RepoSnapshot{Commits: map[string]domain.Commit{}}
	_, err := rebase.BuildIntent(repo, h("missing"), h("missing-base"), "intent-1", 100)
	require.Error(t, err)
}

func TestBuildIntent_NoOwningBranchIsValidationError(t *testing.T) {
	root := domain.Commit{Sha: h("root"), ParentSha: plumbing.ZeroHash, AuthoredAtMs: 1}
	repo := domain.RepoSnapshot{
		Commits: map[string]domain.Commit{root.Sha.String(): root},
		Branches: []domain.Branch{
			{Ref: "refs/heads/main", IsTrunk: true, HeadSha: root.Sha},
		},
	}
	_, err := rebase.BuildIntent(repo, root.Sha, root.Sha, "intent-1", 100)
	require.Error(t, err, "trunk's own head has no owning non-trunk branch")
}
