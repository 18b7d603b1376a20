// Package rebase implements the rebase intent model and rebase state
// machine: an explicit job queue with per-job status, an append-only
// commit-rewrite log, and descendant re-planning (rather than a single
// "current operation" model).
package rebase

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
)

// BuildIntent constructs a rebase intent: given a snapshot and
// user-selected (headSha, baseSha), confirm both exist, then build the
// NodeState for headSha recursively by finding child branches (non-trunk,
// non-remote) whose head's parent equals the current node's head,
// guarding against cycles via a visited set.
func BuildIntent(repo domain.RepoSnapshot, headSha, baseSha plumbing.Hash, id string, createdAtMs int64) (domain.Intent, error) {
	if _, ok := repo.Commit(headSha.String()); !ok {
		return domain.Intent{}, &coreerrors.Validation{Reason: "unknown-sha", Message: "head commit not found"}
	}
	if _, ok := repo.Commit(baseSha.String()); !ok {
		return domain.Intent{}, &coreerrors.Validation{Reason: "unknown-sha", Message: "base commit not found"}
	}

	var headBranch *domain.Branch
	for i := range repo.Branches {
		b := repo.Branches[i]
		if !b.IsGhost() && b.HeadSha == headSha && !b.IsTrunk && !b.IsRemote {
			headBranch = &repo.Branches[i]
			break
		}
	}
	if headBranch == nil {
		return domain.Intent{}, &coreerrors.Validation{Reason: "no-branch", Message: "no local, non-trunk branch points at the given head"}
	}

	node, err := buildNode(repo, *headBranch, headSha, baseSha, make(map[plumbing.Hash]bool))
	if err != nil {
		return domain.Intent{}, err
	}

	return domain.Intent{
		ID:          id,
		CreatedAtMs: createdAtMs,
		Targets: []domain.Target{
			{Node: node, TargetBaseSha: baseSha},
		},
	}, nil
}

// buildNode recursively constructs a NodeState for the given branch/head,
// attaching children whose head's parent is this node's head. visited
// guards against cycles in malformed branch graphs.
func buildNode(repo domain.RepoSnapshot, branch domain.Branch, headSha, baseSha plumbing.Hash, visited map[plumbing.Hash]bool) (*domain.NodeState, error) {
	if visited[headSha] {
		return nil, &coreerrors.Validation{Reason: "cycle", Message: "cycle detected while expanding rebase intent"}
	}
	visited[headSha] = true

	owned, err := ownedShas(repo, baseSha, headSha)
	if err != nil {
		return nil, err
	}

	node := &domain.NodeState{
		Branch:  branch.Ref,
		HeadSha: headSha,
		BaseSha: baseSha,
	}
	node.OwnedShas = owned

	for i := range repo.Branches {
		child := repo.Branches[i]
		if child.IsTrunk || child.IsRemote || child.IsGhost() || child.Ref == branch.Ref {
			continue
		}
		c, ok := repo.Commit(child.HeadSha.String())
		if !ok {
			continue
		}
		if c.ParentSha != headSha {
			continue
		}
		childNode, err := buildNode(repo, child, child.HeadSha, headSha, visited)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}

	return node, nil
}

// ownedShas walks parent links from headSha back to (but excluding) baseSha.
func ownedShas(repo domain.RepoSnapshot, baseSha, headSha plumbing.Hash) ([]plumbing.Hash, error) {
	var owned []plumbing.Hash
	cur := headSha
	visited := make(map[plumbing.Hash]bool)
	for cur != baseSha {
		if visited[cur] {
			break
		}
		visited[cur] = true
		c, ok := repo.Commit(cur.String())
		if !ok {
			break
		}
		owned = append(owned, cur)
		if c.ParentSha.IsZero() {
			break
		}
		cur = c.ParentSha
	}
	// Reverse to base-to-head order.
	for i, j := 0, len(owned)-1; i < j; i, j = i+1, j-1 {
		owned[i], owned[j] = owned[j], owned[i]
	}
	return owned, nil
}
