// Package projected implements a speculative preview of what an
// unconfirmed RebaseIntent would produce, built by synthetically
// re-parenting the affected commits in a cloned snapshot and feeding the
// result back through internal/stackproj unchanged. Nothing here touches
// the repository; it exists purely to answer "what would this look like".
package projected

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/stackproj"
)

// BuildProjectedStack clones repo's commit set, re-parents each intent
// target's chain root onto its target_base_sha with a synthetic,
// monotonically increasing authored time, and projects the result through
// stackproj.BuildUiStack. An intent with no targets yields the same stack
// as stackproj.BuildUiStack(repo, forge).
func BuildProjectedStack(repo domain.RepoSnapshot, intent domain.Intent, forge *domain.ForgeState) (*domain.UiStack, error) {
	synthetic := cloneCommits(repo.Commits)
	counter := 0

	for _, target := range intent.Targets {
		reparent(synthetic, target.Node, target.TargetBaseSha, intent.CreatedAtMs, &counter)
	}

	projectedRepo := repo
	projectedRepo.Commits = synthetic
	return stackproj.BuildUiStack(projectedRepo, forge)
}

func cloneCommits(commits map[string]domain.Commit) map[string]domain.Commit {
	out := make(map[string]domain.Commit, len(commits))
	for sha, c := range commits {
		out[sha] = c
	}
	return out
}

// reparent detaches node's chain root from its recorded base and attaches
// it to targetBaseSha, allocating a synthetic time that keeps it ordered
// after both its new parent and its own original time. It then recurses
// over node's children with their (unchanged) new parent being node's own
// head sha — a no-op in practice since intent construction already sets
// every child's base to its parent's head, but implemented generically
// rather than assumed.
func reparent(commits map[string]domain.Commit, node *domain.NodeState, targetBaseSha plumbing.Hash, createdAtMs int64, counter *int) {
	if node == nil {
		return
	}

	rootSha := chainRoot(node)
	if root, ok := commits[rootSha.String()]; ok {
		newParent, hasParent := commits[targetBaseSha.String()]
		var parentTime int64
		if hasParent {
			parentTime = newParent.AuthoredAtMs
		}

		*counter++
		syntheticTime := root.AuthoredAtMs
		if candidate := createdAtMs + int64(*counter); candidate > syntheticTime {
			syntheticTime = candidate
		}
		if candidate := parentTime + 1; candidate > syntheticTime {
			syntheticTime = candidate
		}

		root.ParentSha = targetBaseSha
		root.AuthoredAtMs = syntheticTime
		commits[rootSha.String()] = root
	}

	for _, child := range node.Children {
		reparent(commits, child, node.HeadSha, createdAtMs, counter)
	}
}

// chainRoot returns the sha of node's earliest owned commit — the one
// whose original parent was node's old base, and so the one that must be
// detached for the rest of the chain to follow intact. If node owns no
// commits of its own (base == head), the head itself is the root.
func chainRoot(node *domain.NodeState) plumbing.Hash {
	if len(node.OwnedShas) > 0 {
		return node.OwnedShas[0]
	}
	return node.HeadSha
}
