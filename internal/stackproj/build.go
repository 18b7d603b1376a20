// Package stackproj implements the stack projection and merged-branch
// detector: a pure function from a repository snapshot (and optional forge
// state) to a UiStack tree, plus a pure ancestry-based merged-branch filter.
//
// It builds a child index from ParentSha links, then walks it from the
// trunk spine out into the spinoff tree, in the deterministic order the UI
// requires.
package stackproj

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
)

// childIndex maps a commit sha to the shas of its children within the
// loaded snapshot, derived fresh from ParentSha rather than trusting any
// caller-populated Commit.ChildrenSha, since projection must not panic on
// malformed/untrusted input.
func childIndex(commits map[string]domain.Commit) map[plumbing.Hash][]plumbing.Hash {
	idx := make(map[plumbing.Hash][]plumbing.Hash)
	for _, c := range commits {
		if c.ParentSha.IsZero() {
			continue
		}
		if _, ok := commits[c.ParentSha.String()]; !ok {
			// Parent not in the loaded set; nothing to attach to.
			continue
		}
		idx[c.ParentSha] = append(idx[c.ParentSha], c.Sha)
	}
	return idx
}

// sortChildrenDeterministic orders candidate children ascending by
// AuthoredAtMs, tiebreaking lexicographically by sha.
func sortChildrenDeterministic(children []plumbing.Hash, commits map[string]domain.Commit) []plumbing.Hash {
	out := make([]plumbing.Hash, len(children))
	copy(out, children)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := commits[out[i].String()], commits[out[j].String()]
		if a.AuthoredAtMs != b.AuthoredAtMs {
			return a.AuthoredAtMs < b.AuthoredAtMs
		}
		return out[i].String() < out[j].String()
	})
	return out
}

// BuildUiStack builds the UI stack tree from a repository snapshot and
// optional forge state. Returns nil, nil iff the repo has no commits or no
// trunk can be identified.
func BuildUiStack(repo domain.RepoSnapshot, forge *domain.ForgeState) (*domain.UiStack, error) {
	if len(repo.Commits) == 0 {
		return nil, nil
	}

	candidateBranches := stackMembershipFilter(repo.Branches)
	trunkBranch, ok := selectTrunk(candidateBranches, repo.WorkingTree.CurrentBranch)
	if !ok {
		return nil, nil
	}
	if trunkBranch.IsGhost() {
		return nil, nil
	}
	trunkHead, ok := repo.Commit(trunkBranch.HeadSha.String())
	if !ok {
		return nil, nil
	}

	spine := walkSpine(trunkHead, repo.Commits)
	if len(spine) == 0 {
		return nil, nil
	}

	children := childIndex(repo.Commits)
	claimed := make(map[plumbing.Hash]bool)
	for _, c := range spine {
		claimed[c.Sha] = true
	}

	trunkStack := &domain.UiStack{IsTrunk: true}
	trunkCommitBySha := make(map[plumbing.Hash]*domain.UiCommit, len(spine))
	for _, c := range spine {
		uc := &domain.UiCommit{
			Sha:          c.Sha,
			Subject:      c.Subject,
			AuthoredAtMs: c.AuthoredAtMs,
			IsCurrent:    c.Sha == repo.WorkingTree.CurrentCommitSha,
		}
		trunkStack.Commits = append(trunkStack.Commits, uc)
		trunkCommitBySha[c.Sha] = uc
	}

	// Spinoff attachment: for each trunk commit, attach non-claimed
	// children in deterministic order, recursing down each branch point.
	for _, c := range spine {
		kids := sortChildrenDeterministic(children[c.Sha], repo.Commits)
		for _, childSha := range kids {
			if claimed[childSha] {
				continue
			}
			spinoff := buildSpinoff(childSha, repo.Commits, children, claimed, repo.WorkingTree.CurrentCommitSha)
			if spinoff == nil {
				continue
			}
			trunkCommitBySha[c.Sha].Spinoffs = append(trunkCommitBySha[c.Sha].Spinoffs, spinoff)
		}
	}

	annotateBranches(trunkStack, trunkCommitBySha, repo, trunkBranch, forge)

	return trunkStack, nil
}

// walkSpine walks ParentSha from head until a root or a cycle is hit
// (visited guard), then reverses to yield oldest-first.
func walkSpine(head domain.Commit, commits map[string]domain.Commit) []domain.Commit {
	var rev []domain.Commit
	visited := make(map[plumbing.Hash]bool)
	cur := head
	for {
		if visited[cur.Sha] {
			break
		}
		visited[cur.Sha] = true
		rev = append(rev, cur)
		if cur.ParentSha.IsZero() {
			break
		}
		parent, ok := commits[cur.ParentSha.String()]
		if !ok {
			break
		}
		cur = parent
	}
	spine := make([]domain.Commit, len(rev))
	for i, c := range rev {
		spine[len(rev)-1-i] = c
	}
	return spine
}

// buildSpinoff builds a non-trunk stack starting at headSha, walking its
// single-child descendant chain; branch points where more than one
// non-claimed child exists become nested spinoffs.
func buildSpinoff(
	headSha plumbing.Hash,
	commits map[string]domain.Commit,
	children map[plumbing.Hash][]plumbing.Hash,
	claimed map[plumbing.Hash]bool,
	currentCommitSha plumbing.Hash,
) *domain.UiStack {
	if claimed[headSha] {
		return nil
	}
	stack := &domain.UiStack{IsTrunk: false}
	cur := headSha
	for {
		c, ok := commits[cur.String()]
		if !ok || claimed[cur] {
			break
		}
		claimed[cur] = true
		uc := &domain.UiCommit{
			Sha:          c.Sha,
			Subject:      c.Subject,
			AuthoredAtMs: c.AuthoredAtMs,
			IsCurrent:    c.Sha == currentCommitSha,
		}
		stack.Commits = append(stack.Commits, uc)

		kids := sortChildrenDeterministic(children[cur], commits)
		var unclaimed []plumbing.Hash
		for _, k := range kids {
			if !claimed[k] {
				unclaimed = append(unclaimed, k)
			}
		}
		if len(unclaimed) == 0 {
			break
		}
		// The first continues this spinoff linearly; the rest attach as
		// this commit's own nested spinoffs.
		for _, k := range unclaimed[1:] {
			nested := buildSpinoff(k, commits, children, claimed, currentCommitSha)
			if nested != nil {
				uc.Spinoffs = append(uc.Spinoffs, nested)
			}
		}
		cur = unclaimed[0]
	}
	if len(stack.Commits) == 0 {
		return nil
	}
	return stack
}
