package stackproj

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
)

// annotateBranches walks branches in deterministic order (trunk first, then
// non-remote, then remote, then lexicographic), and for each branch whose
// head lands on a commit in some stack, appends an annotation (no
// duplicates), optionally matched against forge PR state.
func annotateBranches(
	trunkStack *domain.UiStack,
	trunkCommitBySha map[plumbing.Hash]*domain.UiCommit,
	repo domain.RepoSnapshot,
	trunkBranch domain.Branch,
	forge *domain.ForgeState,
) {
	// Build a full index over every commit reachable from trunkStack and
	// its spinoffs so branch heads landing inside a spinoff are found too.
	bySha := make(map[plumbing.Hash]*domain.UiCommit)
	var walk func(s *domain.UiStack)
	walk = func(s *domain.UiStack) {
		for _, uc := range s.Commits {
			bySha[uc.Sha] = uc
			for _, sp := range uc.Spinoffs {
				walk(sp)
			}
		}
	}
	walk(trunkStack)
	for sha, uc := range trunkCommitBySha {
		bySha[sha] = uc
	}

	ordered := sortBranchesDeterministic(repo.Branches, trunkBranch.Ref)
	seen := make(map[plumbing.Hash]map[string]bool)
	for _, b := range ordered {
		if b.IsGhost() {
			continue
		}
		uc, ok := bySha[b.HeadSha]
		if !ok {
			continue
		}
		if seen[b.HeadSha] == nil {
			seen[b.HeadSha] = make(map[string]bool)
		}
		name := b.LocalName()
		if seen[b.HeadSha][name] {
			continue
		}
		seen[b.HeadSha][name] = true

		ann := domain.BranchAnnotation{
			Name:      name,
			IsCurrent: b.Ref == repo.WorkingTree.CurrentBranch,
		}
		if forge != nil {
			if pr, ok := forge.FindByHeadRef(name); ok {
				ann.PullRequest = &domain.UiPullRequest{
					Number:    pr.Number,
					State:     pr.State,
					Permalink: pr.Permalink,
					IsInSync:  pr.HeadSha == b.HeadSha.String(),
				}
			}
		}
		uc.Branches = append(uc.Branches, ann)
	}
}
