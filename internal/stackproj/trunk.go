package stackproj

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
)

// canonicalTrunkNames are the local-name segments considered canonical
// trunk names, checked case-insensitively. Per DESIGN.md's Open Question
// resolution, "trunk" and "develop" are fallback candidates only (priority
// rules 3-4); within those rules all four names rank alike, and the first
// matching branch in order wins.
var canonicalTrunkNames = []string{"main", "master", "develop", "trunk"}

func isCanonicalTrunkName(localName string) bool {
	lower := strings.ToLower(localName)
	for _, n := range canonicalTrunkNames {
		if lower == n {
			return true
		}
	}
	return false
}

// selectTrunk applies a priority list to pick the trunk branch. It returns
// the selected branch and true, or the zero value and false if no branch
// qualifies (which can only happen if branches is empty).
func selectTrunk(branches []domain.Branch, currentBranch plumbing.ReferenceName) (domain.Branch, bool) {
	if len(branches) == 0 {
		return domain.Branch{}, false
	}

	// Rule 1: is_trunk=true, is_remote=false.
	for _, b := range branches {
		if b.IsTrunk && !b.IsRemote {
			return b, true
		}
	}
	// Rule 2: any is_trunk=true.
	for _, b := range branches {
		if b.IsTrunk {
			return b, true
		}
	}
	// Rule 3: local branch whose local name is canonical (case-insensitive).
	for _, b := range branches {
		if !b.IsRemote && isCanonicalTrunkName(b.LocalName()) {
			return b, true
		}
	}
	// Rule 4: any (remote) branch whose local name is canonical.
	for _, b := range branches {
		if isCanonicalTrunkName(b.LocalName()) {
			return b, true
		}
	}
	// Rule 5: branch whose normalized ref equals working_tree.current_branch.
	if currentBranch != "" {
		for _, b := range branches {
			if b.Ref == currentBranch {
				return b, true
			}
		}
	}
	// Rule 6: the first branch in order.
	return branches[0], true
}

// stackMembershipFilter restricts to local branches, plus any remote
// branch marked is_trunk or whose normalized name is canonical. Falls
// back to all branches if that set would be empty.
func stackMembershipFilter(branches []domain.Branch) []domain.Branch {
	var filtered []domain.Branch
	for _, b := range branches {
		if !b.IsRemote {
			filtered = append(filtered, b)
			continue
		}
		if b.IsTrunk || isCanonicalTrunkName(b.LocalName()) {
			filtered = append(filtered, b)
		}
	}
	if len(filtered) == 0 {
		return branches
	}
	return filtered
}

// sortBranchesDeterministic orders branches for branch annotation: trunk
// branch first, then non-remote, then remote, then lexicographic by ref.
func sortBranchesDeterministic(branches []domain.Branch, trunkRef plumbing.ReferenceName) []domain.Branch {
	out := make([]domain.Branch, len(branches))
	copy(out, branches)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Ref == trunkRef) != (b.Ref == trunkRef) {
			return a.Ref == trunkRef
		}
		if a.IsRemote != b.IsRemote {
			return !a.IsRemote
		}
		return a.Ref < b.Ref
	})
	return out
}
