package stackproj

import (
	"context"

	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// DetectMerged: for each non-trunk, non-ghost branch, ask the adapter
// whether its head is an ancestor of (or equal to) trunkRef. Adapter
// errors are treated as "false" (not merged) — this only detects
// fast-forward merges; squash/rebase merges must come from forge PR
// state instead.
func DetectMerged(
	ctx context.Context,
	reader gitadapter.Reader,
	repoPath string,
	branches []domain.Branch,
	trunkRef string,
) []string {
	var merged []string
	for _, b := range branches {
		if b.IsTrunk || b.IsGhost() {
			continue
		}
		ok, err := reader.IsAncestor(ctx, repoPath, b.HeadSha, trunkRef)
		if err != nil {
			continue
		}
		if ok {
			merged = append(merged, b.Ref.Short())
		}
	}
	return merged
}
