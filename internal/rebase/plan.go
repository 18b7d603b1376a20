package rebase

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
)

// JobIDGenerator mints a job ID for a node about to become a RebaseJob.
// Both CreateRebasePlan and Start take one so tests can supply
// deterministic IDs and production code can supply real ones (e.g. uuid).
type JobIDGenerator func(branch plumbing.ReferenceName) string

// PlannedJob is one entry of a RebasePlan: the job that would be created for
// a node, without being persisted anywhere.
type PlannedJob struct {
	ID              string
	Branch          plumbing.ReferenceName
	OriginalBaseSha plumbing.Hash
	OriginalHeadSha plumbing.Hash
	TargetBaseSha   plumbing.Hash
	Depth           int
}

// RebasePlan is CreateRebasePlan's speculative, non-persistent output: a
// flattened, depth-first (pre-order) listing of the jobs that Start and
// CompleteJob's descendant enqueue would create for the same intent, for
// display in a confirmation prompt.
type RebasePlan struct {
	Jobs []PlannedJob
}

// CreateRebasePlan flattens an Intent's target trees depth-first: each
// target root first, then each child's whole subtree in turn, as an
// explicit, inspectable list. At run time a child's job is queued only when
// its parent's job completes, and it joins the back of the queue, so for
// trees more than one level deep the run order can differ from this list.
func CreateRebasePlan(intent domain.Intent, genJobID JobIDGenerator) RebasePlan {
	var jobs []PlannedJob
	for _, target := range intent.Targets {
		jobs = append(jobs, flattenNode(target.Node, target.TargetBaseSha, 0, genJobID)...)
	}
	return RebasePlan{Jobs: jobs}
}

func flattenNode(node *domain.NodeState, targetBaseSha plumbing.Hash, depth int, genJobID JobIDGenerator) []PlannedJob {
	if node == nil {
		return nil
	}
	self := PlannedJob{
		ID:              genJobID(node.Branch),
		Branch:          node.Branch,
		OriginalBaseSha: node.BaseSha,
		OriginalHeadSha: node.HeadSha,
		TargetBaseSha:   targetBaseSha,
		Depth:           depth,
	}
	out := []PlannedJob{self}
	for _, child := range node.Children {
		// A child's target base, once its parent lands, is the parent's new
		// head — but since this is a preview (the parent hasn't actually
		// moved yet) we still describe the child relative to its recorded
		// base; CompleteJob is what computes the real target at execution
		// time once the parent's rebased head sha is known.
		out = append(out, flattenNode(child, child.BaseSha, depth+1, genJobID)...)
	}
	return out
}
