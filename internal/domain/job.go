package domain

import "github.com/go-git/go-git/v5/plumbing"

// JobStatus is the closed enum of states a RebaseJob passes through.
type JobStatus string

const (
	JobQueued       JobStatus = "queued"
	JobApplying     JobStatus = "applying"
	JobAwaitingUser JobStatus = "awaiting-user"
	JobCompleted    JobStatus = "completed"
	JobFailed       JobStatus = "failed"
)

// RebaseBackend records which strategy the executor used to move a branch,
// diagnostic metadata set at job completion (not itself a new operation).
type RebaseBackend string

const (
	BackendUnknown      RebaseBackend = ""
	BackendFastForward  RebaseBackend = "fast-forward"
	BackendApply        RebaseBackend = "apply"
)

// ConflictFile is one path the adapter reported as conflicted during an
// apply, along with its three-way stage blobs (when available).
type ConflictFile struct {
	Path string
	OursSha   plumbing.Hash
	TheirsSha plumbing.Hash
	BaseSha   plumbing.Hash
	Resolved  bool
}

// RebaseJob is one branch's move within a session.
type RebaseJob struct {
	ID               string
	Branch           plumbing.ReferenceName
	OriginalBaseSha  plumbing.Hash
	OriginalHeadSha  plumbing.Hash
	TargetBaseSha    plumbing.Hash

	Status    JobStatus
	Backend   RebaseBackend

	CreatedAtMs int64
	UpdatedAtMs int64 // 0 if never updated

	RebasedHeadSha plumbing.Hash // zero until completed
	Conflicts      []ConflictFile

	// PendingChildren are this job's nested targets, captured at job
	// creation time and turned into new jobs (against this job's actual
	// rebased head) once this job completes. See rebase.CompleteJob.
	PendingChildren []*NodeState
}
