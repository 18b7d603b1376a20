package domain

import "github.com/go-git/go-git/v5/plumbing"

// SessionStatus is the closed enum of states a RebaseSession passes through.
type SessionStatus string

const (
	SessionPending     SessionStatus = "pending"
	SessionRunning     SessionStatus = "running"
	SessionAwaitingUser SessionStatus = "awaiting-user"
	SessionAborted     SessionStatus = "aborted"
	SessionCompleted   SessionStatus = "completed"
)

// CommitRewrite records that a branch's commit was replayed onto a new sha
// during a session. (branch, OldSha) maps to exactly one NewSha within a
// session — this is enforced by appendRewrite in internal/rebase/state.go.
type CommitRewrite struct {
	Branch plumbing.ReferenceName
	OldSha plumbing.Hash
	NewSha plumbing.Hash
}

// RebaseSession is the persisted, resumable execution of a plan.
type RebaseSession struct {
	ID              string
	StartedAtMs     int64
	CompletedAtMs   int64 // 0 until terminal

	Status SessionStatus

	InitialTrunkSha plumbing.Hash
	FinalTrunkSha   plumbing.Hash // zero until completed

	// Jobs is the ordered set of job IDs that belong to this session
	// (including ones enqueued later via descendant expansion).
	Jobs []string

	CommitMap []CommitRewrite
}

// JobQueue tracks which jobs are active, pending, or blocked.
type JobQueue struct {
	ActiveJobID    string // empty if none
	PendingJobIDs  []string
	BlockedJobIDs  []string
}

// RebaseState is the full in-memory state of a session: the session header,
// every job keyed by ID, and the queue.
type RebaseState struct {
	Session  RebaseSession
	JobsByID map[string]*RebaseJob
	Queue    JobQueue
}

// StoredRebaseSession is the persisted form of a RebaseState plus the
// bookkeeping the session store needs for optimistic concurrency and for
// recovering original context (which branch was checked out, which
// worktrees the executor auto-detached).
type StoredRebaseSession struct {
	// SchemaVersion is a semver string (e.g. "v1.0.0"), checked against
	// CurrentSchemaVersion with golang.org/x/mod/semver: a major-version
	// mismatch means this build cannot safely interpret the stored shape.
	SchemaVersion string

	Intent Intent
	State  RebaseState

	Version int64

	CreatedAtMs int64
	UpdatedAtMs int64

	OriginalBranch plumbing.ReferenceName

	AutoDetachedWorktrees []string
}

// CurrentSchemaVersion is bumped whenever StoredRebaseSession's on-disk
// shape changes. The major component is bumped only for incompatible
// changes; sessionstore rejects any stored session whose major component
// doesn't match.
const CurrentSchemaVersion = "v1.0.0"
