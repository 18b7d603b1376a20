package rebase

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
)

// Start builds the initial RebaseState for a confirmed intent: one queued
// job per target root. A node's children stay attached to its job as
// PendingChildren and only become jobs of their own once that job
// completes (the descendant enqueue) — this keeps the queue holding only
// jobs whose base is already known to be final, growing the job tree as
// each level lands rather than walking one flat op list up front.
func Start(sessionID string, intent domain.Intent, initialTrunkSha plumbing.Hash, startedAtMs int64, genJobID JobIDGenerator) domain.RebaseState {
	jobsByID := make(map[string]*domain.RebaseJob)
	var order []string

	for _, target := range intent.Targets {
		job := newJobFromNode(target.Node, target.TargetBaseSha, startedAtMs, genJobID)
		jobsByID[job.ID] = job
		order = append(order, job.ID)
	}

	return domain.RebaseState{
		Session: domain.RebaseSession{
			ID:              sessionID,
			StartedAtMs:     startedAtMs,
			Status:          domain.SessionPending,
			InitialTrunkSha: initialTrunkSha,
			Jobs:            append([]string(nil), order...),
		},
		JobsByID: jobsByID,
		Queue: domain.JobQueue{
			PendingJobIDs: order,
		},
	}
}

func newJobFromNode(node *domain.NodeState, targetBaseSha plumbing.Hash, now int64, genJobID JobIDGenerator) *domain.RebaseJob {
	return &domain.RebaseJob{
		ID:              genJobID(node.Branch),
		Branch:          node.Branch,
		OriginalBaseSha: node.BaseSha,
		OriginalHeadSha: node.HeadSha,
		TargetBaseSha:   targetBaseSha,
		Status:          domain.JobQueued,
		CreatedAtMs:     now,
		PendingChildren: node.Children,
	}
}

// cloneState returns a deep-enough copy of state that mutating the result
// never mutates the input: every predicate and transition in this package
// must be a pure function from old state to new state.
func cloneState(state domain.RebaseState) domain.RebaseState {
	jobsByID := make(map[string]*domain.RebaseJob, len(state.JobsByID))
	for id, job := range state.JobsByID {
		j := *job
		j.Conflicts = append([]domain.ConflictFile(nil), job.Conflicts...)
		j.PendingChildren = append([]*domain.NodeState(nil), job.PendingChildren...)
		jobsByID[id] = &j
	}
	return domain.RebaseState{
		Session: domain.RebaseSession{
			ID:              state.Session.ID,
			StartedAtMs:     state.Session.StartedAtMs,
			CompletedAtMs:   state.Session.CompletedAtMs,
			Status:          state.Session.Status,
			InitialTrunkSha: state.Session.InitialTrunkSha,
			FinalTrunkSha:   state.Session.FinalTrunkSha,
			Jobs:            append([]string(nil), state.Session.Jobs...),
			CommitMap:       append([]domain.CommitRewrite(nil), state.Session.CommitMap...),
		},
		JobsByID: jobsByID,
		Queue: domain.JobQueue{
			ActiveJobID:   state.Queue.ActiveJobID,
			PendingJobIDs: append([]string(nil), state.Queue.PendingJobIDs...),
			BlockedJobIDs: append([]string(nil), state.Queue.BlockedJobIDs...),
		},
	}
}

// NextJob pops the head of the pending queue and marks it applying. It
// refuses (ok=false) whenever a job is already active, enforcing at most
// one applying job at a time at the source rather than trusting callers,
// and whenever the session's status isn't one that admits advancing —
// awaiting-user (an unresolved conflict must be resumed, not bypassed by
// starting an unrelated job), completed, or aborted all refuse. A pending
// session is advanced to running as part of popping its first job.
func NextJob(state domain.RebaseState) (domain.RebaseJob, domain.RebaseState, bool) {
	switch state.Session.Status {
	case domain.SessionAwaitingUser, domain.SessionCompleted, domain.SessionAborted:
		return domain.RebaseJob{}, state, false
	}
	if state.Queue.ActiveJobID != "" {
		return domain.RebaseJob{}, state, false
	}
	if len(state.Queue.PendingJobIDs) == 0 {
		return domain.RebaseJob{}, state, false
	}

	next := cloneState(state)
	id := next.Queue.PendingJobIDs[0]
	job, ok := next.JobsByID[id]
	if !ok {
		return domain.RebaseJob{}, state, false
	}
	job.Status = domain.JobApplying
	next.Queue.ActiveJobID = id
	next.Queue.PendingJobIDs = next.Queue.PendingJobIDs[1:]
	next.Session.Status = domain.SessionRunning
	return *job, next, true
}

// CompleteJob records a successful apply of the active job: it stamps the
// job completed (recording which backend landed it, for diagnostics), folds
// the replayed commit rewrites into the session's append-only commit map,
// emits the StackMutation the caller should apply to its own branch
// metadata, and turns the job's pending children into newly queued jobs
// whose base is the just-landed rebased head — the descendant enqueue.
func CompleteJob(state domain.RebaseState, jobID string, rebasedHeadSha plumbing.Hash, backend domain.RebaseBackend, now int64, rewrites []domain.CommitRewrite, genJobID JobIDGenerator) (domain.RebaseState, []domain.StackMutation, error) {
	if state.Queue.ActiveJobID != jobID {
		return state, nil, &coreerrors.InvariantViolation{Message: "CompleteJob called for a job that is not active"}
	}
	job, ok := state.JobsByID[jobID]
	if !ok || job.Status != domain.JobApplying {
		return state, nil, &coreerrors.InvariantViolation{Message: "CompleteJob called for a job that is not applying"}
	}

	next := cloneState(state)
	nj := next.JobsByID[jobID]
	nj.Status = domain.JobCompleted
	nj.RebasedHeadSha = rebasedHeadSha
	nj.Backend = backend
	nj.UpdatedAtMs = now
	next.Queue.ActiveJobID = ""

	for _, rw := range rewrites {
		if err := appendRewrite(&next.Session, rw); err != nil {
			return state, nil, err
		}
	}

	for _, child := range nj.PendingChildren {
		childJob := newJobFromNode(child, rebasedHeadSha, now, genJobID)
		next.JobsByID[childJob.ID] = childJob
		next.Session.Jobs = append(next.Session.Jobs, childJob.ID)
		next.Queue.PendingJobIDs = append(next.Queue.PendingJobIDs, childJob.ID)
	}
	nj.PendingChildren = nil

	mutation := domain.StackMutation{
		Branch:     nj.Branch,
		NewBaseSha: nj.TargetBaseSha,
		NewHeadSha: rebasedHeadSha,
	}

	if next.Queue.ActiveJobID == "" && len(next.Queue.PendingJobIDs) == 0 && len(next.Queue.BlockedJobIDs) == 0 {
		next.Session.Status = domain.SessionCompleted
		next.Session.CompletedAtMs = now
		next.Session.FinalTrunkSha = rebasedHeadSha
	}

	return next, []domain.StackMutation{mutation}, nil
}

// appendRewrite enforces that within a session, (branch, old_sha) maps to
// exactly one new_sha. A second rewrite for the same pair with a
// different new_sha is an invariant violation, not silently overwritten.
func appendRewrite(session *domain.RebaseSession, rw domain.CommitRewrite) error {
	for _, existing := range session.CommitMap {
		if existing.Branch == rw.Branch && existing.OldSha == rw.OldSha {
			if existing.NewSha != rw.NewSha {
				return &coreerrors.InvariantViolation{Message: "commit rewrite map received two different targets for the same (branch, old_sha)"}
			}
			return nil
		}
	}
	session.CommitMap = append(session.CommitMap, rw)
	return nil
}

// RecordConflict transitions the active job (and the session alongside it,
// which must stay in lockstep) into awaiting-user once an apply reports
// conflicted paths.
func RecordConflict(state domain.RebaseState, jobID string, conflicts []domain.ConflictFile, now int64) (domain.RebaseState, error) {
	if state.Queue.ActiveJobID != jobID {
		return state, &coreerrors.InvariantViolation{Message: "RecordConflict called for a job that is not active"}
	}
	job, ok := state.JobsByID[jobID]
	if !ok || job.Status != domain.JobApplying {
		return state, &coreerrors.InvariantViolation{Message: "RecordConflict called for a job that is not applying"}
	}

	next := cloneState(state)
	nj := next.JobsByID[jobID]
	nj.Status = domain.JobAwaitingUser
	nj.Conflicts = append([]domain.ConflictFile(nil), conflicts...)
	nj.UpdatedAtMs = now
	next.Session.Status = domain.SessionAwaitingUser
	return next, nil
}

// Resume transitions the awaiting-user job back to applying once the
// caller reports the working tree no longer has conflicted paths,
// so the executor can retry completing it.
func Resume(state domain.RebaseState, workingTree domain.WorkingTree, now int64) (domain.RebaseState, error) {
	id := state.Queue.ActiveJobID
	if id == "" {
		return state, &coreerrors.InvariantViolation{Message: "Resume called with no active job"}
	}
	job, ok := state.JobsByID[id]
	if !ok || job.Status != domain.JobAwaitingUser {
		return state, &coreerrors.InvariantViolation{Message: "Resume called but the active job is not awaiting-user"}
	}
	if len(workingTree.Conflicted) > 0 {
		return state, &coreerrors.WorktreeConflict{Branch: string(job.Branch), IsDirty: true}
	}

	next := cloneState(state)
	nj := next.JobsByID[id]
	nj.Status = domain.JobApplying
	nj.UpdatedAtMs = now
	next.Session.Status = domain.SessionRunning
	return next, nil
}

// Abort marks the whole session aborted. Jobs already completed keep their
// recorded rewrites (the caller is responsible for any working-tree/branch
// rollback); any job that was active, pending, or blocked is marked failed
// so the job-id partition (active ∪ pending ∪ blocked ∪ completed/failed)
// still accounts for every job once the queue itself is cleared.
func Abort(state domain.RebaseState, now int64) domain.RebaseState {
	next := cloneState(state)

	if next.Queue.ActiveJobID != "" {
		failJob(next, next.Queue.ActiveJobID, now)
	}
	for _, id := range next.Queue.PendingJobIDs {
		failJob(next, id, now)
	}
	for _, id := range next.Queue.BlockedJobIDs {
		failJob(next, id, now)
	}

	next.Session.Status = domain.SessionAborted
	next.Session.CompletedAtMs = now
	next.Queue.ActiveJobID = ""
	next.Queue.PendingJobIDs = nil
	next.Queue.BlockedJobIDs = nil
	return next
}

// failJob marks the job id as failed, if it exists and isn't already in a
// terminal state.
func failJob(state domain.RebaseState, id string, now int64) {
	job, ok := state.JobsByID[id]
	if !ok {
		return
	}
	if job.Status == domain.JobCompleted || job.Status == domain.JobFailed {
		return
	}
	job.Status = domain.JobFailed
	job.UpdatedAtMs = now
}
