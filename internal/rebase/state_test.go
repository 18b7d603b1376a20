package rebase_test

import (
	"strconv"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/rebase"
)

func h(s string) plumbing.Hash {
	for len(s) < 40 {
		s += "0"
	}
	return plumbing.NewHash(s)
}

func seqIDGen() rebase.JobIDGenerator {
	n := 0
	return func(branch plumbing.ReferenceName) string {
		n++
		return "job-" + strconv.Itoa(n)
	}
}

func oneTargetIntent() domain.Intent {
	return domain.Intent{
		ID:          "intent-1",
		CreatedAtMs: 100,
		Targets: []domain.Target{
			{
				Node: &domain.NodeState{
					Branch:    "refs/heads/feat",
					HeadSha:   h("head"),
					BaseSha:   h("base"),
					OwnedShas: []plumbing.Hash{h("head")},
				},
				TargetBaseSha: h("newbase"),
			},
		},
	}
}

func TestStart_CreatesOneQueuedJobPerTarget(t *testing.T) {
	state := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	require.Equal(t, domain.SessionPending, state.Session.Status)
	require.Equal(t, h("trunk"), state.Session.InitialTrunkSha)
	require.Len(t, state.Queue.PendingJobIDs, 1)
	require.Empty(t, state.Queue.ActiveJobID)
	job := state.JobsByID[state.Queue.PendingJobIDs[0]]
	require.Equal(t, domain.JobQueued, job.Status)
	require.Equal(t, plumbing.ReferenceName("refs/heads/feat"), job.Branch)
}

func TestNextJob_TransitionsPendingSessionToRunning(t *testing.T) {
	state := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	_, state, ok := rebase.NextJob(state)
	require.True(t, ok)
	require.Equal(t, domain.SessionRunning, state.Session.Status)
}

func TestNextJob_RefusesWhenAlreadyActive(t *testing.T) {
	state := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	job, state, ok := rebase.NextJob(state)
	require.True(t, ok)
	require.Equal(t, domain.JobApplying, state.JobsByID[job.ID].Status)

	_, _, ok = rebase.NextJob(state)
	require.False(t, ok, "must refuse a second active job while one is already applying")
}

func TestNextJob_RefusesWhenSessionAwaitingUser(t *testing.T) {
	intent := domain.Intent{
		ID: "intent-3", CreatedAtMs: 100,
		Targets: []domain.Target{
			{
				Node: &domain.NodeState{
					Branch: "refs/heads/feat-a", HeadSha: h("a-head"), BaseSha: h("a-base"),
				},
				TargetBaseSha: h("a-newbase"),
			},
			{
				Node: &domain.NodeState{
					Branch: "refs/heads/feat-b", HeadSha: h("b-head"), BaseSha: h("b-base"),
				},
				TargetBaseSha: h("b-newbase"),
			},
		},
	}
	state := rebase.Start("session-3", intent, h("trunk"), 100, seqIDGen())
	job, state, ok := rebase.NextJob(state)
	require.True(t, ok)

	conflicted, err := rebase.RecordConflict(state, job.ID, []domain.ConflictFile{{Path: "a.go"}}, 150)
	require.NoError(t, err)
	require.Len(t, conflicted.Queue.PendingJobIDs, 1, "the second target is still pending")

	_, _, ok = rebase.NextJob(conflicted)
	require.False(t, ok, "must refuse to start an unrelated pending job while another is awaiting-user")

	// Even setting ActiveJobID aside (e.g. a future caller that clears it
	// on conflict), the session-status gate alone must still refuse.
	conflicted.Queue.ActiveJobID = ""
	_, _, ok = rebase.NextJob(conflicted)
	require.False(t, ok, "awaiting-user session status alone must block advancing")
}

func TestNextJob_DoesNotMutateInput(t *testing.T) {
	before := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	snapshotPending := append([]string(nil), before.Queue.PendingJobIDs...)

	_, _, ok := rebase.NextJob(before)
	require.True(t, ok)
	require.Equal(t, snapshotPending, before.Queue.PendingJobIDs, "NextJob must not mutate its input state")
	require.Empty(t, before.Queue.ActiveJobID)
}

func TestCompleteJob_EmitsMutationAndCompletesSession(t *testing.T) {
	state := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	job, state, ok := rebase.NextJob(state)
	require.True(t, ok)

	rewrites := []domain.CommitRewrite{{Branch: job.Branch, OldSha: h("head"), NewSha: h("newhead")}}
	next, mutations, err := rebase.CompleteJob(state, job.ID, h("newhead"), domain.BackendApply, 200, rewrites, seqIDGen())
	require.NoError(t, err)
	require.Len(t, mutations, 1)
	require.Equal(t, job.Branch, mutations[0].Branch)
	require.Equal(t, h("newbase"), mutations[0].NewBaseSha)
	require.Equal(t, h("newhead"), mutations[0].NewHeadSha)

	require.Equal(t, domain.SessionCompleted, next.Session.Status)
	require.Equal(t, int64(200), next.Session.CompletedAtMs)
	require.Equal(t, h("newhead"), next.Session.FinalTrunkSha)
	require.Empty(t, next.Queue.ActiveJobID)
	require.Len(t, next.Session.CommitMap, 1)
}

func TestCompleteJob_EnqueuesChildren(t *testing.T) {
	intent := domain.Intent{
		ID: "intent-2", CreatedAtMs: 100,
		Targets: []domain.Target{
			{
				Node: &domain.NodeState{
					Branch:  "refs/heads/parent",
					HeadSha: h("p-head"),
					BaseSha: h("p-base"),
					Children: []*domain.NodeState{
						{
							Branch:  "refs/heads/child",
							HeadSha: h("c-head"),
							BaseSha: h("p-head"),
						},
					},
				},
				TargetBaseSha: h("p-newbase"),
			},
		},
	}
	state := rebase.Start("session-2", intent, h("trunk"), 100, seqIDGen())
	require.Len(t, state.Queue.PendingJobIDs, 1, "children are not pre-enqueued at Start")

	parentJob, state, ok := rebase.NextJob(state)
	require.True(t, ok)

	next, _, err := rebase.CompleteJob(state, parentJob.ID, h("p-newhead"), domain.BackendApply, 200, nil, seqIDGen())
	require.NoError(t, err)
	require.Len(t, next.Queue.PendingJobIDs, 1, "completing the parent must enqueue its child")

	childJob := next.JobsByID[next.Queue.PendingJobIDs[0]]
	require.Equal(t, plumbing.ReferenceName("refs/heads/child"), childJob.Branch)
	require.Equal(t, h("p-newhead"), childJob.TargetBaseSha, "child's target base is the parent's landed head")
	require.Equal(t, domain.SessionRunning, next.Session.Status, "session is not complete while the child is still pending")
}

func TestCompleteJob_RewriteConflictIsInvariantViolation(t *testing.T) {
	state := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	job, state, ok := rebase.NextJob(state)
	require.True(t, ok)

	state.Session.CommitMap = []domain.CommitRewrite{{Branch: job.Branch, OldSha: h("head"), NewSha: h("other")}}
	_, _, err := rebase.CompleteJob(state, job.ID, h("newhead"), domain.BackendApply, 200, []domain.CommitRewrite{
		{Branch: job.Branch, OldSha: h("head"), NewSha: h("newhead")},
	}, seqIDGen())
	require.Error(t, err)
}

func TestRecordConflict_ThenResume(t *testing.T) {
	state := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	job, state, ok := rebase.NextJob(state)
	require.True(t, ok)

	conflicted, err := rebase.RecordConflict(state, job.ID, []domain.ConflictFile{{Path: "a.go"}}, 150)
	require.NoError(t, err)
	require.Equal(t, domain.JobAwaitingUser, conflicted.JobsByID[job.ID].Status)
	require.Equal(t, domain.SessionAwaitingUser, conflicted.Session.Status)
	require.Equal(t, job.ID, conflicted.Queue.ActiveJobID, "the conflicted job stays active, not requeued")

	_, err = rebase.Resume(conflicted, domain.WorkingTree{Conflicted: []string{"a.go"}}, 160)
	require.Error(t, err, "Resume must refuse while conflicted paths remain")

	resumed, err := rebase.Resume(conflicted, domain.WorkingTree{}, 170)
	require.NoError(t, err)
	require.Equal(t, domain.JobApplying, resumed.JobsByID[job.ID].Status)
	require.Equal(t, domain.SessionRunning, resumed.Session.Status)
}

func TestAbort_StopsQueueButKeepsCommitMap(t *testing.T) {
	state := rebase.Start("session-1", oneTargetIntent(), h("trunk"), 100, seqIDGen())
	state.Session.CommitMap = []domain.CommitRewrite{{Branch: "refs/heads/feat", OldSha: h("head"), NewSha: h("newhead")}}

	pendingJobID := state.Queue.PendingJobIDs[0]

	aborted := rebase.Abort(state, 300)
	require.Equal(t, domain.SessionAborted, aborted.Session.Status)
	require.Equal(t, int64(300), aborted.Session.CompletedAtMs)
	require.Empty(t, aborted.Queue.PendingJobIDs)
	require.Empty(t, aborted.Queue.ActiveJobID)
	require.Len(t, aborted.Session.CommitMap, 1, "abort must not discard already-recorded rewrites")
	require.Equal(t, domain.JobFailed, aborted.JobsByID[pendingJobID].Status, "a pending job at abort time must be marked failed")
}

func TestAbort_MarksActiveAndBlockedJobsFailedButLeavesCompletedAlone(t *testing.T) {
	intent := domain.Intent{
		ID: "intent-4", CreatedAtMs: 100,
		Targets: []domain.Target{
			{
				Node:          &domain.NodeState{Branch: "refs/heads/done", HeadSha: h("d-head"), BaseSha: h("d-base")},
				TargetBaseSha: h("d-newbase"),
			},
			{
				Node:          &domain.NodeState{Branch: "refs/heads/active", HeadSha: h("a-head"), BaseSha: h("a-base")},
				TargetBaseSha: h("a-newbase"),
			},
		},
	}
	state := rebase.Start("session-4", intent, h("trunk"), 100, seqIDGen())

	doneJob, state, ok := rebase.NextJob(state)
	require.True(t, ok)
	state, _, err := rebase.CompleteJob(state, doneJob.ID, h("d-newhead"), domain.BackendApply, 120, nil, seqIDGen())
	require.NoError(t, err)

	activeJob, state, ok := rebase.NextJob(state)
	require.True(t, ok)

	state.Queue.BlockedJobIDs = append(state.Queue.BlockedJobIDs, "blocked-1")
	state.JobsByID["blocked-1"] = &domain.RebaseJob{ID: "blocked-1", Status: domain.JobQueued}

	aborted := rebase.Abort(state, 300)
	require.Equal(t, domain.JobCompleted, aborted.JobsByID[doneJob.ID].Status, "a completed job must stay completed")
	require.Equal(t, domain.JobFailed, aborted.JobsByID[activeJob.ID].Status, "the active job must be marked failed")
	require.Equal(t, domain.JobFailed, aborted.JobsByID["blocked-1"].Status, "a blocked job must be marked failed")
}
