package executor_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/executor"
	"github.com/aviator-co/stackcore/internal/gitadapter"
	"github.com/aviator-co/stackcore/internal/rebase"
	"github.com/aviator-co/stackcore/internal/sessionstore"
	"github.com/aviator-co/stackcore/internal/worktree"
)

func h(s string) plumbing.Hash {
	for len(s) < 40 {
		s += "0"
	}
	return plumbing.NewHash(s)
}

func seqIDGen() rebase.JobIDGenerator {
	n := 0
	return func(plumbing.ReferenceName) string {
		n++
		return "job-" + strconv.Itoa(n)
	}
}

type fakeAdapter struct {
	worktrees      []domain.Worktree
	applySuccess   bool
	applyConflicts []domain.ConflictFile
	resolvedHead   plumbing.Hash

	checkouts      []string // ref argument of every Checkout call
	pruneCalls     int
	rebaseAbortCalls int
}

func (f *fakeAdapter) ListBranches(context.Context, string, gitadapter.ListBranchesOptions) ([]plumbing.ReferenceName, error) {
	panic("not used")
}
func (f *fakeAdapter) ResolveRef(context.Context, string, string) (plumbing.Hash, error) {
	return f.resolvedHead, nil
}
func (f *fakeAdapter) Log(context.Context, string, string, gitadapter.LogOptions) ([]gitadapter.LogEntry, error) {
	panic("not used")
}
func (f *fakeAdapter) ListWorktrees(context.Context, string, gitadapter.ListWorktreesOptions) ([]domain.Worktree, error) {
	return f.worktrees, nil
}
func (f *fakeAdapter) ListRemotes(context.Context, string) ([]gitadapter.Remote, error) {
	panic("not used")
}
func (f *fakeAdapter) CurrentBranch(context.Context, string) (plumbing.ReferenceName, error) {
	panic("not used")
}
func (f *fakeAdapter) IsAncestor(context.Context, string, plumbing.Hash, string) (bool, error) {
	panic("not used")
}
func (f *fakeAdapter) MergeBase(context.Context, string, string, string) (plumbing.Hash, bool, error) {
	panic("not used")
}
func (f *fakeAdapter) GetWorkingTreeStatus(context.Context, string) (domain.WorkingTree, error) {
	panic("not used")
}
func (f *fakeAdapter) ReadCommit(context.Context, string, plumbing.Hash) (domain.Commit, error) {
	panic("not used")
}
func (f *fakeAdapter) Checkout(_ context.Context, _ string, ref string, _ gitadapter.CheckoutOptions) error {
	f.checkouts = append(f.checkouts, ref)
	return nil
}
func (f *fakeAdapter) Branch(context.Context, string, string, gitadapter.BranchOptions) error {
	panic("not used")
}
func (f *fakeAdapter) DeleteBranch(context.Context, string, string, gitadapter.DeleteBranchOptions) error {
	panic("not used")
}
func (f *fakeAdapter) Reset(context.Context, string, gitadapter.ResetOptions) error { panic("not used") }
func (f *fakeAdapter) Add(context.Context, string, string) error                    { panic("not used") }
func (f *fakeAdapter) ResetIndex(context.Context, string, string) error             { panic("not used") }
func (f *fakeAdapter) Commit(context.Context, string, gitadapter.CommitOptions) (plumbing.Hash, error) {
	panic("not used")
}
func (f *fakeAdapter) Merge(context.Context, string, string, gitadapter.MergeOptions) (gitadapter.MergeResult, error) {
	panic("not used")
}
func (f *fakeAdapter) FormatPatch(context.Context, string, string) ([]byte, error) {
	return []byte("patch"), nil
}
func (f *fakeAdapter) ApplyPatch(context.Context, string, []byte) (gitadapter.ApplyResult, error) {
	return gitadapter.ApplyResult{Success: f.applySuccess, Conflicts: f.applyConflicts}, nil
}
func (f *fakeAdapter) ContinueApply(context.Context, string) (gitadapter.ApplyResult, error) {
	panic("not used")
}
func (f *fakeAdapter) IsDiffEmpty(context.Context, string, string) (bool, error) { panic("not used") }
func (f *fakeAdapter) Fetch(context.Context, string, string) error              { panic("not used") }
func (f *fakeAdapter) Push(context.Context, string, gitadapter.PushOptions) error { panic("not used") }
func (f *fakeAdapter) PruneWorktrees(context.Context, string) error {
	f.pruneCalls++
	return nil
}
func (f *fakeAdapter) RebaseAbort(context.Context, string) error {
	f.rebaseAbortCalls++
	return nil
}

var _ gitadapter.Adapter = &fakeAdapter{}

func oneJobState() domain.RebaseState {
	intent := domain.Intent{
		Targets: []domain.Target{
			{
				Node: &domain.NodeState{
					Branch:  "refs/heads/feat",
					HeadSha: h("head"),
					BaseSha: h("base"),
				},
				TargetBaseSha: h("newbase"),
			},
		},
	}
	return rebase.Start("s1", intent, h("trunk"), 100, seqIDGen())
}

func TestStep_NoOpWhenTargetBaseEqualsOriginalBase(t *testing.T) {
	intent := domain.Intent{
		Targets: []domain.Target{
			{
				Node: &domain.NodeState{Branch: "refs/heads/feat", HeadSha: h("head"), BaseSha: h("base")},
				TargetBaseSha: h("base"),
			},
		},
	}
	state := rebase.Start("s1", intent, h("trunk"), 100, seqIDGen())
	adapter := &fakeAdapter{}
	e := &executor.Executor{Adapter: adapter, Resolver: worktree.NewGitDirResolver()}

	out, err := e.Step(context.Background(), "/repo", state, 200, seqIDGen())
	require.NoError(t, err)
	require.False(t, out.AwaitingUser)
	require.Equal(t, domain.SessionCompleted, out.State.Session.Status)
	require.Empty(t, adapter.checkouts, "a no-op job must not touch the working tree")
	for _, job := range out.State.JobsByID {
		require.Equal(t, domain.BackendFastForward, job.Backend)
	}
}

func TestStep_AppliesPatchAndCompletes(t *testing.T) {
	state := oneJobState()
	adapter := &fakeAdapter{applySuccess: true, resolvedHead: h("newhead")}
	e := &executor.Executor{Adapter: adapter, Resolver: worktree.NewGitDirResolver()}

	out, err := e.Step(context.Background(), "/repo", state, 200, seqIDGen())
	require.NoError(t, err)
	require.False(t, out.AwaitingUser)
	require.Equal(t, domain.SessionCompleted, out.State.Session.Status)
	require.Len(t, out.Mutations, 1)
	require.Equal(t, h("newhead"), out.Mutations[0].NewHeadSha)
	require.Equal(t, h("newbase"), out.Mutations[0].NewBaseSha)
	require.Len(t, out.State.Session.CommitMap, 1)
	require.Contains(t, adapter.checkouts, h("newbase").String())
	for _, job := range out.State.JobsByID {
		require.Equal(t, domain.BackendApply, job.Backend)
	}
}

func TestStep_ConflictHaltsAwaitingUser(t *testing.T) {
	state := oneJobState()
	adapter := &fakeAdapter{applySuccess: false, applyConflicts: []domain.ConflictFile{{Path: "a.go"}}}
	e := &executor.Executor{Adapter: adapter, Resolver: worktree.NewGitDirResolver()}

	out, err := e.Step(context.Background(), "/repo", state, 200, seqIDGen())
	require.NoError(t, err)
	require.True(t, out.AwaitingUser)
	require.Equal(t, domain.SessionAwaitingUser, out.State.Session.Status)
}

func TestStep_DirtyWorktreeConflict(t *testing.T) {
	state := oneJobState()
	wtDir := t.TempDir()
	adapter := &fakeAdapter{
		worktrees: []domain.Worktree{
			{Path: wtDir, Branch: "refs/heads/feat", IsDirty: true, IsStale: false},
		},
	}
	e := &executor.Executor{Adapter: adapter, Resolver: worktree.NewGitDirResolver()}

	_, err := e.Step(context.Background(), "/repo", state, 200, seqIDGen())
	require.Error(t, err)
	var conflict *coreerrors.WorktreeConflict
	require.True(t, coreerrors.As(err, &conflict))
}

func TestStep_DetachesAndRestoresLiveCleanWorktree(t *testing.T) {
	state := oneJobState()
	wtDir := t.TempDir()
	adapter := &fakeAdapter{
		worktrees: []domain.Worktree{
			{Path: wtDir, Branch: "refs/heads/feat", HeadSha: h("head"), IsDirty: false, IsStale: false},
		},
		applySuccess: true,
		resolvedHead: h("newhead"),
	}
	e := &executor.Executor{Adapter: adapter, Resolver: worktree.NewGitDirResolver()}

	out, err := e.Step(context.Background(), "/repo", state, 200, seqIDGen())
	require.NoError(t, err)
	require.Equal(t, []string{wtDir}, out.AutoDetached)
	// detach then restore: checkouts = [detach head sha, target base (on repo), restore branch]
	require.Contains(t, adapter.checkouts, string(plumbing.ReferenceName("refs/heads/feat")))
}

func TestFinalize_CompletedClearsStore(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Create("/repo", domain.StoredRebaseSession{}))

	adapter := &fakeAdapter{}
	state := domain.RebaseState{Session: domain.RebaseSession{Status: domain.SessionCompleted}}
	require.NoError(t, executor.Finalize(context.Background(), adapter, store, "/repo", state))
	require.False(t, store.Has("/repo"))
	require.Equal(t, 0, adapter.rebaseAbortCalls)
}

func TestFinalize_AbortedCallsRebaseAbortThenClears(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Create("/repo", domain.StoredRebaseSession{}))

	adapter := &fakeAdapter{}
	state := domain.RebaseState{Session: domain.RebaseSession{Status: domain.SessionAborted}}
	require.NoError(t, executor.Finalize(context.Background(), adapter, store, "/repo", state))
	require.False(t, store.Has("/repo"))
	require.Equal(t, 1, adapter.rebaseAbortCalls)
}

func TestFinalize_RunningLeavesStoreAlone(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Create("/repo", domain.StoredRebaseSession{}))

	adapter := &fakeAdapter{}
	state := domain.RebaseState{Session: domain.RebaseSession{Status: domain.SessionRunning}}
	require.NoError(t, executor.Finalize(context.Background(), adapter, store, "/repo", state))
	require.True(t, store.Has("/repo"))
}
