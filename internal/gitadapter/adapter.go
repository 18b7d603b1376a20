// Package gitadapter defines the capability boundary this module uses to
// talk to a Git repository. It is deliberately narrow and interface-only:
// the real implementation (internal/gitadapter/govcs) is a separate,
// swappable collaborator, injected as a constructor argument rather than
// reached through an ambient singleton.
package gitadapter

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
)

// ListBranchesOptions controls which branches ListBranches returns.
type ListBranchesOptions struct {
	// Remote, when set, restricts the listing to a single remote's
	// branches. Empty lists local branches (refs/heads) only.
	Remote string
}

// ListWorktreesOptions controls the cost/completeness tradeoff of
// ListWorktrees: skipping the dirty/conflict checks avoids touching the
// worktree's filesystem when the caller only needs path/branch/head data.
type ListWorktreesOptions struct {
	SkipDirtyCheck    bool
	SkipConflictCheck bool
}

// MergeOptions configures Merge.
type MergeOptions struct {
	FFOnly bool
}

// MergeResult is the outcome of a Merge call.
type MergeResult struct {
	Success          bool
	FastForward      bool
	AlreadyUpToDate  bool
	Error            string
}

// ApplyResult is the outcome of ApplyPatch.
type ApplyResult struct {
	Success   bool
	Conflicts []domain.ConflictFile
}

// PushOptions configures Push.
type PushOptions struct {
	Remote       string
	Ref          string
	SetUpstream  bool
	Force        bool
	Credentials  *Credentials
}

// Credentials is an opaque bundle the caller supplies; the adapter
// implementation decides how to use it (e.g. as an HTTP basic-auth pair).
type Credentials struct {
	Username string
	Password string
}

// LogOptions configures Log.
type LogOptions struct {
	// Depth limits how many commits are returned, walking from Ref.
	// Zero means unlimited.
	Depth int
}

// LogEntry is one commit as reported by Log.
type LogEntry struct {
	Sha       plumbing.Hash
	Message   string
	Author    Author
	Parents   []plumbing.Hash
}

type Author struct {
	Name    string
	Email   string
	TimeMs  int64
}

// Remote describes one configured remote.
type Remote struct {
	Name string
	URL  string
}

// Reader is the read-only subset of the Git adapter capability.
type Reader interface {
	ListBranches(ctx context.Context, repo string, opts ListBranchesOptions) ([]plumbing.ReferenceName, error)
	ResolveRef(ctx context.Context, repo string, ref string) (plumbing.Hash, error)
	Log(ctx context.Context, repo string, ref string, opts LogOptions) ([]LogEntry, error)
	ListWorktrees(ctx context.Context, repo string, opts ListWorktreesOptions) ([]domain.Worktree, error)
	ListRemotes(ctx context.Context, repo string) ([]Remote, error)
	CurrentBranch(ctx context.Context, repo string) (plumbing.ReferenceName, error)
	IsAncestor(ctx context.Context, repo string, commitSha plumbing.Hash, ref string) (bool, error)
	MergeBase(ctx context.Context, repo string, a, b string) (plumbing.Hash, bool, error)
	GetWorkingTreeStatus(ctx context.Context, repo string) (domain.WorkingTree, error)
	ReadCommit(ctx context.Context, repo string, sha plumbing.Hash) (domain.Commit, error)
}

// CheckoutOptions configures Checkout.
type CheckoutOptions struct {
	Force bool
}

// BranchOptions configures Branch (create).
type BranchOptions struct {
	StartPoint string
	Checkout   bool
}

// DeleteBranchOptions configures DeleteBranch.
type DeleteBranchOptions struct {
	Force bool
}

// ResetMode mirrors `git reset`'s --soft/--mixed/--hard modes.
type ResetMode string

const (
	ResetSoft  ResetMode = "soft"
	ResetMixed ResetMode = "mixed"
	ResetHard  ResetMode = "hard"
)

// ResetOptions configures Reset.
type ResetOptions struct {
	Mode ResetMode
	Ref  string
}

// CommitOptions configures Commit.
type CommitOptions struct {
	Message    string
	Author     Author
	AllowEmpty bool
}

// Mutator is the repository-mutating subset of the Git adapter capability.
// Every method here is a suspension point: it may shell out, touch the
// filesystem, or hit the network (Fetch/Push).
type Mutator interface {
	Checkout(ctx context.Context, repo string, ref string, opts CheckoutOptions) error
	Branch(ctx context.Context, repo string, name string, opts BranchOptions) error
	DeleteBranch(ctx context.Context, repo string, name string, opts DeleteBranchOptions) error
	Reset(ctx context.Context, repo string, opts ResetOptions) error
	Add(ctx context.Context, repo string, path string) error
	ResetIndex(ctx context.Context, repo string, path string) error
	Commit(ctx context.Context, repo string, opts CommitOptions) (plumbing.Hash, error)
	Merge(ctx context.Context, repo string, ref string, opts MergeOptions) (MergeResult, error)
	FormatPatch(ctx context.Context, repo string, rangeSpec string) ([]byte, error)
	ApplyPatch(ctx context.Context, repo string, patch []byte) (ApplyResult, error)
	ContinueApply(ctx context.Context, repo string) (ApplyResult, error)
	IsDiffEmpty(ctx context.Context, repo string, ref string) (bool, error)
	Fetch(ctx context.Context, repo string, remote string) error
	Push(ctx context.Context, repo string, opts PushOptions) error
	PruneWorktrees(ctx context.Context, repo string) error
	RebaseAbort(ctx context.Context, repo string) error
}

// Adapter is the full capability this module depends on. Callers that only
// need read access should depend on Reader (a capability-trait split)
// rather than the full Adapter.
type Adapter interface {
	Reader
	Mutator
}
