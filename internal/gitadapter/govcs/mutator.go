package govcs

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// Checkout switches the working tree to ref, detaching HEAD if ref is a
// sha rather than a branch name — used both for normal branch switches and
// for the executor's "detach a live worktree before rebasing" step.
func (a *Adapter) Checkout(ctx context.Context, repoPath string, ref string, opts gitadapter.CheckoutOptions) error {
	args := []string{"checkout"}
	if opts.Force {
		args = append(args, "--force")
	}
	args = append(args, ref)
	_, err := runGit(ctx, repoPath, args...)
	delete(a.repos, repoPath) // HEAD moved; cached go-git handle's worktree state is stale
	return err
}

// Branch creates a new branch, optionally checking it out immediately.
func (a *Adapter) Branch(ctx context.Context, repoPath string, name string, opts gitadapter.BranchOptions) error {
	cmd := "branch"
	if opts.Checkout {
		cmd = "checkout"
	}
	args := []string{cmd, "-b", name}
	if opts.StartPoint != "" {
		args = append(args, opts.StartPoint)
	}
	_, err := runGit(ctx, repoPath, args...)
	return err
}

// DeleteBranch deletes a local branch.
func (a *Adapter) DeleteBranch(ctx context.Context, repoPath string, name string, opts gitadapter.DeleteBranchOptions) error {
	flag := "-d"
	if opts.Force {
		flag = "-D"
	}
	_, err := runGit(ctx, repoPath, "branch", flag, name)
	return err
}

// Reset moves HEAD (and optionally the index/working tree) per mode.
func (a *Adapter) Reset(ctx context.Context, repoPath string, opts gitadapter.ResetOptions) error {
	args := []string{"reset", "--" + string(opts.Mode)}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}
	_, err := runGit(ctx, repoPath, args...)
	return err
}

// Add stages a path.
func (a *Adapter) Add(ctx context.Context, repoPath string, path string) error {
	_, err := runGit(ctx, repoPath, "add", "--", path)
	return err
}

// ResetIndex unstages a path without touching the working tree.
func (a *Adapter) ResetIndex(ctx context.Context, repoPath string, path string) error {
	_, err := runGit(ctx, repoPath, "reset", "HEAD", "--", path)
	return err
}

// Commit records the index as a new commit and returns its sha.
func (a *Adapter) Commit(ctx context.Context, repoPath string, opts gitadapter.CommitOptions) (plumbing.Hash, error) {
	args := []string{"commit", "-m", opts.Message}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	var env []string
	if opts.Author.Name != "" {
		env = append(env,
			"GIT_AUTHOR_NAME="+opts.Author.Name,
			"GIT_AUTHOR_EMAIL="+opts.Author.Email,
		)
	}
	if _, err := runGitEnv(ctx, repoPath, env, args...); err != nil {
		return plumbing.ZeroHash, err
	}
	sha, err := a.ResolveRef(ctx, repoPath, "HEAD")
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return sha, nil
}

// Merge merges ref into the current branch.
func (a *Adapter) Merge(ctx context.Context, repoPath string, ref string, opts gitadapter.MergeOptions) (gitadapter.MergeResult, error) {
	args := []string{"merge", ref}
	if opts.FFOnly {
		args = append(args, "--ff-only")
	}
	out, err := runGit(ctx, repoPath, args...)
	if err != nil {
		return gitadapter.MergeResult{Success: false, Error: out}, nil
	}
	res := gitadapter.MergeResult{Success: true}
	if strings.Contains(out, "Already up to date") {
		res.AlreadyUpToDate = true
	}
	if strings.Contains(out, "Fast-forward") {
		res.FastForward = true
	}
	return res, nil
}

// FormatPatch renders rangeSpec (e.g. "base..head") as a mailbox-format
// patch series, the input ApplyPatch expects. Since the executor needs to
// retarget a commit range onto an arbitrary synthetic base rather than a
// single named upstream, it builds the move out of format-patch + am
// instead of a single `git rebase` invocation.
func (a *Adapter) FormatPatch(ctx context.Context, repoPath string, rangeSpec string) ([]byte, error) {
	out, err := runGit(ctx, repoPath, "format-patch", "--stdout", rangeSpec)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// ApplyPatch applies a format-patch mailbox via `git am`, leaving the
// repository mid-am (rebase-apply state) on conflict so the caller can
// surface the conflicted paths and later Resume or RebaseAbort.
func (a *Adapter) ApplyPatch(ctx context.Context, repoPath string, patch []byte) (gitadapter.ApplyResult, error) {
	_, stderr, err := runGitStdinEnv(ctx, repoPath, patch, nil, "am", "--3way")
	return a.applyOutcome(ctx, repoPath, "am", stderr, err)
}

// ContinueApply resumes a mailbox apply left mid-am by a conflicted
// ApplyPatch, once the caller has staged conflict resolutions (`git add`).
// Like ApplyPatch, a second conflict leaves the repository mid-am again
// rather than failing outright, so the caller can keep resolving and
// retrying.
func (a *Adapter) ContinueApply(ctx context.Context, repoPath string) (gitadapter.ApplyResult, error) {
	_, stderr, err := runGitEnv(ctx, repoPath, nil, "am", "--continue")
	return a.applyOutcome(ctx, repoPath, "am --continue", stderr, err)
}

// applyOutcome turns the result of an am invocation (fresh or --continue)
// into an ApplyResult, distinguishing a resumable merge conflict (detected
// by re-reading porcelain status for conflicted paths) from a hard adapter
// failure such as a malformed patch.
func (a *Adapter) applyOutcome(ctx context.Context, repoPath, command, stderr string, err error) (gitadapter.ApplyResult, error) {
	if err == nil {
		return gitadapter.ApplyResult{Success: true}, nil
	}
	status, statusErr := runGit(ctx, repoPath, "status", "--porcelain=v2", "--branch")
	if statusErr != nil {
		return gitadapter.ApplyResult{}, &coreerrors.AdapterError{Command: command, Message: stderr, Cause: err}
	}
	conflicts := parseStatusPorcelainV2(status).conflicted
	if len(conflicts) == 0 {
		return gitadapter.ApplyResult{}, &coreerrors.AdapterError{Command: command, Message: stderr, Cause: err}
	}
	return gitadapter.ApplyResult{Success: false, Conflicts: toConflictFiles(conflicts)}, nil
}

// IsDiffEmpty reports whether there is no difference at all between ref
// and the current HEAD.
func (a *Adapter) IsDiffEmpty(ctx context.Context, repoPath string, ref string) (bool, error) {
	out, err := runGit(ctx, repoPath, "diff", "--quiet", ref, "HEAD")
	_ = out
	if err == nil {
		return true, nil
	}
	var adapterErr *coreerrors.AdapterError
	if coreerrors.As(err, &adapterErr) && adapterErr.Message == "" {
		return false, nil
	}
	return false, err
}

// Fetch fetches refs from remote.
func (a *Adapter) Fetch(ctx context.Context, repoPath string, remote string) error {
	_, err := runGit(ctx, repoPath, "fetch", remote)
	return err
}

// Push pushes the current branch (or opts.Ref) to remote, optionally
// setting the upstream or force-pushing. Credentials, when supplied, are
// passed as environment variables for a credential helper configured on
// the remote's URL to pick up, keeping the token out of argv.
func (a *Adapter) Push(ctx context.Context, repoPath string, opts gitadapter.PushOptions) error {
	args := []string{"push"}
	if opts.SetUpstream {
		args = append(args, "--set-upstream")
	}
	if opts.Force {
		args = append(args, "--force-with-lease")
	}
	args = append(args, opts.Remote)
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}
	var env []string
	if opts.Credentials != nil {
		env = []string{
			"GIT_ASKPASS_USERNAME=" + opts.Credentials.Username,
			"GIT_ASKPASS_PASSWORD=" + opts.Credentials.Password,
		}
	}
	_, err := runGitEnv(ctx, repoPath, env, args...)
	return err
}

// PruneWorktrees removes administrative data for worktrees whose working
// directories are gone.
func (a *Adapter) PruneWorktrees(ctx context.Context, repoPath string) error {
	_, err := runGit(ctx, repoPath, "worktree", "prune")
	return err
}

// RebaseAbort aborts an in-progress am/rebase, restoring the branch to its
// pre-rebase state.
func (a *Adapter) RebaseAbort(ctx context.Context, repoPath string) error {
	if _, err := runGit(ctx, repoPath, "am", "--abort"); err == nil {
		return nil
	}
	_, err := runGit(ctx, repoPath, "rebase", "--abort")
	return err
}

func toConflictFiles(paths []string) []domain.ConflictFile {
	files := make([]domain.ConflictFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, domain.ConflictFile{Path: p})
	}
	return files
}

var _ gitadapter.Mutator = (*Adapter)(nil)
