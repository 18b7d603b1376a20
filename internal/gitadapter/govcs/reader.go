package govcs

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// ListBranches lists local branch refs, optionally scoped to one remote's
// remote-tracking refs, via go-git's reference iterator (the read-only
// equivalent of a `for-each-ref`-backed ref listing).
func (a *Adapter) ListBranches(_ context.Context, repoPath string, opts gitadapter.ListBranchesOptions) ([]plumbing.ReferenceName, error) {
	repo, err := a.open(repoPath)
	if err != nil {
		return nil, err
	}
	iter, err := repo.References()
	if err != nil {
		return nil, coreerrors.Wrap(err, "failed to list references")
	}
	defer iter.Close()

	var prefix string
	switch {
	case opts.Remote != "":
		prefix = "refs/remotes/" + opts.Remote + "/"
	default:
		prefix = "refs/heads/"
	}

	var names []plumbing.ReferenceName
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if strings.HasPrefix(name.String(), prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, coreerrors.Wrap(err, "failed to iterate references")
	}
	return names, nil
}

// ResolveRef resolves a ref or revision expression to a commit sha. go-git's
// ResolveRevision handles branch names, tags, and short shas directly;
// callers needing HEAD~N or other revision syntax also go through here.
func (a *Adapter) ResolveRef(_ context.Context, repoPath string, ref string) (plumbing.Hash, error) {
	repo, err := a.open(repoPath)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	h, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, coreerrors.Wrapf(err, "failed to resolve ref %q", ref)
	}
	return *h, nil
}

// Log walks commit history from ref, the go-git equivalent of a
// subprocess-backed `git log --format=...`.
func (a *Adapter) Log(_ context.Context, repoPath string, ref string, opts gitadapter.LogOptions) ([]gitadapter.LogEntry, error) {
	repo, err := a.open(repoPath)
	if err != nil {
		return nil, err
	}
	start, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, coreerrors.Wrapf(err, "failed to resolve ref %q", ref)
	}
	iter, err := repo.Log(&git.LogOptions{From: *start})
	if err != nil {
		return nil, coreerrors.Wrap(err, "failed to walk commit log")
	}
	defer iter.Close()

	var entries []gitadapter.LogEntry
	err = iter.ForEach(func(c *object.Commit) error {
		if opts.Depth > 0 && len(entries) >= opts.Depth {
			return storer.ErrStop
		}
		var parents []plumbing.Hash
		for _, p := range c.ParentHashes {
			parents = append(parents, p)
		}
		entries = append(entries, gitadapter.LogEntry{
			Sha:     c.Hash,
			Message: c.Message,
			Author: gitadapter.Author{
				Name:   c.Author.Name,
				Email:  c.Author.Email,
				TimeMs: c.Author.When.UnixMilli(),
			},
			Parents: parents,
		})
		return nil
	})
	if err != nil {
		return nil, coreerrors.Wrap(err, "failed to iterate commit log")
	}
	return entries, nil
}

// ListWorktrees shells out to `git worktree list --porcelain`: go-git has no
// worktree support, exactly the gap this package's hybrid go-git-plus-
// subprocess adapter design is meant to paper over.
func (a *Adapter) ListWorktrees(ctx context.Context, repoPath string, opts gitadapter.ListWorktreesOptions) ([]domain.Worktree, error) {
	out, err := runGit(ctx, repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	worktrees := parseWorktreePorcelain(out)
	for i := range worktrees {
		wt := &worktrees[i]
		if wt.IsMain {
			continue
		}
		if !opts.SkipDirtyCheck {
			status, serr := runGit(ctx, wt.Path, "status", "--porcelain=v2", "--untracked-files=no")
			if serr != nil {
				wt.IsStale = true
				continue
			}
			wt.IsDirty = strings.TrimSpace(status) != ""
		}
		if !opts.SkipConflictCheck && wt.IsDirty {
			out, serr := runGit(ctx, wt.Path, "status", "--porcelain=v2", "--branch")
			if serr == nil {
				wt.ConflictedFiles = parseStatusPorcelainV2(out).conflicted
			}
		}
	}
	return worktrees, nil
}

// ListRemotes lists configured remotes and their fetch URLs.
func (a *Adapter) ListRemotes(_ context.Context, repoPath string) ([]gitadapter.Remote, error) {
	repo, err := a.open(repoPath)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, coreerrors.Wrap(err, "failed to list remotes")
	}
	var out []gitadapter.Remote
	for _, r := range remotes {
		cfg := r.Config()
		url := ""
		if len(cfg.URLs) > 0 {
			url = cfg.URLs[0]
		}
		out = append(out, gitadapter.Remote{Name: cfg.Name, URL: url})
	}
	return out, nil
}

// CurrentBranch reports the symbolic branch HEAD points to. It returns an
// AdapterError (not a zero value) when HEAD is detached, so callers must
// check the error rather than an empty ReferenceName.
func (a *Adapter) CurrentBranch(_ context.Context, repoPath string) (plumbing.ReferenceName, error) {
	repo, err := a.open(repoPath)
	if err != nil {
		return "", err
	}
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", coreerrors.Wrap(err, "failed to read HEAD")
	}
	if ref.Type() != plumbing.SymbolicReference {
		return "", &coreerrors.AdapterError{Command: "head", Message: "repository is in detached HEAD state"}
	}
	return ref.Target(), nil
}

// IsAncestor reports whether commitSha is an ancestor of (or equal to) ref.
func (a *Adapter) IsAncestor(ctx context.Context, repoPath string, commitSha plumbing.Hash, ref string) (bool, error) {
	_, err := runGit(ctx, repoPath, "merge-base", "--is-ancestor", commitSha.String(), ref)
	if err == nil {
		return true, nil
	}
	var adapterErr *coreerrors.AdapterError
	if coreerrors.As(err, &adapterErr) {
		// exit code 1 means "not an ancestor", distinguished from a real
		// failure only by the absence of stderr output.
		if adapterErr.Message == "" {
			return false, nil
		}
	}
	return false, err
}

// MergeBase returns the best common ancestor of a and b, or ok=false if they
// share no history.
func (a *Adapter) MergeBase(ctx context.Context, repoPath string, x, y string) (plumbing.Hash, bool, error) {
	out, err := runGit(ctx, repoPath, "merge-base", x, y)
	if err != nil {
		var adapterErr *coreerrors.AdapterError
		if coreerrors.As(err, &adapterErr) && adapterErr.Message == "" {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, err
	}
	return plumbing.NewHash(out), true, nil
}

// GetWorkingTreeStatus reports the working tree status via a
// `git status --porcelain=v2 --branch --untracked-files` invocation,
// parsed into domain.WorkingTree's bucketed shape.
func (a *Adapter) GetWorkingTreeStatus(ctx context.Context, repoPath string) (domain.WorkingTree, error) {
	out, err := runGit(ctx, repoPath, "status", "--porcelain=v2", "--branch", "--untracked-files")
	if err != nil {
		return domain.WorkingTree{}, err
	}
	return parseStatusPorcelainV2(out).toWorkingTree(repoPath)
}

// ReadCommit loads a single commit's metadata by sha.
func (a *Adapter) ReadCommit(_ context.Context, repoPath string, sha plumbing.Hash) (domain.Commit, error) {
	repo, err := a.open(repoPath)
	if err != nil {
		return domain.Commit{}, err
	}
	c, err := repo.CommitObject(sha)
	if err != nil {
		return domain.Commit{}, coreerrors.Wrapf(err, "failed to read commit %s", sha)
	}
	commit := domain.Commit{
		Sha:          c.Hash,
		Subject:      firstLine(c.Message),
		AuthoredAtMs: c.Author.When.UnixMilli(),
	}
	if len(c.ParentHashes) > 0 {
		commit.ParentSha = c.ParentHashes[0]
	}
	return commit, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

var _ gitadapter.Reader = (*Adapter)(nil)
