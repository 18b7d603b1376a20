// Package repograph builds a domain.RepoSnapshot — the normalized,
// in-memory repository model — by walking a gitadapter.Reader's branches
// and commit history. It is the one place this module turns "what the
// adapter reports" into the pure value type every other component
// (stackproj, rebase, executor) operates on.
//
// The walk (branch heads back to a trunk boundary) goes through the
// Reader capability rather than a concrete git library directly, since
// govcs is just one possible backend.
package repograph

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// historyDepth bounds how far back each branch head is walked. Stacks
// this module reasons about are expected to be shallow relative to
// trunk's full history; a few thousand commits comfortably covers any
// realistic spinoff chain while keeping the read bounded.
const historyDepth = 2000

// Options configures BuildSnapshot's trunk detection and worktree scope.
type Options struct {
	// AdditionalTrunkBranches are local branch names (e.g. "release")
	// that should be marked IsTrunk=true even though they aren't named
	// "main"/"master"/"develop"/"trunk" — config.Repository's knob.
	AdditionalTrunkBranches []string
}

// BuildSnapshot observes repoPath through reader and assembles a
// domain.RepoSnapshot: every local and remote-tracking branch, the
// working tree status, the list of worktrees, and the commit graph
// reachable from every branch head within historyDepth.
func BuildSnapshot(ctx context.Context, reader gitadapter.Reader, repoPath string, opts Options) (domain.RepoSnapshot, error) {
	workingTree, err := reader.GetWorkingTreeStatus(ctx, repoPath)
	if err != nil {
		return domain.RepoSnapshot{}, coreerrors.Wrap(err, "failed to read working tree status")
	}

	branches, err := collectBranches(ctx, reader, repoPath, opts)
	if err != nil {
		return domain.RepoSnapshot{}, err
	}

	commits, err := collectCommits(ctx, reader, repoPath, branches)
	if err != nil {
		return domain.RepoSnapshot{}, err
	}
	linkChildren(commits)

	worktrees, err := reader.ListWorktrees(ctx, repoPath, gitadapter.ListWorktreesOptions{})
	if err != nil {
		return domain.RepoSnapshot{}, coreerrors.Wrap(err, "failed to list worktrees")
	}

	return domain.RepoSnapshot{
		Path:               repoPath,
		ActiveWorktreePath: repoPath,
		Commits:            commits,
		Branches:           branches,
		WorkingTree:        workingTree,
		Worktrees:          worktrees,
	}, nil
}

func collectBranches(ctx context.Context, reader gitadapter.Reader, repoPath string, opts Options) ([]domain.Branch, error) {
	trunkNames := make(map[string]bool, len(opts.AdditionalTrunkBranches))
	for _, n := range opts.AdditionalTrunkBranches {
		trunkNames[strings.ToLower(n)] = true
	}

	var branches []domain.Branch

	localNames, err := reader.ListBranches(ctx, repoPath, gitadapter.ListBranchesOptions{})
	if err != nil {
		return nil, coreerrors.Wrap(err, "failed to list local branches")
	}
	for _, name := range localNames {
		b, err := resolveBranch(ctx, reader, repoPath, name, false, trunkNames)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}

	remotes, err := reader.ListRemotes(ctx, repoPath)
	if err != nil {
		return nil, coreerrors.Wrap(err, "failed to list remotes")
	}
	for _, remote := range remotes {
		remoteNames, err := reader.ListBranches(ctx, repoPath, gitadapter.ListBranchesOptions{Remote: remote.Name})
		if err != nil {
			return nil, coreerrors.Wrapf(err, "failed to list branches for remote %q", remote.Name)
		}
		for _, name := range remoteNames {
			b, err := resolveBranch(ctx, reader, repoPath, name, true, trunkNames)
			if err != nil {
				return nil, err
			}
			branches = append(branches, b)
		}
	}

	return branches, nil
}

func resolveBranch(ctx context.Context, reader gitadapter.Reader, repoPath string, name plumbing.ReferenceName, isRemote bool, trunkNames map[string]bool) (domain.Branch, error) {
	b := domain.Branch{Ref: name, IsRemote: isRemote}

	sha, err := reader.ResolveRef(ctx, repoPath, name.String())
	if err != nil {
		// A dangling or unresolvable ref is modeled as a ghost branch
		// rather than a failure, per domain.Branch.IsGhost.
		return b, nil
	}
	b.HeadSha = sha
	b.IsTrunk = trunkNames[strings.ToLower(b.LocalName())]
	return b, nil
}

func collectCommits(ctx context.Context, reader gitadapter.Reader, repoPath string, branches []domain.Branch) (map[string]domain.Commit, error) {
	commits := make(map[string]domain.Commit)
	for _, b := range branches {
		if b.IsGhost() {
			continue
		}
		if _, ok := commits[b.HeadSha.String()]; ok {
			continue
		}
		entries, err := reader.Log(ctx, repoPath, b.HeadSha.String(), gitadapter.LogOptions{Depth: historyDepth})
		if err != nil {
			return nil, coreerrors.Wrapf(err, "failed to walk history for %q", b.Ref)
		}
		for _, e := range entries {
			if _, ok := commits[e.Sha.String()]; ok {
				break // already merged in from a sibling branch's walk
			}
			c := domain.Commit{
				Sha:          e.Sha,
				Subject:      firstLine(e.Message),
				AuthoredAtMs: e.Author.TimeMs,
			}
			if len(e.Parents) > 0 {
				c.ParentSha = e.Parents[0]
			}
			commits[e.Sha.String()] = c
		}
	}
	return commits, nil
}

// linkChildren populates each commit's ChildrenSha as the inverse of
// ParentSha across the loaded set, per domain.Commit's documented
// invariant. stackproj recomputes this itself rather than trusting it,
// but callers that inspect a snapshot directly (the CLI's stack render)
// rely on it being populated.
func linkChildren(commits map[string]domain.Commit) {
	for _, c := range commits {
		if c.ParentSha.IsZero() {
			continue
		}
		parent, ok := commits[c.ParentSha.String()]
		if !ok {
			continue
		}
		parent.ChildrenSha = append(parent.ChildrenSha, c.Sha)
		commits[c.ParentSha.String()] = parent
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
