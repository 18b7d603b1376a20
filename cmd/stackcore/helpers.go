package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/config"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/forge"
	"github.com/aviator-co/stackcore/internal/forge/githubforge"
	"github.com/aviator-co/stackcore/internal/gitadapter"
	"github.com/aviator-co/stackcore/internal/gitadapter/govcs"
	"github.com/aviator-co/stackcore/internal/rebase"
	"github.com/aviator-co/stackcore/internal/repograph"
	"github.com/aviator-co/stackcore/internal/sessionstore"
	"github.com/aviator-co/stackcore/internal/worktree"
)

var (
	adapterOnce sync.Once
	adapter     gitadapter.Adapter

	resolverOnce sync.Once
	resolver     *worktree.GitDirResolver

	storeOnce  sync.Once
	store      *sessionstore.Store
	storeErr   error
	jobCounter int64

	forgeOnce sync.Once
	forgeInst forge.Forge
)

func getAdapter() gitadapter.Adapter {
	adapterOnce.Do(func() {
		adapter = govcs.New()
	})
	return adapter
}

func getResolver() *worktree.GitDirResolver {
	resolverOnce.Do(func() {
		resolver = worktree.NewGitDirResolver()
	})
	return resolver
}

// getRepoPath resolves the repository's working tree root, honoring the
// --repo/-C flag via rootFlags.Directory.
func getRepoPath(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	if rootFlags.Directory != "" {
		cmd.Dir = rootFlags.Directory
	}
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "failed to find git repository root (are you running inside a repo?)")
	}
	return strings.TrimSpace(string(out)), nil
}

// resolveGitCommonDir is used by the root command's PersistentPreRunE to
// locate a repo-local config/session directory before a subcommand's own
// repo path resolution runs.
func resolveGitCommonDir(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--path-format=absolute", "--git-common-dir")
	if rootFlags.Directory != "" {
		cmd.Dir = rootFlags.Directory
	}
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine git common dir")
	}
	return strings.TrimSpace(string(out)), nil
}

func getSnapshot(ctx context.Context, repoPath string) (domain.RepoSnapshot, error) {
	return repograph.BuildSnapshot(ctx, getAdapter(), repoPath, repograph.Options{
		AdditionalTrunkBranches: config.Core.Repository.AdditionalTrunkBranches,
	})
}

func getStore(repoPath string) (*sessionstore.Store, error) {
	storeOnce.Do(func() {
		gitDir, err := getResolver().Resolve(repoPath)
		if err != nil {
			storeErr = err
			return
		}
		store, storeErr = sessionstore.Open(filepath.Join(gitDir, "stackcore", "sessions.json"))
	})
	return store, storeErr
}

// getForge derives a githubforge.Client from the configured remote's URL,
// or returns nil if there's no token configured or the remote doesn't
// look like a GitHub repository — in either case stack rendering falls
// back to showing no PR annotations rather than failing the command.
func getForge(ctx context.Context, repoPath string) forge.Forge {
	forgeOnce.Do(func() {
		if config.Core.GitHub.Token == "" {
			return
		}
		remotes, err := getAdapter().ListRemotes(ctx, repoPath)
		if err != nil {
			logrus.WithError(err).Debug("failed to list remotes while resolving forge")
			return
		}
		var remoteURL string
		for _, r := range remotes {
			if r.Name == config.Core.Repository.RemoteName {
				remoteURL = r.URL
				break
			}
		}
		if remoteURL == "" {
			return
		}
		owner, repo, err := githubforge.DeriveOwnerRepo(remoteURL)
		if err != nil {
			logrus.WithError(err).Debug("remote URL doesn't look like a GitHub repository")
			return
		}
		client, err := githubforge.NewClient(config.Core.GitHub.Token, owner, repo)
		if err != nil {
			logrus.WithError(err).Debug("failed to build GitHub forge client")
			return
		}
		forgeInst = client
	})
	return forgeInst
}

// resolveTarget accepts either a local branch name (as shown by the `stack`
// command) or anything the adapter itself can resolve (a sha, a full ref,
// "HEAD~2", etc.), preferring an exact branch match since that's what a
// user reads off the stack tree.
func resolveTarget(ctx context.Context, reader gitadapter.Reader, repoPath string, snapshot domain.RepoSnapshot, arg string) (plumbing.Hash, error) {
	for _, b := range snapshot.Branches {
		if b.IsGhost() || b.IsRemote {
			continue
		}
		if b.LocalName() == arg {
			return b.HeadSha, nil
		}
	}
	sha, err := reader.ResolveRef(ctx, repoPath, arg)
	if err != nil {
		return plumbing.ZeroHash, &coreerrors.Validation{Reason: "unknown-sha", Message: "could not resolve " + arg + " to a branch or commit"}
	}
	return sha, nil
}

// genJobID mints process-unique job IDs; production code has no need for
// IDs to survive past this process's lifetime (they're only ever compared
// within one session's JobsByID map), unlike state_test.go's deterministic
// seqIDGen.
func genJobID(branch plumbing.ReferenceName) string {
	n := atomic.AddInt64(&jobCounter, 1)
	return branch.Short() + "-" + strconv.FormatInt(n, 10)
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

func newSessionID() string {
	return "session-" + strconv.FormatInt(nowMs(), 10)
}

func newIntentID() string {
	return "intent-" + strconv.FormatInt(nowMs(), 10)
}

// jobIDGenForPlan returns a fresh genJobID-equivalent so each invocation of
// `plan` numbers its preview independently of any live session's counter.
func jobIDGenForPlan() rebase.JobIDGenerator {
	var n int64
	return func(branch plumbing.ReferenceName) string {
		n++
		return branch.Short() + "-" + strconv.FormatInt(n, 10)
	}
}
