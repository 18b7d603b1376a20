// Package govcs is the concrete gitadapter.Adapter backend: go-git for
// traversal/read operations and a subprocess git binary for everything
// go-git doesn't support well (rebase-style patch application, worktree
// management, push) — go-git for refs/history, exec.Command("git", ...)
// for merge-base ancestry queries and rebase/apply/push.
package govcs

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/gitadapter"
)

// Adapter implements gitadapter.Adapter. It is stateless across calls
// (every method takes the repo path explicitly, as a constructor-injected
// capability rather than an ambient singleton) but caches opened
// *git.Repository handles per path since PlainOpen re-walks the filesystem
// for the .git directory on every call.
type Adapter struct {
	repos map[string]*git.Repository
}

// New returns a ready-to-use Adapter.
func New() *Adapter {
	return &Adapter{repos: make(map[string]*git.Repository)}
}

func (a *Adapter) open(repoPath string) (*git.Repository, error) {
	if repo, ok := a.repos[repoPath]; ok {
		return repo, nil
	}
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, coreerrors.Wrapf(err, "failed to open git repository at %q", repoPath)
	}
	a.repos[repoPath] = repo
	return repo, nil
}

// runGit shells out to the git binary, the same way internal/git.Repo.Git
// does: CommandContext, repo dir as cwd, trimmed stdout, stderr captured
// from *exec.ExitError for diagnostics.
func runGit(ctx context.Context, repoPath string, args ...string) (string, error) {
	out, _, err := runGitFull(ctx, repoPath, nil, nil, args...)
	return out, err
}

// runGitEnv is runGit with additional environment variables appended, used
// to pass commit authorship and askpass credentials to a subprocess without
// touching the parent process's environment.
func runGitEnv(ctx context.Context, repoPath string, extraEnv []string, args ...string) (string, error) {
	out, _, err := runGitFull(ctx, repoPath, nil, extraEnv, args...)
	return out, err
}

// runGitStdin is runGit with a byte stream piped to the command's stdin,
// used for format-patch/am piping the same way internal/git.Run accepts
// RunOpts.Stdin.
func runGitStdin(ctx context.Context, repoPath string, stdin []byte, args ...string) (string, string, error) {
	return runGitFull(ctx, repoPath, stdin, nil, args...)
}

// runGitStdinEnv combines runGitStdin and runGitEnv: a piped stdin plus
// extra environment. ApplyPatch's `git am` calls it with no extra
// environment.
func runGitStdinEnv(ctx context.Context, repoPath string, stdin []byte, extraEnv []string, args ...string) (string, string, error) {
	return runGitFull(ctx, repoPath, stdin, extraEnv, args...)
}

func runGitFull(ctx context.Context, repoPath string, stdin []byte, extraEnv []string, args ...string) (string, string, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath
	cmd.Env = append(append(os.Environ(), "GIT_EDITOR=true"), extraEnv...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	log := logrus.WithFields(logrus.Fields{"args": args, "elapsed": time.Since(start)})
	if err != nil {
		log.WithField("stderr", stderr.String()).Debug("git command failed")
		return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), &coreerrors.AdapterError{
			Command: strings.Join(args, " "),
			Message: strings.TrimSpace(stderr.String()),
			Cause:   err,
		}
	}
	log.Debug("git command succeeded")
	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), nil
}

// gitDir resolves the .git directory for repoPath, following a `gitdir:`
// pointer file for linked worktrees.
func gitDir(repoPath string) (string, error) {
	p := filepath.Join(repoPath, ".git")
	info, err := os.Stat(p)
	if err != nil {
		return "", coreerrors.Wrapf(err, "failed to stat %q", p)
	}
	if info.IsDir() {
		return p, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", coreerrors.Wrapf(err, "failed to read gitdir pointer %q", p)
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir: "
	if !strings.HasPrefix(line, prefix) {
		return "", coreerrors.Errorf("malformed gitdir pointer file %q", p)
	}
	target := strings.TrimPrefix(line, prefix)
	if !filepath.IsAbs(target) {
		target = filepath.Join(repoPath, target)
	}
	return filepath.Clean(target), nil
}

var _ gitadapter.Adapter = (*Adapter)(nil)
