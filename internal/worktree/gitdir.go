// Package worktree implements stale-worktree detection and the small
// filesystem utilities the rebase executor needs around multi-worktree
// repositories, grounded on go-git's own Worktree/Storer abstractions and
// the .git-file resolution idiom internal/gitadapter/govcs reimplements
// against this module's domain types.
package worktree

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aviator-co/stackcore/internal/coreerrors"
)

// gitFilePrefix is the content go checks a worktree's ".git" file against;
// a plain repository has a ".git" directory instead of this pointer file.
const gitFilePrefix = "gitdir: "

// GitDirResolver resolves a repository or worktree path to its real git
// directory, caching per-path since the pointer file never moves without
// the worktree itself being recreated.
type GitDirResolver struct {
	mu    sync.Mutex
	cache map[string]string
}

func NewGitDirResolver() *GitDirResolver {
	return &GitDirResolver{cache: map[string]string{}}
}

// Resolve returns the git directory for path: if path/.git is a directory,
// that's the answer; if it's a file, it contains a "gitdir: <target>" line
// (as created for linked worktrees) whose target is resolved relative to
// path when not absolute.
func (r *GitDirResolver) Resolve(path string) (string, error) {
	r.mu.Lock()
	if cached, ok := r.cache[path]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	dotGit := filepath.Join(path, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", coreerrors.WrapIff(err, "failed to stat %q", dotGit)
	}

	var gitDir string
	if info.IsDir() {
		gitDir = dotGit
	} else {
		data, err := os.ReadFile(dotGit)
		if err != nil {
			return "", coreerrors.WrapIff(err, "failed to read %q", dotGit)
		}
		line := strings.TrimSpace(string(data))
		if !strings.HasPrefix(line, gitFilePrefix) {
			return "", &coreerrors.Validation{Reason: "malformed-git-file", Message: "unrecognized .git file contents at " + dotGit}
		}
		target := strings.TrimPrefix(line, gitFilePrefix)
		if !filepath.IsAbs(target) {
			target = filepath.Join(path, target)
		}
		gitDir = filepath.Clean(target)
	}

	r.mu.Lock()
	r.cache[path] = gitDir
	r.mu.Unlock()
	return gitDir, nil
}
