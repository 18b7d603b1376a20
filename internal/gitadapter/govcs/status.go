package govcs

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/stackcore/internal/domain"
)

// parsedStatus is the intermediate porcelain-v2 parse result, bucketed by
// staged/modified/created/deleted/renamed/untracked/conflicted to match
// domain.WorkingTree's shape.
type parsedStatus struct {
	oid           string
	branch        string
	upstream      string
	detached      bool
	staged        []string
	modified      []string
	created       []string
	deleted       []string
	renamed       []string
	untracked     []string
	conflicted    []string
}

var (
	patternBranchOID        = regexp.MustCompile(`^# branch\.oid ([0-9a-f]+)`)
	patternBranchOIDInitial = regexp.MustCompile(`^# branch\.oid \(initial\)`)
	patternBranchHead       = regexp.MustCompile(`^# branch\.head (.+)`)
	patternBranchUpstream   = regexp.MustCompile(`^# branch\.upstream (.+)`)
)

// parseStatusPorcelainV2 parses the output of
// `git status --porcelain=v2 --branch --untracked-files`, following the
// teacher's line-by-line regex dispatch in internal/git/status.go but
// splitting ordinary/renamed entries by their XY change-type codes into
// domain.WorkingTree's per-kind buckets.
func parseStatusPorcelainV2(output string) parsedStatus {
	var st parsedStatus
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case '#':
			parseStatusHeaderLine(line, &st)
		case '1':
			parseOrdinaryLine(line, &st)
		case '2':
			parseRenamedLine(line, &st)
		case 'u':
			parseUnmergedLine(line, &st)
		case '?':
			st.untracked = append(st.untracked, line[2:])
		}
	}
	return st
}

func parseStatusHeaderLine(line string, st *parsedStatus) {
	if m := patternBranchOID.FindStringSubmatch(line); m != nil {
		st.oid = m[1]
		return
	}
	if patternBranchOIDInitial.MatchString(line) {
		st.oid = ""
		return
	}
	if m := patternBranchHead.FindStringSubmatch(line); m != nil {
		if m[1] == "(detached)" {
			st.detached = true
		} else {
			st.branch = m[1]
		}
		return
	}
	if m := patternBranchUpstream.FindStringSubmatch(line); m != nil {
		st.upstream = m[1]
		return
	}
}

// parseOrdinaryLine handles a "1 XY sub mH mI mW hH hI path" entry.
func parseOrdinaryLine(line string, st *parsedStatus) {
	fields := strings.SplitN(line, " ", 9)
	if len(fields) != 9 {
		return
	}
	xy := fields[1]
	path := fields[8]
	classifyChange(xy[0], xy[1], path, st)
}

// parseRenamedLine handles a "2 XY sub mH mI mW hH hI X<score> path<TAB>orig" entry.
func parseRenamedLine(line string, st *parsedStatus) {
	fields := strings.SplitN(line, " ", 10)
	if len(fields) != 10 {
		return
	}
	xy := fields[1]
	path := fields[9]
	if idx := strings.IndexByte(path, '\t'); idx >= 0 {
		path = path[:idx]
	}
	st.renamed = append(st.renamed, path)
	if xy[0] != '.' {
		st.staged = append(st.staged, path)
	}
}

// parseUnmergedLine handles a "u XY sub m1 m2 m3 mW h1 h2 h3 path" entry.
func parseUnmergedLine(line string, st *parsedStatus) {
	fields := strings.SplitN(line, " ", 11)
	if len(fields) != 11 {
		return
	}
	st.conflicted = append(st.conflicted, fields[10])
}

// classifyChange buckets a path by its index (x) and worktree (y) status
// codes. A path with a staged change is always recorded in Staged; it's
// additionally bucketed into modified/created/deleted by whichever side
// (index or worktree) actually carries a change, preferring the worktree
// side since that's what a user resolving conflicts cares about.
func classifyChange(x, y byte, path string, st *parsedStatus) {
	if x != '.' {
		st.staged = append(st.staged, path)
	}
	code := y
	if code == '.' {
		code = x
	}
	switch code {
	case 'A':
		st.created = append(st.created, path)
	case 'D':
		st.deleted = append(st.deleted, path)
	case 'M', 'T', 'C':
		st.modified = append(st.modified, path)
	}
}

func (st parsedStatus) toWorkingTree(repoPath string) (domain.WorkingTree, error) {
	wt := domain.WorkingTree{
		Detached:   st.detached,
		Staged:     st.staged,
		Modified:   st.modified,
		Created:    st.created,
		Deleted:    st.deleted,
		Renamed:    st.renamed,
		Untracked:  st.untracked,
		Conflicted: st.conflicted,
	}
	if st.oid != "" {
		wt.CurrentCommitSha = plumbing.NewHash(st.oid)
	}
	if st.branch != "" {
		wt.CurrentBranch = plumbing.NewBranchReferenceName(st.branch)
	}
	if st.upstream != "" {
		wt.Tracking = plumbing.ReferenceName(st.upstream)
	}
	rebasing, err := isRebaseInProgress(repoPath)
	if err != nil {
		return domain.WorkingTree{}, err
	}
	wt.IsRebasing = rebasing
	return wt, nil
}

// isRebaseInProgress checks for the rebase-merge/rebase-apply state
// directories git leaves behind while a rebase is interrupted by a conflict.
func isRebaseInProgress(repoPath string) (bool, error) {
	dir, err := gitDir(repoPath)
	if err != nil {
		return false, err
	}
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		if info, statErr := os.Stat(filepath.Join(dir, name)); statErr == nil && info.IsDir() {
			return true, nil
		}
	}
	return false, nil
}
