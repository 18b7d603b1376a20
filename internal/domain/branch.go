package domain

import "github.com/go-git/go-git/v5/plumbing"

// Branch is a named ref as the user sees it (e.g. "main" or
// "origin/feature/x"). A Branch with an empty HeadSha is a ghost: it is
// skipped by every predicate and projection in this module.
type Branch struct {
	// Ref is the full name as visible to the user.
	Ref plumbing.ReferenceName

	IsTrunk  bool
	IsRemote bool
	HeadSha  plumbing.Hash
}

// IsGhost reports whether the branch head is empty or unresolvable.
func (b Branch) IsGhost() bool {
	return b.HeadSha.IsZero()
}

// LocalName strips any "refs/heads/" or "refs/remotes/<remote>/" prefix and
// returns the branch's name as a user would type it, e.g. "feature/x".
func (b Branch) LocalName() string {
	name := b.Ref.Short()
	if !b.IsRemote {
		return name
	}
	// A remote ref's Short() form is "<remote>/<branch>"; strip the first
	// path segment.
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
