// Package coreerrors implements this module's closed error taxonomy as
// typed values satisfying the standard error interface, built on
// emperror.dev/errors for wrapping, sentinels and unwrapping.
package coreerrors

import (
	"fmt"

	"emperror.dev/errors"
)

// Validation covers permission denial, unknown sha/ref, empty head, or a
// cycle detected in user-supplied targets.
type Validation struct {
	Reason  string
	Message string
}

func (e *Validation) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Reason, e.Message)
}

// ConcurrencyConflict covers session store version_mismatch/not_found
// during an update.
type ConcurrencyConflict struct {
	Reason string // "version_mismatch" | "not_found"
}

func (e *ConcurrencyConflict) Error() string {
	return fmt.Sprintf("concurrency conflict: %s", e.Reason)
}

// WorktreeConflict reports that a branch is checked out elsewhere.
type WorktreeConflict struct {
	Branch       string
	WorktreePath string
	IsDirty      bool
}

func (e *WorktreeConflict) Error() string {
	return fmt.Sprintf(
		"branch %q is checked out in worktree %q (dirty=%v)",
		e.Branch, e.WorktreePath, e.IsDirty,
	)
}

// RebaseConflict carries the conflicted paths the adapter reported during
// an apply. This is not an error at the state-machine level (it becomes
// an awaiting-user transition), but the executor and adapter boundary
// still need a typed value to carry the paths up to the caller that
// invoked a non-resumable one-shot operation.
type RebaseConflict struct {
	ConflictedPaths []string
}

func (e *RebaseConflict) Error() string {
	return fmt.Sprintf("rebase conflict in %d file(s)", len(e.ConflictedPaths))
}

// AdapterError wraps any unrecognized failure from the Git adapter.
type AdapterError struct {
	Command string
	Message string
	Cause   error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("git adapter command %q failed: %s", e.Command, e.Message)
}

func (e *AdapterError) Unwrap() error { return e.Cause }

// ForgeErrorKind is a closed HTTP-like status taxonomy for forge failures.
type ForgeErrorKind string

const (
	ForgeAuth          ForgeErrorKind = "auth"
	ForgeNotFound      ForgeErrorKind = "not-found"
	ForgeForbidden     ForgeErrorKind = "forbidden"
	ForgeNotMergeable  ForgeErrorKind = "not-mergeable"
	ForgeConflict      ForgeErrorKind = "conflict"
	ForgeRateLimited   ForgeErrorKind = "rate-limited"
	ForgeUnknown       ForgeErrorKind = "unknown"
)

// ForgeError wraps a failed forge operation.
type ForgeError struct {
	Kind    ForgeErrorKind
	Message string
	Cause   error
}

func (e *ForgeError) Error() string {
	return fmt.Sprintf("forge error (%s): %s", e.Kind, e.Message)
}

func (e *ForgeError) Unwrap() error { return e.Cause }

// HumanSummary renders a short, user-facing summary for a forge error kind.
func (e *ForgeError) HumanSummary() string {
	switch e.Kind {
	case ForgeAuth:
		return "authentication with the forge failed; check your token"
	case ForgeNotFound:
		return "the requested resource was not found on the forge"
	case ForgeForbidden:
		return "you don't have permission to do that on the forge"
	case ForgeNotMergeable:
		return "the pull request is not currently mergeable"
	case ForgeConflict:
		return "the forge reported a conflicting state"
	case ForgeRateLimited:
		return "the forge rate-limited this request; try again later"
	default:
		return "an unexpected forge error occurred"
	}
}

// InvariantViolation reports a should-never-happen condition. It is fatal
// to the session that triggered it; the session is aborted and the
// violation is logged, but the offending state is preserved for diagnostics
// rather than discarded.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Message)
}

// New, Wrap, WrapIff, Sentinel re-export emperror.dev/errors' constructors
// so callers in this module don't need two separate "errors" imports.
var (
	New      = errors.New
	Errorf   = errors.Errorf
	Wrap      = errors.Wrap
	Wrapf     = errors.Wrapf
	WrapIf    = errors.WrapIf
	WrapIff   = errors.WrapIff
	Sentinel  = errors.Sentinel
	As        = errors.As
)
