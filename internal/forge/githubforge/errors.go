package githubforge

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aviator-co/stackcore/internal/coreerrors"
)

// classify maps a GraphQL or REST error message to the closed
// coreerrors.ForgeErrorKind taxonomy this module reasons about, so callers
// never need to pattern-match on GitHub's prose themselves.
func classify(err error) *coreerrors.ForgeError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	kind := coreerrors.ForgeUnknown
	switch {
	case strings.Contains(lower, "bad credentials"), strings.Contains(lower, "requires authentication"):
		kind = coreerrors.ForgeAuth
	case strings.Contains(lower, "could not resolve to a"), strings.Contains(lower, "not found"):
		kind = coreerrors.ForgeNotFound
	case strings.Contains(lower, "resource not accessible"):
		kind = coreerrors.ForgeForbidden
	case strings.Contains(lower, "not mergeable"), strings.Contains(lower, "is not in the correct state"):
		kind = coreerrors.ForgeNotMergeable
	case strings.Contains(lower, "merge conflict"), strings.Contains(lower, "conflict"):
		kind = coreerrors.ForgeConflict
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "secondary rate limit"):
		kind = coreerrors.ForgeRateLimited
	}
	return &coreerrors.ForgeError{Kind: kind, Message: msg, Cause: err}
}

// classifyHTTPStatus is restRequest's version of classify: GitHub's REST API
// conveys most of what we care about in the status code alone, so a failed
// REST call is classified primarily by status with the body folded into the
// message for diagnostics.
func classifyHTTPStatus(status int, endpoint, body string) *coreerrors.ForgeError {
	msg := fmt.Sprintf("GitHub API request to %s failed: %d: %s", endpoint, status, body)
	kind := coreerrors.ForgeUnknown
	switch status {
	case http.StatusUnauthorized:
		kind = coreerrors.ForgeAuth
	case http.StatusNotFound:
		kind = coreerrors.ForgeNotFound
	case http.StatusForbidden:
		kind = coreerrors.ForgeForbidden
	case http.StatusConflict:
		kind = coreerrors.ForgeConflict
	case http.StatusTooManyRequests:
		kind = coreerrors.ForgeRateLimited
	}
	return &coreerrors.ForgeError{Kind: kind, Message: msg}
}
