package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/kr/text"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/utils/errutils"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

// renderError formats err for a non-debug terminal: a bold red "error:"
// label, the message, and — for the taxonomy's user-actionable cases — a
// one-line hint about what to do next, built from lipgloss+fatih/color+
// kr/text only (no markdown rendering dependency).
func renderError(err error) string {
	var sb strings.Builder
	sb.WriteString(errorLabel.Sprint("error: "))
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if hint := hintFor(err); hint != "" {
		sb.WriteString(hintStyle.Render(text.Indent(hint, "  ")))
		sb.WriteString("\n")
	}
	return sb.String()
}

func hintFor(err error) string {
	if _, ok := errutils.As[*coreerrors.Validation](err); ok {
		return "this action isn't allowed in the current repository state."
	}

	if worktreeConflict, ok := errutils.As[*coreerrors.WorktreeConflict](err); ok {
		return fmt.Sprintf(
			"branch %q is checked out in another worktree at %q; switch away from it first.",
			worktreeConflict.Branch, worktreeConflict.WorktreePath,
		)
	}

	if concurrencyConflict, ok := errutils.As[*coreerrors.ConcurrencyConflict](err); ok {
		if concurrencyConflict.Reason == "not_found" {
			return "no rebase session is in progress for this repository."
		}
		return "another process updated the rebase session concurrently; retry the command."
	}

	if forgeErr, ok := errutils.As[*coreerrors.ForgeError](err); ok {
		return forgeErr.HumanSummary()
	}

	if _, ok := errutils.As[*coreerrors.InvariantViolation](err); ok {
		return "this looks like a bug in stackcore itself; please file an issue with --debug output."
	}

	return ""
}
