// Package stackutils renders a domain.UiStack tree for terminal display,
// drawing the same box-drawing tree shape over UiCommit.Spinoffs, since
// this module attaches branch points to commits rather than to a separate
// node-per-branch tree.
package stackutils

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aviator-co/stackcore/internal/domain"
)

// CommitRenderFunc renders the per-commit annotation (branch names, PR
// status, rebase status) shown to the right of a commit's marker. An empty
// return value collapses to a single marker line with no annotation.
type CommitRenderFunc func(commit *domain.UiCommit) string

// RenderTree renders stack, the trunk spine and every nested spinoff lane,
// as a single box-drawing tree.
func RenderTree(stack *domain.UiStack, renderFn CommitRenderFunc) string {
	if stack == nil || len(stack.Commits) == 0 {
		return ""
	}
	return strings.TrimSuffix(renderSpine(0, stack, renderFn), "\n")
}

// renderSpine renders one UiStack's commits oldest-first, each preceded
// (drawn above) by its spinoffs' sub-trees, each spinoff in its own column
// further right.
func renderSpine(columns int, stack *domain.UiStack, renderFn CommitRenderFunc) string {
	sb := strings.Builder{}
	for _, commit := range stack.Commits {
		sb.WriteString(renderCommit(columns, commit, renderFn))
	}
	return sb.String()
}

func renderCommit(columns int, commit *domain.UiCommit, renderFn CommitRenderFunc) string {
	sb := strings.Builder{}

	n := len(commit.Spinoffs)
	for i, spinoff := range commit.Spinoffs {
		sb.WriteString(renderSpine(columns+i+1, spinoff, renderFn))
	}
	if n > 1 {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat(" │", columns))
		sb.WriteString(" ├")
		sb.WriteString(strings.Repeat("─┴", n-1))
		sb.WriteString("─┘")
		sb.WriteString("\n")
	} else if n == 1 {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat(" │", columns+1))
		sb.WriteString("\n")
	} else if columns > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat(" │", columns))
		sb.WriteString("\n")
	}

	firstLine := " " + strings.Repeat(" │", columns) + " * "
	contLine := " " + strings.Repeat(" │", columns+1) + " "

	annotation := strings.TrimSuffix(renderFn(commit), "\n")
	height := lipgloss.Height(annotation)
	lhs := firstLine
	for i := 0; i < height-1; i++ {
		lhs += "\n" + contLine
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, lhs, annotation))
	sb.WriteString("\n")
	return sb.String()
}
