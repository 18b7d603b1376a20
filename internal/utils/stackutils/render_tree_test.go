package stackutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aviator-co/stackcore/internal/domain"
)

func plainRender(c *domain.UiCommit) string {
	return c.Subject
}

func TestRenderTree_EmptyStackIsEmptyString(t *testing.T) {
	require.Equal(t, "", RenderTree(nil, plainRender))
	require.Equal(t, "", RenderTree(&domain.UiStack{}, plainRender))
}

func TestRenderTree_LinearSpineHasNoBranchGlyphs(t *testing.T) {
	stack := &domain.UiStack{
		IsTrunk: true,
		Commits: []*domain.UiCommit{
			{Subject: "first"},
			{Subject: "second"},
		},
	}
	out := RenderTree(stack, plainRender)
	require.Contains(t, out, "first")
	require.Contains(t, out, "second")
	require.False(t, strings.Contains(out, "┴"))
}

func TestRenderTree_SpinoffIndentsAndJoins(t *testing.T) {
	spinoff := &domain.UiStack{
		Commits: []*domain.UiCommit{
			{Subject: "feature commit"},
		},
	}
	stack := &domain.UiStack{
		IsTrunk: true,
		Commits: []*domain.UiCommit{
			{Subject: "root", Spinoffs: []*domain.UiStack{spinoff}},
		},
	}
	out := RenderTree(stack, plainRender)
	lines := strings.Split(out, "\n")
	require.Contains(t, out, "feature commit")
	require.Contains(t, out, "root")
	// The spinoff's commit line is rendered above root's own marker line.
	require.Less(t, indexOf(lines, "feature commit"), indexOf(lines, "root"))
}

func TestRenderTree_TwoSpinoffsDrawAMergeGlyph(t *testing.T) {
	a := &domain.UiStack{Commits: []*domain.UiCommit{{Subject: "a"}}}
	b := &domain.UiStack{Commits: []*domain.UiCommit{{Subject: "b"}}}
	stack := &domain.UiStack{
		IsTrunk: true,
		Commits: []*domain.UiCommit{
			{Subject: "root", Spinoffs: []*domain.UiStack{a, b}},
		},
	}
	out := RenderTree(stack, plainRender)
	require.Contains(t, out, "┴")
}

func indexOf(lines []string, needle string) int {
	for i, l := range lines {
		if strings.Contains(l, needle) {
			return i
		}
	}
	return -1
}
