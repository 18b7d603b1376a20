package rebase_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/rebase"
)

func TestCreateRebasePlan_FlattensRootBeforeChildren(t *testing.T) {
	intent := domain.Intent{
		Targets: []domain.Target{
			{
				Node: &domain.NodeState{
					Branch:  "refs/heads/parent",
					HeadSha: h("p-head"),
					BaseSha: h("p-base"),
					Children: []*domain.NodeState{
						{Branch: "refs/heads/child-a", HeadSha: h("a-head"), BaseSha: h("p-head")},
						{Branch: "refs/heads/child-b", HeadSha: h("b-head"), BaseSha: h("p-head")},
					},
				},
				TargetBaseSha: h("p-newbase"),
			},
		},
	}

	plan := rebase.CreateRebasePlan(intent, seqIDGen())
	require.Len(t, plan.Jobs, 3)
	require.Equal(t, 0, plan.Jobs[0].Depth)
	require.Equal(t, 1, plan.Jobs[1].Depth)
	require.Equal(t, 1, plan.Jobs[2].Depth)
}

func TestCreateRebasePlan_EmptyIntent(t *testing.T) {
	plan := rebase.CreateRebasePlan(domain.Intent{}, seqIDGen())
	require.Empty(t, plan.Jobs)
}
