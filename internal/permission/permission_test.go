package permission_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aviator-co/stackcore/internal/permission"
)

func TestCanDeleteBranch(t *testing.T) {
	require.Equal(t, permission.ReasonIsTrunk,
		permission.CanDeleteBranch(permission.DeleteBranchState{IsTrunk: true}).Reason)
	require.Equal(t, permission.ReasonIsCheckedOut,
		permission.CanDeleteBranch(permission.DeleteBranchState{IsCurrent: true}).Reason)
	require.True(t, permission.CanDeleteBranch(permission.DeleteBranchState{}).Allowed)
}

func TestCanRebaseToTrunk_RulePriority(t *testing.T) {
	// no-trunk wins even if other fields would also deny.
	d := permission.CanRebaseToTrunk(permission.RebaseToTrunkState{
		HasTrunk:              false,
		IsDirectlyOffTrunk:    false,
		HasUncommittedChanges: true,
	})
	require.Equal(t, permission.ReasonNoTrunk, d.Reason)

	d = permission.CanRebaseToTrunk(permission.RebaseToTrunkState{
		HasTrunk:           true,
		IsDirectlyOffTrunk: true,
		IsBaseOnTrunkHead:  true,
	})
	require.Equal(t, permission.ReasonAlreadyOnTrunkHead, d.Reason)

	d = permission.CanRebaseToTrunk(permission.RebaseToTrunkState{
		HasTrunk:              true,
		IsDirectlyOffTrunk:    true,
		HasUncommittedChanges: true,
	})
	require.Equal(t, permission.ReasonDirtyWorkingTree, d.Reason)
	require.False(t, d.Allowed)

	d = permission.CanRebaseToTrunk(permission.RebaseToTrunkState{
		HasTrunk:           true,
		IsDirectlyOffTrunk: true,
	})
	require.True(t, d.Allowed)
}

func TestPredicatesArePure(t *testing.T) {
	s := permission.SquashState{IsRemote: true}
	d1 := permission.CanSquash(s)
	d2 := permission.CanSquash(s)
	require.Equal(t, d1, d2)
	require.Equal(t, permission.SquashState{IsRemote: true}, s)
}

func TestEveryDenialHasUniqueMessage(t *testing.T) {
	seen := map[string]permission.Reason{}
	check := func(d permission.Decision) {
		if d.Allowed {
			return
		}
		if existing, ok := seen[d.Message]; ok {
			require.Equal(t, existing, d.Reason, "message %q reused for a different reason", d.Message)
		} else {
			seen[d.Message] = d.Reason
		}
	}
	check(permission.CanDeleteBranch(permission.DeleteBranchState{IsTrunk: true}))
	check(permission.CanRenameBranch(permission.RenameBranchState{IsRemote: true}))
	check(permission.CanCreateWorktree(permission.CreateWorktreeState{HasWorktree: true}))
	check(permission.CanEditMessage(permission.EditMessageState{IsTrunk: true}))
	check(permission.CanSquash(permission.SquashState{ParentIsTrunk: true}))
	check(permission.CanRebaseToTrunk(permission.RebaseToTrunkState{HasTrunk: true}))
}
