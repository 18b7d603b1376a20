// Package permission implements pure, exhaustive decision tables: each
// predicate is a pure total function from entity state to
// Allowed | Denied{reason, message}, with a fixed rule priority so denial
// messages stay stable and testable.
//
// Rather than checking these conditions ad hoc per command (e.g. scattering
// a self- or descendant-reparent rejection across each planner), this
// package centralizes them into one table per concern, built in the same
// "first rule that denies wins" idiom.
package permission

// Reason is a closed enum of denial reasons. Each predicate has its own set
// of possible reasons (documented per function below); message text is
// fixed per reason so it is stable and testable.
type Reason string

const (
	ReasonIsTrunk              Reason = "is-trunk"
	ReasonIsCheckedOut         Reason = "is-checked-out"
	ReasonIsRemote             Reason = "is-remote"
	ReasonHasWorktree          Reason = "has-worktree"
	ReasonNotHead              Reason = "not-head"
	ReasonNoBranch             Reason = "no-branch"
	ReasonParentIsTrunk        Reason = "parent-is-trunk"
	ReasonNoTrunk              Reason = "no-trunk"
	ReasonNotOffTrunk          Reason = "not-off-trunk"
	ReasonAlreadyOnTrunkHead   Reason = "already-on-trunk-head"
	ReasonDirtyWorkingTree     Reason = "dirty-working-tree"
)

var messages = map[Reason]string{
	ReasonIsTrunk:            "the trunk branch cannot be modified this way",
	ReasonIsCheckedOut:       "this branch is currently checked out",
	ReasonIsRemote:           "remote branches cannot be modified locally",
	ReasonHasWorktree:        "this branch already has a worktree",
	ReasonNotHead:            "only the branch tip commit's message can be edited",
	ReasonNoBranch:           "there is no branch here to squash",
	ReasonParentIsTrunk:      "cannot squash a commit whose parent is trunk",
	ReasonNoTrunk:            "no trunk branch could be identified",
	ReasonNotOffTrunk:        "this branch is not based directly on trunk",
	ReasonAlreadyOnTrunkHead: "this branch's base is already trunk's head",
	ReasonDirtyWorkingTree:   "the working tree has uncommitted changes",
}

// Decision is the result of a predicate: either Allowed or Denied with a
// Reason and its stable Message.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r Reason) Decision {
	return Decision{Allowed: false, Reason: r, Message: messages[r]}
}

// DeleteBranchState is the input to CanDeleteBranch.
type DeleteBranchState struct {
	IsTrunk   bool
	IsCurrent bool
}

// CanDeleteBranch: is_trunk -> is-trunk; is_current -> is-checked-out.
func CanDeleteBranch(s DeleteBranchState) Decision {
	if s.IsTrunk {
		return deny(ReasonIsTrunk)
	}
	if s.IsCurrent {
		return deny(ReasonIsCheckedOut)
	}
	return allow()
}

// RenameBranchState is the input to CanRenameBranch.
type RenameBranchState struct {
	IsTrunk  bool
	IsRemote bool
}

// CanRenameBranch: is_trunk -> is-trunk; is_remote -> is-remote.
func CanRenameBranch(s RenameBranchState) Decision {
	if s.IsTrunk {
		return deny(ReasonIsTrunk)
	}
	if s.IsRemote {
		return deny(ReasonIsRemote)
	}
	return allow()
}

// CreateWorktreeState is the input to CanCreateWorktree.
type CreateWorktreeState struct {
	IsTrunk     bool
	IsRemote    bool
	HasWorktree bool
}

// CanCreateWorktree: is_trunk -> is-trunk; is_remote -> is-remote;
// has_worktree -> has-worktree.
func CanCreateWorktree(s CreateWorktreeState) Decision {
	if s.IsTrunk {
		return deny(ReasonIsTrunk)
	}
	if s.IsRemote {
		return deny(ReasonIsRemote)
	}
	if s.HasWorktree {
		return deny(ReasonHasWorktree)
	}
	return allow()
}

// EditMessageState is the input to CanEditMessage.
type EditMessageState struct {
	IsHead  bool
	IsTrunk bool
}

// CanEditMessage: is_trunk -> is-trunk; !is_head -> not-head.
func CanEditMessage(s EditMessageState) Decision {
	if s.IsTrunk {
		return deny(ReasonIsTrunk)
	}
	if !s.IsHead {
		return deny(ReasonNotHead)
	}
	return allow()
}

// SquashState is the input to CanSquash.
type SquashState struct {
	IsTrunk       bool
	IsRemote      bool
	HasBranch     bool
	ParentIsTrunk bool
}

// CanSquash: is_trunk -> is-trunk; is_remote -> is-remote; !has_branch ->
// no-branch; parent_is_trunk -> parent-is-trunk.
func CanSquash(s SquashState) Decision {
	if s.IsTrunk {
		return deny(ReasonIsTrunk)
	}
	if s.IsRemote {
		return deny(ReasonIsRemote)
	}
	if !s.HasBranch {
		return deny(ReasonNoBranch)
	}
	if s.ParentIsTrunk {
		return deny(ReasonParentIsTrunk)
	}
	return allow()
}

// RebaseToTrunkState is the input to CanRebaseToTrunk.
type RebaseToTrunkState struct {
	HasTrunk              bool
	IsDirectlyOffTrunk    bool
	IsBaseOnTrunkHead     bool
	HasUncommittedChanges bool
}

// CanRebaseToTrunk: !has_trunk -> no-trunk; !is_directly_off_trunk ->
// not-off-trunk; is_base_on_trunk_head -> already-on-trunk-head;
// has_uncommitted_changes -> dirty-working-tree.
func CanRebaseToTrunk(s RebaseToTrunkState) Decision {
	if !s.HasTrunk {
		return deny(ReasonNoTrunk)
	}
	if !s.IsDirectlyOffTrunk {
		return deny(ReasonNotOffTrunk)
	}
	if s.IsBaseOnTrunkHead {
		return deny(ReasonAlreadyOnTrunkHead)
	}
	if s.HasUncommittedChanges {
		return deny(ReasonDirtyWorkingTree)
	}
	return allow()
}
