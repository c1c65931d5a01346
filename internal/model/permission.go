package model

// Permissions is the set of actions a user may take on a task. These
// are UI affordances only; the store enforces its own rules.
type Permissions struct {
	CanEdit     bool
	CanToggle   bool
	CanDelete   bool
	CanReassign bool
}

// PermissionsFor derives what userID may do with task. The creator
// reassigns and deletes; the assignee edits, completes and deletes.
// Anyone else, including an unauthenticated user (id 0), gets nothing.
func PermissionsFor(userID int, task Task) Permissions {
	if userID == 0 {
		return Permissions{}
	}
	isCreator := task.CreatorID != 0 && userID == task.CreatorID
	isAssignee := task.AssigneeRef() != 0 && userID == task.AssigneeRef()
	return Permissions{
		CanEdit:     isAssignee,
		CanToggle:   isAssignee,
		CanDelete:   isCreator || isAssignee,
		CanReassign: isCreator,
	}
}

// Any reports whether at least one action is allowed.
func (p Permissions) Any() bool {
	return p.CanEdit || p.CanToggle || p.CanDelete || p.CanReassign
}
