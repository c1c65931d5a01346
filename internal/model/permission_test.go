package model

import "testing"

func TestPermissionsFor(t *testing.T) {
	const creator, assignee, stranger = 1, 2, 3

	assigned := Task{ID: 10, CreatorID: creator, Assignee: &Assignee{ID: assignee, Email: "a@example.com"}}
	selfAssigned := Task{ID: 11, CreatorID: creator, Assignee: &Assignee{ID: creator}}
	legacy := Task{ID: 12, CreatorID: creator, AssigneeID: assignee}
	unassigned := Task{ID: 13, CreatorID: creator}

	tests := []struct {
		name   string
		userID int
		task   Task
		want   Permissions
	}{
		{"creator", creator, assigned, Permissions{CanDelete: true, CanReassign: true}},
		{"assignee", assignee, assigned, Permissions{CanEdit: true, CanToggle: true, CanDelete: true}},
		{"stranger", stranger, assigned, Permissions{}},
		{"unauthenticated", 0, assigned, Permissions{}},
		{"creator and assignee", creator, selfAssigned, Permissions{CanEdit: true, CanToggle: true, CanDelete: true, CanReassign: true}},
		{"assignee id without object", assignee, legacy, Permissions{CanEdit: true, CanToggle: true, CanDelete: true}},
		{"unassigned creator", creator, unassigned, Permissions{CanDelete: true, CanReassign: true}},
		{"unassigned stranger", stranger, unassigned, Permissions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PermissionsFor(tt.userID, tt.task); got != tt.want {
				t.Errorf("PermissionsFor(%d) = %+v, want %+v", tt.userID, got, tt.want)
			}
		})
	}
}

func TestPermissionsForAllCombinations(t *testing.T) {
	for user := 0; user <= 4; user++ {
		for creator := 0; creator <= 4; creator++ {
			for assignee := 0; assignee <= 4; assignee++ {
				task := Task{CreatorID: creator}
				if assignee != 0 {
					task.Assignee = &Assignee{ID: assignee}
				}
				p := PermissionsFor(user, task)
				isCreator := user != 0 && user == creator
				isAssignee := user != 0 && user == assignee
				if p.CanReassign != isCreator {
					t.Errorf("user %d creator %d: CanReassign = %v", user, creator, p.CanReassign)
				}
				if p.CanEdit != isAssignee || p.CanToggle != isAssignee {
					t.Errorf("user %d assignee %d: edit/toggle = %v/%v", user, assignee, p.CanEdit, p.CanToggle)
				}
				if p.CanDelete != (isCreator || isAssignee) {
					t.Errorf("user %d: CanDelete = %v", user, p.CanDelete)
				}
				if !isCreator && !isAssignee && p.Any() {
					t.Errorf("user %d unrelated to task but got %+v", user, p)
				}
			}
		}
	}
}
