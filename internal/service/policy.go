package service

import (
	"github.com/mtlprog/teamtask/internal/domain"
)

// Capabilities is what one actor may do with one task.
type Capabilities struct {
	CanEdit       bool `json:"can_edit"`
	CanDelete     bool `json:"can_delete"`
	CanComment    bool `json:"can_comment"`
	CanReassign   bool `json:"can_reassign"`
	CanCreateTask bool `json:"can_create_task"`
	CanAttach     bool `json:"can_attach"`
}

// CapabilitiesFor derives the capability set of actor on task.
// A nil membership means the actor is not in the task's project and gets nothing.
// task may be nil when only project-level capabilities are needed.
func CapabilitiesFor(actor domain.ActorContext, membership *domain.ProjectMembership, task *domain.Task) Capabilities {
	if membership == nil || membership.UserID != actor.UserID {
		return Capabilities{}
	}

	lead := isLead(membership.Role)
	caps := Capabilities{
		CanComment:    true,
		CanAttach:     true,
		CanCreateTask: lead,
	}
	if task == nil {
		return caps
	}

	caps.CanEdit = lead || task.IsAssignedTo(actor.UserID) || task.IsCreatedBy(actor.UserID)
	caps.CanDelete = lead || task.IsCreatedBy(actor.UserID)
	caps.CanReassign = caps.CanEdit
	return caps
}

// CanDeleteAttachment reports whether actor may remove attachment.
func CanDeleteAttachment(actor domain.ActorContext, membership *domain.ProjectMembership, attachment *domain.Attachment) bool {
	if membership == nil || membership.UserID != actor.UserID {
		return false
	}
	return isLead(membership.Role) || attachment.UploadedByUserID == actor.UserID
}

func isLead(role domain.ProjectRole) bool {
	switch role {
	case domain.ProjectRoleLead:
		return true
	case domain.ProjectRoleMember, domain.ProjectRoleContributor:
		return false
	default:
		return false
	}
}
