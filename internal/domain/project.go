package domain

import "time"

// ProjectRole is the role a user holds inside one project.
type ProjectRole string

const (
	ProjectRoleLead        ProjectRole = "Lead"
	ProjectRoleMember      ProjectRole = "Member"
	ProjectRoleContributor ProjectRole = "Contributor"
)

// IsValid checks if the role is one of the allowed values.
func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectRoleLead, ProjectRoleMember, ProjectRoleContributor:
		return true
	default:
		return false
	}
}

// Project groups tasks and members. The engine only reads it.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// ProjectMembership binds a user to a project with a role.
// Memberships are managed by the admin side and are read-only here.
type ProjectMembership struct {
	ProjectID  string
	UserID     string
	Role       ProjectRole
	AssignedAt time.Time
}

// IsLead reports whether the membership grants the Lead role.
func (m *ProjectMembership) IsLead() bool {
	return m != nil && m.Role == ProjectRoleLead
}
