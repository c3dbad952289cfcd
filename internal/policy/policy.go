// Package policy decides who may act on workspaces and projects.
// All functions are pure: callers load the membership snapshot and pass it in.
package policy

import "tasklane.app/server/internal/model"

// CanActOnWorkspace reports whether actor holds a membership on workspaceID
// whose role is at least required.
func CanActOnWorkspace(actorID string, members []model.WorkspaceMember, workspaceID string, required model.Role) bool {
	if actorID == "" {
		return false
	}
	for _, m := range members {
		if m.UserID == actorID && m.WorkspaceID == workspaceID {
			return m.Role.Rank() >= required.Rank()
		}
	}
	return false
}

// CanActOnProject allows workspace admins of the project's workspace and the
// project's team lead.
func CanActOnProject(actorID string, project *model.Project, members []model.WorkspaceMember) bool {
	if actorID == "" || project == nil {
		return false
	}
	if project.TeamLeadID != nil && *project.TeamLeadID == actorID {
		return true
	}
	return CanActOnWorkspace(actorID, members, project.WorkspaceID, model.RoleAdmin)
}

// IsWorkspaceMember reports whether userID has any membership on workspaceID.
func IsWorkspaceMember(userID string, members []model.WorkspaceMember, workspaceID string) bool {
	return CanActOnWorkspace(userID, members, workspaceID, model.RoleMember)
}

// IsProjectMember reports whether userID is among the project's members.
func IsProjectMember(userID string, members []model.ProjectMember) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
