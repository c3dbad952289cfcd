package model

import "time"

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Rank orders roles so that ADMIN satisfies any MEMBER requirement.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Workspace mirrors an identity-provider organization.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"ownerId"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WorkspaceMember struct {
	UserID      string `json:"userId"`
	WorkspaceID string `json:"workspaceId"`
	Role        Role   `json:"role"`
	User        *User  `json:"user,omitempty"`
}
