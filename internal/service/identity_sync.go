package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"tasklane.app/server/common"
	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/model"
)

// Identity provider event types.
const (
	EventUserCreated                = "user.created"
	EventUserUpdated                = "user.updated"
	EventUserDeleted                = "user.deleted"
	EventOrganizationCreated        = "organization.created"
	EventOrganizationUpdated        = "organization.updated"
	EventOrganizationDeleted        = "organization.deleted"
	EventOrganizationInvitationUsed = "organizationInvitation.accepted"
)

// IdentityEvent is one webhook delivery from the identity provider.
type IdentityEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

type userEventData struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	ImageURL          *string `json:"image_url"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

func (d userEventData) avatar() *string {
	if d.ImageURL != nil && *d.ImageURL != "" {
		return d.ImageURL
	}
	if d.ProfilePictureURL != nil && *d.ProfilePictureURL != "" {
		return d.ProfilePictureURL
	}
	return nil
}

func (d userEventData) email() string {
	if len(d.EmailAddresses) > 0 && d.EmailAddresses[0].EmailAddress != "" {
		return normalizeEmail(d.EmailAddresses[0].EmailAddress)
	}
	return normalizeEmail(d.Email)
}

func (d userEventData) name() string {
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		return d.email()
	}
	return name
}

type organizationEventData struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	CreatedBy string  `json:"created_by"`
	ImageURL  *string `json:"image_url"`
}

type invitationEventData struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	RoleName       string `json:"role_name"`
}

type deletedEventData struct {
	ID string `json:"id"`
}

// IdentitySyncService mirrors identity-provider users, organizations and
// memberships. Every handler is an idempotent upsert or delete keyed by the
// provider id, so redelivered events are harmless.
type IdentitySyncService interface {
	Handle(ctx context.Context, event IdentityEvent) error
}

type identitySyncService struct {
	txRunner TxRunner
}

func NewIdentitySyncService(txRunner TxRunner) IdentitySyncService {
	return &identitySyncService{txRunner: txRunner}
}

func (s *identitySyncService) Handle(ctx context.Context, event IdentityEvent) error {
	eventType := event.Type
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventType: &eventType,
		Component: "tasklane.identity_sync",
	})

	var err error
	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		err = s.upsertUser(ctx, event.Data)
	case EventUserDeleted:
		err = s.deleteUser(ctx, event.Data)
	case EventOrganizationCreated:
		err = s.upsertWorkspace(ctx, event.Data, true)
	case EventOrganizationUpdated:
		err = s.upsertWorkspace(ctx, event.Data, false)
	case EventOrganizationDeleted:
		err = s.deleteWorkspace(ctx, event.Data)
	case EventOrganizationInvitationUsed:
		err = s.acceptInvitation(ctx, event.Data)
	default:
		slog.InfoContext(ctx, "ignoring identity event", "event_id", event.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("handling %s: %w", event.Type, err)
	}

	slog.InfoContext(ctx, "identity event applied", "event_id", event.ID)
	return nil
}

func (s *identitySyncService) upsertUser(ctx context.Context, raw json.RawMessage) error {
	var data userEventData
	if err := decodeEventData(raw, &data); err != nil {
		return err
	}
	if data.ID == "" {
		return invalid("user id is required")
	}
	email := data.email()
	if email == "" {
		return invalid("user email is required")
	}

	user := &model.User{
		ID:        data.ID,
		Email:     email,
		Name:      data.name(),
		AvatarURL: data.avatar(),
	}
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Users().Upsert(ctx, user); err != nil {
			return fmt.Errorf("upserting user: %w", err)
		}
		return nil
	})
}

func (s *identitySyncService) deleteUser(ctx context.Context, raw json.RawMessage) error {
	var data deletedEventData
	if err := decodeEventData(raw, &data); err != nil {
		return err
	}
	if data.ID == "" {
		return invalid("user id is required")
	}
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Users().Delete(ctx, data.ID); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		return nil
	})
}

// upsertWorkspace mirrors an organization. On creation the creator also
// becomes an ADMIN, in the same transaction.
func (s *identitySyncService) upsertWorkspace(ctx context.Context, raw json.RawMessage, created bool) error {
	var data organizationEventData
	if err := decodeEventData(raw, &data); err != nil {
		return err
	}
	if data.ID == "" {
		return invalid("organization id is required")
	}
	if created && data.CreatedBy == "" {
		return invalid("organization created_by is required")
	}

	// Generated slugs carry part of the organization id so equal names do
	// not collide and replays produce the same slug.
	slug := data.Slug
	if slug == "" {
		var err error
		slug, err = common.SlugWithSuffix(data.Name, "workspace", slugSuffix(data.ID))
		if err != nil {
			return fmt.Errorf("generating slug: %w", err)
		}
	}

	ws := &model.Workspace{
		ID:       data.ID,
		Name:     data.Name,
		Slug:     slug,
		OwnerID:  data.CreatedBy,
		ImageURL: data.ImageURL,
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &ws.ID})

	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if !created {
			existing, err := sp.Workspaces().GetByID(ctx, ws.ID)
			if err == nil {
				if ws.OwnerID == "" {
					ws.OwnerID = existing.OwnerID
				}
				if ws.Name == "" {
					ws.Name = existing.Name
				}
				if data.Slug == "" {
					ws.Slug = existing.Slug
				}
			}
		}

		if err := sp.Workspaces().Upsert(ctx, ws); err != nil {
			return fmt.Errorf("upserting workspace: %w", err)
		}
		if !created {
			return nil
		}

		if err := sp.WorkspaceMembers().Upsert(ctx, &model.WorkspaceMember{
			UserID:      data.CreatedBy,
			WorkspaceID: ws.ID,
			Role:        model.RoleAdmin,
		}); err != nil {
			return fmt.Errorf("adding workspace admin: %w", err)
		}
		return nil
	})
}

func (s *identitySyncService) deleteWorkspace(ctx context.Context, raw json.RawMessage) error {
	var data deletedEventData
	if err := decodeEventData(raw, &data); err != nil {
		return err
	}
	if data.ID == "" {
		return invalid("organization id is required")
	}
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Workspaces().Delete(ctx, data.ID); err != nil {
			return fmt.Errorf("deleting workspace: %w", err)
		}
		return nil
	})
}

func (s *identitySyncService) acceptInvitation(ctx context.Context, raw json.RawMessage) error {
	var data invitationEventData
	if err := decodeEventData(raw, &data); err != nil {
		return err
	}
	if data.UserID == "" || data.OrganizationID == "" {
		return invalid("invitation user_id and organization_id are required")
	}

	member := &model.WorkspaceMember{
		UserID:      data.UserID,
		WorkspaceID: data.OrganizationID,
		Role:        NormalizeRole(data.RoleName),
	}
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.WorkspaceMembers().Upsert(ctx, member); err != nil {
			return fmt.Errorf("upserting workspace member: %w", err)
		}
		return nil
	})
}

// NormalizeRole maps provider role names such as "org:admin" or "admin" to
// ADMIN and everything else to MEMBER.
func NormalizeRole(roleName string) model.Role {
	name := strings.ToLower(strings.TrimSpace(roleName))
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	if name == "admin" {
		return model.RoleAdmin
	}
	return model.RoleMember
}

func decodeEventData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return invalid("event data is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalid("malformed event data: %v", err)
	}
	return nil
}

// slugSuffix is the trailing six alphanumerics of an organization id.
func slugSuffix(orgID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(orgID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 6 {
		out = out[len(out)-6:]
	}
	return out
}
