package service_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/service"
	"tasklane.app/server/internal/store"
)

var _ = Describe("IdentitySyncService", func() {
	var (
		ctx        context.Context
		sp         *mockStoreProvider
		tx         *mockTxRunner
		svc        service.IdentitySyncService
		users      map[string]model.User
		workspaces map[string]model.Workspace
		members    map[[2]string]model.WorkspaceMember
	)

	event := func(eventType string, data any) service.IdentityEvent {
		raw, err := json.Marshal(data)
		Expect(err).NotTo(HaveOccurred())
		return service.IdentityEvent{ID: "evt_1", Type: eventType, Data: raw}
	}

	BeforeEach(func() {
		ctx = context.Background()
		sp = newMockStoreProvider()
		tx = txOver(sp)
		svc = service.NewIdentitySyncService(tx)

		users = map[string]model.User{}
		workspaces = map[string]model.Workspace{}
		members = map[[2]string]model.WorkspaceMember{}

		sp.users.upsertFn = func(_ context.Context, u *model.User) error {
			users[u.ID] = *u
			return nil
		}
		sp.users.deleteFn = func(_ context.Context, id string) error {
			delete(users, id)
			return nil
		}
		sp.workspaces.getByIDFn = func(_ context.Context, id string) (*model.Workspace, error) {
			ws, ok := workspaces[id]
			if !ok {
				return nil, store.ErrNotFound
			}
			return &ws, nil
		}
		sp.workspaces.upsertFn = func(_ context.Context, ws *model.Workspace) error {
			workspaces[ws.ID] = *ws
			return nil
		}
		sp.workspaces.deleteFn = func(_ context.Context, id string) error {
			delete(workspaces, id)
			return nil
		}
		sp.wsMembers.upsertFn = func(_ context.Context, m *model.WorkspaceMember) error {
			members[[2]string{m.WorkspaceID, m.UserID}] = *m
			return nil
		}
	})

	Describe("user events", func() {
		It("upserts a user with a composed name and normalized email", func() {
			Expect(svc.Handle(ctx, event(service.EventUserCreated, map[string]any{
				"id":              "user_1",
				"first_name":      "Ada",
				"last_name":       "Lovelace",
				"email_addresses": []map[string]string{{"email_address": "Ada@Example.com"}},
				"image_url":       "https://img.example.com/ada.png",
			}))).To(Succeed())

			Expect(users).To(HaveKey("user_1"))
			Expect(users["user_1"].Name).To(Equal("Ada Lovelace"))
			Expect(users["user_1"].Email).To(Equal("ada@example.com"))
			Expect(*users["user_1"].AvatarURL).To(Equal("https://img.example.com/ada.png"))
		})

		It("uses the provider profile picture when image_url is absent", func() {
			Expect(svc.Handle(ctx, event(service.EventUserCreated, map[string]any{
				"id":                  "user_4",
				"email":               "linus@example.com",
				"profile_picture_url": "https://workoscdn.example.com/linus.jpg",
			}))).To(Succeed())
			Expect(*users["user_4"].AvatarURL).To(Equal("https://workoscdn.example.com/linus.jpg"))
		})

		It("falls back to the email when the name is empty", func() {
			Expect(svc.Handle(ctx, event(service.EventUserUpdated, map[string]any{
				"id":    "user_2",
				"email": "grace@example.com",
			}))).To(Succeed())
			Expect(users["user_2"].Name).To(Equal("grace@example.com"))
		})

		It("treats deleting an unknown user as a no-op", func() {
			Expect(svc.Handle(ctx, event(service.EventUserDeleted, map[string]any{"id": "ghost"}))).To(Succeed())
			Expect(users).To(BeEmpty())
		})

		It("rejects a user without an email", func() {
			err := svc.Handle(ctx, event(service.EventUserCreated, map[string]any{"id": "user_3"}))
			Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
		})
	})

	Describe("organization events", func() {
		created := func() service.IdentityEvent {
			return event(service.EventOrganizationCreated, map[string]any{
				"id":         "org_1",
				"name":       "Acme Corp",
				"created_by": "user_1",
			})
		}

		It("is idempotent across replays of organization.created", func() {
			Expect(svc.Handle(ctx, created())).To(Succeed())
			Expect(svc.Handle(ctx, created())).To(Succeed())

			Expect(workspaces).To(HaveLen(1))
			Expect(workspaces["org_1"].Slug).To(Equal("acme-corp-org1"))
			Expect(workspaces["org_1"].OwnerID).To(Equal("user_1"))
			Expect(members).To(HaveLen(1))
			Expect(members[[2]string{"org_1", "user_1"}].Role).To(Equal(model.RoleAdmin))
		})

		It("writes workspace and admin membership in one transaction", func() {
			Expect(svc.Handle(ctx, created())).To(Succeed())
			Expect(tx.calls).To(Equal(1))
		})

		It("fails the event when the membership cannot be written", func() {
			sp.wsMembers.upsertFn = func(context.Context, *model.WorkspaceMember) error {
				return errors.New("fk violation")
			}
			Expect(svc.Handle(ctx, created())).To(MatchError(ContainSubstring("fk violation")))
		})

		It("upserts an unknown organization on update and keeps the owner of a known one", func() {
			Expect(svc.Handle(ctx, event(service.EventOrganizationUpdated, map[string]any{
				"id": "org_2", "name": "Beta", "slug": "beta",
			}))).To(Succeed())
			Expect(workspaces).To(HaveKey("org_2"))

			Expect(svc.Handle(ctx, created())).To(Succeed())
			Expect(svc.Handle(ctx, event(service.EventOrganizationUpdated, map[string]any{
				"id": "org_1", "name": "Acme Inc",
			}))).To(Succeed())
			Expect(workspaces["org_1"].Name).To(Equal("Acme Inc"))
			Expect(workspaces["org_1"].OwnerID).To(Equal("user_1"))
			Expect(workspaces["org_1"].Slug).To(Equal("acme-corp-org1"), "a rename keeps the slug")
			Expect(members).To(HaveLen(1))
		})

		It("gives organizations with the same name distinct slugs", func() {
			Expect(svc.Handle(ctx, event(service.EventOrganizationCreated, map[string]any{
				"id": "org_01HZX8K2Q7", "name": "Acme Corp", "created_by": "user_1",
			}))).To(Succeed())
			Expect(svc.Handle(ctx, event(service.EventOrganizationCreated, map[string]any{
				"id": "org_01HZX9M4R1", "name": "Acme Corp", "created_by": "user_2",
			}))).To(Succeed())

			Expect(workspaces["org_01HZX8K2Q7"].Slug).To(Equal("acme-corp-x8k2q7"))
			Expect(workspaces["org_01HZX9M4R1"].Slug).To(Equal("acme-corp-x9m4r1"))
		})

		It("deletes an organization", func() {
			Expect(svc.Handle(ctx, created())).To(Succeed())
			Expect(svc.Handle(ctx, event(service.EventOrganizationDeleted, map[string]any{"id": "org_1"}))).To(Succeed())
			Expect(workspaces).To(BeEmpty())
		})
	})

	Describe("invitation accepted", func() {
		It("upserts the membership with a normalized role", func() {
			Expect(svc.Handle(ctx, event(service.EventOrganizationInvitationUsed, map[string]any{
				"user_id": "user_9", "organization_id": "org_1", "role_name": "org:admin",
			}))).To(Succeed())
			Expect(members[[2]string{"org_1", "user_9"}].Role).To(Equal(model.RoleAdmin))
		})
	})

	It("acknowledges unknown event types without writing", func() {
		Expect(svc.Handle(ctx, event("session.created", map[string]any{"id": "s"}))).To(Succeed())
		Expect(tx.calls).To(BeZero())
	})

	It("rejects malformed payloads", func() {
		err := svc.Handle(ctx, service.IdentityEvent{Type: service.EventUserCreated, Data: json.RawMessage(`[1,2]`)})
		Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
	})

	DescribeTable("NormalizeRole",
		func(in string, want model.Role) {
			Expect(service.NormalizeRole(in)).To(Equal(want))
		},
		Entry("prefixed admin", "org:admin", model.RoleAdmin),
		Entry("bare admin", "admin", model.RoleAdmin),
		Entry("upper case", " ADMIN ", model.RoleAdmin),
		Entry("member", "org:member", model.RoleMember),
		Entry("empty", "", model.RoleMember),
		Entry("unknown", "billing", model.RoleMember),
	)
})
