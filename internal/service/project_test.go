package service_test

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/common/id"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/service"
	"tasklane.app/server/internal/store"
)

var _ = Describe("ProjectService", func() {
	const (
		wsID      = "org_1"
		projectID = int64(500)
	)

	var (
		ctx context.Context
		sp  *mockStoreProvider
		tx  *mockTxRunner
		svc service.ProjectService
	)

	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
		ctx = context.Background()
		sp = newMockStoreProvider()
		tx = txOver(sp)
		svc = service.NewProjectService(tx)

		sp.workspaces.getByIDFn = func(_ context.Context, id string) (*model.Workspace, error) {
			if id == wsID {
				return &model.Workspace{ID: wsID, Name: "Acme"}, nil
			}
			return nil, store.ErrNotFound
		}
		sp.wsMembers.listByWorkspaceFn = func(context.Context, string) ([]model.WorkspaceMember, error) {
			return []model.WorkspaceMember{
				member("admin", wsID, model.RoleAdmin, "admin@acme.io"),
				member("lead", wsID, model.RoleMember, "lead@acme.io"),
				member("dev", wsID, model.RoleMember, "dev@acme.io"),
			}, nil
		}
		sp.users.getByEmailFn = func(_ context.Context, email string) (*model.User, error) {
			switch email {
			case "lead@acme.io":
				return &model.User{ID: "lead", Email: email}, nil
			case "dev@acme.io":
				return &model.User{ID: "dev", Email: email}, nil
			case "outsider@else.io":
				return &model.User{ID: "outsider", Email: email}, nil
			}
			return nil, store.ErrNotFound
		}
	})

	Describe("Create", func() {
		It("creates the project with the lead and workspace members only", func() {
			project, err := svc.Create(ctx, "admin", service.CreateProjectInput{
				WorkspaceID:   wsID,
				Name:          "  Apollo ",
				TeamLeadEmail: "Lead@Acme.io",
				TeamMembers:   []string{"dev@acme.io", "outsider@else.io"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(project.ID).NotTo(BeZero())
			Expect(project.Name).To(Equal("Apollo"))
			Expect(project.Status).To(Equal(model.ProjectStatusPlanning))
			Expect(project.Priority).To(Equal(model.PriorityMedium))
			Expect(*project.TeamLeadID).To(Equal("lead"))
			Expect(sp.projects.createCalls).To(Equal(1))

			var ids []string
			for _, m := range project.Members {
				ids = append(ids, m.UserID)
				Expect(m.ProjectID).To(Equal(project.ID))
			}
			Expect(ids).To(ConsistOf("lead", "dev"))
			Expect(sp.projectMembers.created).To(HaveLen(2))
		})

		It("creates without a lead when the email is unknown", func() {
			project, err := svc.Create(ctx, "admin", service.CreateProjectInput{
				WorkspaceID:   wsID,
				Name:          "Apollo",
				TeamLeadEmail: "ghost@acme.io",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(project.TeamLeadID).To(BeNil())
			Expect(project.Members).To(BeEmpty())
		})

		It("requires a workspace admin", func() {
			_, err := svc.Create(ctx, "dev", service.CreateProjectInput{WorkspaceID: wsID, Name: "Apollo"})
			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			Expect(sp.projects.createCalls).To(BeZero())
		})

		It("returns not found for an unknown workspace", func() {
			_, err := svc.Create(ctx, "admin", service.CreateProjectInput{WorkspaceID: "org_x", Name: "Apollo"})
			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
			Expect(err.Error()).To(Equal("Workspace Not Found"))
		})

		DescribeTable("rejects invalid input before touching the store",
			func(in service.CreateProjectInput) {
				_, err := svc.Create(ctx, "admin", in)
				Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
				Expect(tx.calls).To(BeZero())
			},
			Entry("missing name", service.CreateProjectInput{WorkspaceID: wsID}),
			Entry("missing workspace", service.CreateProjectInput{Name: "Apollo"}),
			Entry("progress over 100", service.CreateProjectInput{WorkspaceID: wsID, Name: "Apollo", Progress: 101}),
			Entry("unknown status", service.CreateProjectInput{WorkspaceID: wsID, Name: "Apollo", Status: "ARCHIVED"}),
			Entry("unknown priority", service.CreateProjectInput{WorkspaceID: wsID, Name: "Apollo", Priority: "URGENT"}),
		)
	})

	Context("with an existing project", func() {
		BeforeEach(func() {
			lead := "lead"
			sp.projects.getByIDFn = func(_ context.Context, id int64) (*model.Project, error) {
				if id != projectID {
					return nil, store.ErrNotFound
				}
				return &model.Project{
					ID:          projectID,
					WorkspaceID: wsID,
					Name:        "Apollo",
					Status:      model.ProjectStatusActive,
					Priority:    model.PriorityLow,
					TeamLeadID:  &lead,
				}, nil
			}
		})

		Describe("Update", func() {
			It("lets the team lead change fields", func() {
				status := model.ProjectStatusOnHold
				progress := int32(40)
				var saved *model.Project
				sp.projects.updateFn = func(_ context.Context, p *model.Project) error {
					saved = p
					return nil
				}

				project, err := svc.Update(ctx, "lead", projectID, service.UpdateProjectInput{
					Status:   &status,
					Progress: &progress,
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(project.Status).To(Equal(model.ProjectStatusOnHold))
				Expect(project.Progress).To(Equal(int32(40)))
				Expect(project.Name).To(Equal("Apollo"))
				Expect(saved).NotTo(BeNil())
			})

			It("forbids members who are not the lead", func() {
				_, err := svc.Update(ctx, "dev", projectID, service.UpdateProjectInput{Name: strPtr("X")})
				Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			})

			It("returns not found for an unknown project", func() {
				_, err := svc.Update(ctx, "admin", 1, service.UpdateProjectInput{})
				Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
			})
		})

		Describe("AddMember", func() {
			BeforeEach(func() {
				sp.wsMembers.getFn = func(_ context.Context, ws, userID string) (*model.WorkspaceMember, error) {
					if ws == wsID && (userID == "dev" || userID == "lead") {
						return &model.WorkspaceMember{UserID: userID, WorkspaceID: ws, Role: model.RoleMember}, nil
					}
					return nil, store.ErrNotFound
				}
			})

			It("adds a workspace member", func() {
				m, err := svc.AddMember(ctx, "admin", projectID, " DEV@acme.io ")
				Expect(err).NotTo(HaveOccurred())
				Expect(m.UserID).To(Equal("dev"))
				Expect(m.ProjectID).To(Equal(projectID))
				Expect(sp.projectMembers.created).To(HaveLen(1))
			})

			It("returns not found for an unknown user", func() {
				_, err := svc.AddMember(ctx, "admin", projectID, "ghost@acme.io")
				Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
				Expect(err.Error()).To(Equal("User not found"))
			})

			It("returns conflict when already a member", func() {
				sp.projectMembers.listByProjectFn = func(context.Context, int64) ([]model.ProjectMember, error) {
					return []model.ProjectMember{{ProjectID: projectID, UserID: "dev"}}, nil
				}
				_, err := svc.AddMember(ctx, "admin", projectID, "dev@acme.io")
				Expect(errors.Is(err, service.ErrConflict)).To(BeTrue())
				Expect(sp.projectMembers.created).To(BeEmpty())
			})

			It("rejects users outside the workspace without persisting", func() {
				_, err := svc.AddMember(ctx, "admin", projectID, "outsider@else.io")
				Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
				Expect(sp.projectMembers.created).To(BeEmpty())
			})

			It("maps a unique violation to conflict", func() {
				sp.projectMembers.createFn = func(context.Context, *model.ProjectMember) error {
					return &pgconn.PgError{Code: "23505"}
				}
				_, err := svc.AddMember(ctx, "admin", projectID, "dev@acme.io")
				Expect(errors.Is(err, service.ErrConflict)).To(BeTrue())
			})

			It("forbids plain members", func() {
				_, err := svc.AddMember(ctx, "dev", projectID, "dev@acme.io")
				Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			})
		})
	})
})
