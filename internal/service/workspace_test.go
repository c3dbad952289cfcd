package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/service"
)

var _ = Describe("WorkspaceService", func() {
	var (
		ctx context.Context
		sp  *mockStoreProvider
		svc service.WorkspaceService
	)

	BeforeEach(func() {
		ctx = context.Background()
		sp = newMockStoreProvider()
		svc = service.NewWorkspaceService(sp)
	})

	It("assembles workspaces with members, projects and tasks", func() {
		sp.workspaces.listByUserFn = func(_ context.Context, userID string) ([]model.Workspace, error) {
			Expect(userID).To(Equal("user_1"))
			return []model.Workspace{{ID: "org_1", Name: "Acme"}, {ID: "org_2", Name: "Beta"}}, nil
		}
		sp.wsMembers.listByWorkspaceFn = func(_ context.Context, wsID string) ([]model.WorkspaceMember, error) {
			return []model.WorkspaceMember{member("user_1", wsID, model.RoleAdmin, "a@acme.io")}, nil
		}
		sp.projects.listByWorkspaceFn = func(_ context.Context, wsID string) ([]model.Project, error) {
			if wsID == "org_1" {
				return []model.Project{{ID: 10, WorkspaceID: wsID, Name: "Apollo"}}, nil
			}
			return []model.Project{}, nil
		}
		sp.projectMembers.listByProjectFn = func(_ context.Context, projectID int64) ([]model.ProjectMember, error) {
			return []model.ProjectMember{{ProjectID: projectID, UserID: "user_1"}}, nil
		}
		sp.tasks.listByProjectFn = func(_ context.Context, projectID int64) ([]model.Task, error) {
			return []model.Task{{ID: 100, ProjectID: projectID, Title: "Ship"}}, nil
		}

		result, err := svc.ListForUser(ctx, "user_1")

		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(HaveLen(2))
		Expect(result[0].ID).To(Equal("org_1"))
		Expect(result[0].Members).To(HaveLen(1))
		Expect(result[0].Projects).To(HaveLen(1))
		Expect(result[0].Projects[0].Members).To(HaveLen(1))
		Expect(result[0].Projects[0].Tasks[0].Title).To(Equal("Ship"))
		Expect(result[1].ID).To(Equal("org_2"))
		Expect(result[1].Projects).To(BeEmpty())
	})

	It("propagates store errors", func() {
		sp.workspaces.listByUserFn = func(context.Context, string) ([]model.Workspace, error) {
			return []model.Workspace{{ID: "org_1"}}, nil
		}
		sp.projects.listByWorkspaceFn = func(context.Context, string) ([]model.Project, error) {
			return nil, errors.New("connection reset")
		}

		_, err := svc.ListForUser(ctx, "user_1")
		Expect(err).To(MatchError(ContainSubstring("connection reset")))
	})
})
