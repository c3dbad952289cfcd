package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/common/id"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/notification"
	"tasklane.app/server/internal/service"
	"tasklane.app/server/internal/store"
)

var _ = Describe("TaskService", func() {
	const (
		wsID      = "org_1"
		projectID = int64(500)
		appURL    = "https://app.tasklane.test"
	)

	var (
		ctx     context.Context
		sp      *mockStoreProvider
		starter *mockStarter
		svc     service.TaskService
	)

	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
		ctx = context.Background()
		sp = newMockStoreProvider()
		starter = &mockStarter{}
		svc = service.NewTaskService(txOver(sp), starter, appURL, time.UTC)

		lead := "lead"
		sp.projects.getByIDFn = func(_ context.Context, id int64) (*model.Project, error) {
			if id == projectID {
				return &model.Project{ID: projectID, WorkspaceID: wsID, TeamLeadID: &lead}, nil
			}
			if id == 501 {
				return &model.Project{ID: 501, WorkspaceID: wsID}, nil
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
		sp.projectMembers.listByProjectFn = func(context.Context, int64) ([]model.ProjectMember, error) {
			return []model.ProjectMember{
				{ProjectID: projectID, UserID: "lead"},
				{ProjectID: projectID, UserID: "dev"},
			}, nil
		}
	})

	Describe("Create", func() {
		validInput := func() service.CreateTaskInput {
			return service.CreateTaskInput{
				ProjectID:  projectID,
				Title:      "Write launch notes",
				AssigneeID: strPtr("dev"),
				DueDate:    "2026-03-02T17:00:00Z",
			}
		}

		It("creates the task and starts one assignment workflow", func() {
			task, err := svc.Create(ctx, "lead", validInput(), "https://web.tasklane.test")

			Expect(err).NotTo(HaveOccurred())
			Expect(task.ID).NotTo(BeZero())
			Expect(task.Type).To(Equal(model.TaskTypeTask))
			Expect(task.Status).To(Equal(model.TaskStatusTodo))
			Expect(task.Priority).To(Equal(model.PriorityMedium))
			Expect(task.DueDate).To(BeTemporally("==", time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)))
			Expect(sp.tasks.createCalls).To(Equal(1))

			Expect(starter.calls).To(Equal([]startCall{{
				workflow: notification.WorkflowTaskAssignment,
				taskID:   task.ID,
				origin:   "https://web.tasklane.test",
			}}))
		})

		It("falls back to the app URL when the request has no origin", func() {
			_, err := svc.Create(ctx, "admin", validInput(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(starter.calls).To(HaveLen(1))
			Expect(starter.calls[0].origin).To(Equal(appURL))
		})

		It("accepts a plain date as midnight in the configured zone", func() {
			in := validInput()
			in.DueDate = "2026-03-02"
			task, err := svc.Create(ctx, "lead", in, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(task.DueDate).To(BeTemporally("==", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
		})

		It("returns the task even when the workflow cannot be started", func() {
			starter.startFn = func(context.Context, string, int64, string) (*model.WorkflowRun, bool, error) {
				return nil, false, errors.New("redis down")
			}
			task, err := svc.Create(ctx, "lead", validInput(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(task).NotTo(BeNil())
		})

		It("forbids a member who is neither admin nor lead and writes nothing", func() {
			_, err := svc.Create(ctx, "dev", validInput(), "")

			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			Expect(sp.tasks.createCalls).To(BeZero())
			Expect(starter.calls).To(BeEmpty())
		})

		It("rejects an assignee who is not a project member", func() {
			in := validInput()
			in.AssigneeID = strPtr("admin")
			_, err := svc.Create(ctx, "lead", in, "")

			Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
			Expect(sp.tasks.createCalls).To(BeZero())
		})

		It("returns not found for an unknown project", func() {
			in := validInput()
			in.ProjectID = 9
			_, err := svc.Create(ctx, "lead", in, "")
			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
		})

		DescribeTable("validates input",
			func(mutate func(*service.CreateTaskInput)) {
				in := validInput()
				mutate(&in)
				_, err := svc.Create(ctx, "lead", in, "")
				Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
				Expect(sp.tasks.createCalls).To(BeZero())
			},
			Entry("missing title", func(in *service.CreateTaskInput) { in.Title = " " }),
			Entry("missing project", func(in *service.CreateTaskInput) { in.ProjectID = 0 }),
			Entry("missing due date", func(in *service.CreateTaskInput) { in.DueDate = "" }),
			Entry("unparseable due date", func(in *service.CreateTaskInput) { in.DueDate = "next friday" }),
			Entry("unknown type", func(in *service.CreateTaskInput) { in.Type = "EPIC" }),
			Entry("unknown status", func(in *service.CreateTaskInput) { in.Status = "BLOCKED" }),
		)
	})

	Describe("Update", func() {
		var stored *model.Task

		BeforeEach(func() {
			stored = &model.Task{
				ID:         77,
				ProjectID:  projectID,
				Title:      "Write launch notes",
				Type:       model.TaskTypeTask,
				Status:     model.TaskStatusTodo,
				Priority:   model.PriorityMedium,
				AssigneeID: strPtr("dev"),
				DueDate:    time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
			}
			sp.tasks.getByIDFn = func(_ context.Context, id int64) (*model.Task, error) {
				if id != stored.ID {
					return nil, store.ErrNotFound
				}
				cp := *stored
				return &cp, nil
			}
		})

		It("applies a partial update", func() {
			done := model.TaskStatusDone
			var saved *model.Task
			sp.tasks.updateFn = func(_ context.Context, t *model.Task) error {
				saved = t
				return nil
			}

			task, err := svc.Update(ctx, "lead", 77, service.UpdateTaskInput{Status: &done})

			Expect(err).NotTo(HaveOccurred())
			Expect(task.Status).To(Equal(model.TaskStatusDone))
			Expect(task.Title).To(Equal("Write launch notes"))
			Expect(saved.Status).To(Equal(model.TaskStatusDone))
		})

		It("clears the assignee with an empty id", func() {
			task, err := svc.Update(ctx, "lead", 77, service.UpdateTaskInput{AssigneeID: strPtr("")})
			Expect(err).NotTo(HaveOccurred())
			Expect(task.AssigneeID).To(BeNil())
		})

		It("re-validates a new assignee", func() {
			_, err := svc.Update(ctx, "lead", 77, service.UpdateTaskInput{AssigneeID: strPtr("admin")})
			Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
		})

		It("returns not found for an unknown task", func() {
			_, err := svc.Update(ctx, "lead", 1, service.UpdateTaskInput{})
			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
		})

		It("forbids plain members", func() {
			_, err := svc.Update(ctx, "dev", 77, service.UpdateTaskInput{Title: strPtr("x")})
			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			sp.tasks.listByIDsFn = func(_ context.Context, ids []int64) ([]model.Task, error) {
				all := map[int64]model.Task{
					1: {ID: 1, ProjectID: projectID},
					2: {ID: 2, ProjectID: projectID},
					3: {ID: 3, ProjectID: 501},
				}
				var out []model.Task
				for _, id := range ids {
					if t, ok := all[id]; ok {
						out = append(out, t)
					}
				}
				return out, nil
			}
		})

		It("deletes tasks of one project", func() {
			n, err := svc.Delete(ctx, "lead", []int64{1, 2, 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))
			Expect(sp.tasks.deleteCalls).To(Equal(1))
		})

		It("rejects a batch spanning projects", func() {
			_, err := svc.Delete(ctx, "admin", []int64{1, 3})
			Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
			Expect(sp.tasks.deleteCalls).To(BeZero())
		})

		It("returns not found when any id is missing", func() {
			_, err := svc.Delete(ctx, "lead", []int64{1, 99})
			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
			Expect(sp.tasks.deleteCalls).To(BeZero())
		})

		It("requires ids", func() {
			_, err := svc.Delete(ctx, "lead", nil)
			Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
		})

		It("forbids plain members", func() {
			_, err := svc.Delete(ctx, "dev", []int64{1})
			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
		})
	})
})
