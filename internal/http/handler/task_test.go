package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/internal/http/handler"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/service"
)

var _ = Describe("TaskHandler", func() {
	var (
		router *gin.Engine
		svc    *mockTaskService
	)

	send := func(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(asActor("user_lead"))
		svc = &mockTaskService{}
		h := handler.NewTaskHandler(svc)
		router.POST("/tasks", h.Create)
		router.PUT("/tasks/:id", h.Update)
		router.POST("/tasks/delete", h.Delete)
	})

	Describe("Create", func() {
		It("forwards the request origin", func() {
			var (
				gotInput  service.CreateTaskInput
				gotOrigin string
			)
			svc.createFn = func(_ context.Context, _ string, in service.CreateTaskInput, origin string) (*model.Task, error) {
				gotInput, gotOrigin = in, origin
				return &model.Task{ID: 100, ProjectID: in.ProjectID, Title: in.Title}, nil
			}

			w := send(http.MethodPost, "/tasks",
				`{"projectId":"42","title":"Write docs","assigneeId":"user_dev","due_date":"2026-03-02"}`,
				map[string]string{"Origin": "https://app.tasklane.test"})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotOrigin).To(Equal("https://app.tasklane.test"))
			Expect(gotInput.ProjectID).To(Equal(int64(42)))
			Expect(gotInput.AssigneeID).To(HaveValue(Equal("user_dev")))
			Expect(gotInput.DueDate).To(Equal("2026-03-02"))
			Expect(w.Body.String()).To(ContainSubstring(`"id":"100"`))
			Expect(w.Body.String()).To(ContainSubstring("Task Created Successfully"))
		})

		It("returns 400 when the title is missing", func() {
			Expect(send(http.MethodPost, "/tasks", `{"projectId":"42"}`, nil).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 403 when the actor cannot act on the project", func() {
			svc.createFn = func(context.Context, string, service.CreateTaskInput, string) (*model.Task, error) {
				return nil, &service.Error{Kind: service.ErrForbidden, Message: "You dont have admin privileges for this project"}
			}

			w := send(http.MethodPost, "/tasks", `{"projectId":"42","title":"x","due_date":"2026-03-02"}`, nil)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("Update", func() {
		It("updates the addressed task", func() {
			var gotID int64
			svc.updateFn = func(_ context.Context, _ string, taskID int64, in service.UpdateTaskInput) (*model.Task, error) {
				gotID = taskID
				Expect(in.Status).To(HaveValue(Equal(model.TaskStatusDone)))
				Expect(in.Title).To(BeNil())
				return &model.Task{ID: taskID, Status: *in.Status}, nil
			}

			w := send(http.MethodPut, "/tasks/100", `{"status":"DONE"}`, nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotID).To(Equal(int64(100)))
		})

		It("returns 404 for an unknown task", func() {
			svc.updateFn = func(context.Context, string, int64, service.UpdateTaskInput) (*model.Task, error) {
				return nil, &service.Error{Kind: service.ErrNotFound, Message: "Task not found"}
			}

			Expect(send(http.MethodPut, "/tasks/100", `{}`, nil).Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Delete", func() {
		It("parses the batch of ids", func() {
			var gotIDs []int64
			svc.deleteFn = func(_ context.Context, _ string, taskIDs []int64) (int64, error) {
				gotIDs = taskIDs
				return int64(len(taskIDs)), nil
			}

			w := send(http.MethodPost, "/tasks/delete", `{"taskIds":["100","101"]}`, nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotIDs).To(Equal([]int64{100, 101}))
			Expect(w.Body.String()).To(ContainSubstring("Task Deleted Successfully"))
		})

		It("returns 400 on a malformed id", func() {
			Expect(send(http.MethodPost, "/tasks/delete", `{"taskIds":["abc"]}`, nil).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on a mixed-project batch", func() {
			svc.deleteFn = func(context.Context, string, []int64) (int64, error) {
				return 0, &service.Error{Kind: service.ErrValidation, Message: "tasks must belong to a single project"}
			}

			Expect(send(http.MethodPost, "/tasks/delete", `{"taskIds":["100","200"]}`, nil).Code).To(Equal(http.StatusBadRequest))
		})
	})
})
