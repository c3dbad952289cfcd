package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/internal/http/handler"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/service"
)

var _ = Describe("WorkspaceHandler", func() {
	var (
		router *gin.Engine
		svc    *mockWorkspaceService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(asActor("user_admin"))
		svc = &mockWorkspaceService{}
		router.GET("/workspaces", handler.NewWorkspaceHandler(svc).List)
	})

	It("lists the actor's workspaces", func() {
		var gotUser string
		svc.listFn = func(_ context.Context, userID string) ([]service.WorkspaceDetail, error) {
			gotUser = userID
			return []service.WorkspaceDetail{{
				Workspace: model.Workspace{ID: "org_01", Name: "Acme"},
				Projects: []service.ProjectDetail{{
					Project: model.Project{ID: 42, Name: "Apollo"},
					Tasks:   []model.Task{{ID: 100, ProjectID: 42, Title: "Write docs"}},
				}},
			}}, nil
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/workspaces", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(gotUser).To(Equal("user_admin"))

		var resp struct {
			Workspaces []struct {
				ID       string `json:"id"`
				Projects []struct {
					ID    string `json:"id"`
					Tasks []struct {
						Title string `json:"title"`
					} `json:"tasks"`
				} `json:"projects"`
			} `json:"workspaces"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Workspaces).To(HaveLen(1))
		Expect(resp.Workspaces[0].ID).To(Equal("org_01"))
		Expect(resp.Workspaces[0].Projects[0].ID).To(Equal("42"))
		Expect(resp.Workspaces[0].Projects[0].Tasks[0].Title).To(Equal("Write docs"))
	})

	It("returns 500 when loading fails", func() {
		svc.listFn = func(context.Context, string) ([]service.WorkspaceDetail, error) {
			return nil, errors.New("boom")
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/workspaces", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
