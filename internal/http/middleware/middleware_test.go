package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/trace"

	"tasklane.app/server/internal/http/middleware"
)

var _ = Describe("Recovery", func() {
	It("turns a panic into a 500 message payload", func() {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(middleware.Recovery(), middleware.Logger())
		router.GET("/boom", func(*gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"message":"internal server error"}`))
	})
})

var _ = Describe("TraceHeader", func() {
	var router *gin.Engine

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(middleware.TraceHeader("X-Trace-Id"))
		router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	})

	It("echoes the active trace id", func() {
		traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		Expect(err).NotTo(HaveOccurred())
		spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
		Expect(err).NotTo(HaveOccurred())
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Header().Get("X-Trace-Id")).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
	})

	It("leaves the header unset without a span", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		Expect(w.Header().Get("X-Trace-Id")).To(BeEmpty())
	})
})
