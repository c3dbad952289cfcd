package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/internal/http/middleware"
)

var _ = Describe("RequireAuth", func() {
	var (
		router *gin.Engine
		secret = []byte("test-signing-key")
	)

	sign := func(claims jwt.RegisteredClaims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		Expect(err).NotTo(HaveOccurred())
		return raw
	}

	serve := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		verifier := middleware.NewJWTVerifier(func(*jwt.Token) (interface{}, error) {
			return secret, nil
		}, "HS256")

		router = gin.New()
		router.GET("/me", middleware.RequireAuth(verifier), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"actor": middleware.ActorID(c.Request.Context())})
		})
	})

	It("stores the token subject as the actor", func() {
		token := sign(jwt.RegisteredClaims{
			Subject:   "user_01",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		w := serve("Bearer " + token)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"actor":"user_01"`))
	})

	It("rejects a missing header", func() {
		Expect(serve("").Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a non-bearer scheme", func() {
		Expect(serve("Basic dXNlcjpwYXNz").Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects an expired token", func() {
		token := sign(jwt.RegisteredClaims{
			Subject:   "user_01",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})

		Expect(serve("Bearer " + token).Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a token without a subject", func() {
		token := sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})

		Expect(serve("Bearer " + token).Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a token signed with another key", func() {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user_01"}).
			SignedString([]byte("other-key"))
		Expect(err).NotTo(HaveOccurred())

		Expect(serve("Bearer " + raw).Code).To(Equal(http.StatusUnauthorized))
	})

	It("returns an empty actor outside the middleware", func() {
		Expect(middleware.ActorID(httptest.NewRequest(http.MethodGet, "/", nil).Context())).To(BeEmpty())
	})
})
