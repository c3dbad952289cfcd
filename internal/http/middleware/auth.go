package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"tasklane.app/server/common/logger"
)

type contextKey string

const actorIDContextKey contextKey = "actor_id"

var ErrInvalidToken = errors.New("invalid access token")

// TokenVerifier resolves a bearer token to the authenticated user id.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	jwks    *keyfunc.JWKS
}

// NewJWTVerifier verifies tokens with kf. methods limits the accepted
// signing algorithms; none means any the key supports.
func NewJWTVerifier(kf jwt.Keyfunc, methods ...string) *JWTVerifier {
	return &JWTVerifier{keyfunc: kf, methods: methods}
}

// NewJWKSVerifier fetches the provider's signing keys and keeps them fresh
// in the background until ctx is done or Close is called.
func NewJWKSVerifier(ctx context.Context, jwksURL string) (*JWTVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.ErrorContext(ctx, "jwks refresh failed", "error", err, "url", jwksURL)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching jwks: %w", err)
	}
	return &JWTVerifier{keyfunc: jwks.Keyfunc, methods: []string{"RS256"}, jwks: jwks}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, rawToken string) (string, error) {
	var opts []jwt.ParserOption
	if len(v.methods) > 0 {
		opts = append(opts, jwt.WithValidMethods(v.methods))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, v.keyfunc, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (v *JWTVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor id on the request context.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			return
		}

		actorID, err := verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rejected access token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			return
		}

		ctx := WithActorID(c.Request.Context(), actorID)
		ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: &actorID})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ActorID returns the authenticated user id, or "" outside RequireAuth.
func ActorID(ctx context.Context) string {
	actorID, _ := ctx.Value(actorIDContextKey).(string)
	return actorID
}

func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDContextKey, actorID)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
