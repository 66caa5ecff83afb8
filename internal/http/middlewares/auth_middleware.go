package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/accounts/internal/account"
	"github.com/geocoder89/accounts/internal/actorctx"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) (user.User, error)
}

type AuthMiddleware struct {
	accounts IdentityResolver
}

func NewAuthMiddleware(accounts IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{accounts: accounts}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthenticated(c)
			return
		}

		u, err := m.accounts.ResolveIdentity(c.Request.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, account.ErrAccountDisabled):
				abortWithError(c, http.StatusBadRequest, "account_disabled", "Inactive user.")
			case errors.Is(err, account.ErrUnauthenticated):
				abortUnauthenticated(c)
			default:
				abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not resolve identity")
			}
			return
		}

		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithSubject(c.Request.Context(), u.Email))

		c.Next()
	}
}

// UserFromContext returns the user stored by RequireAuth.
func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

// bearerToken accepts the scheme case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	abortWithError(c, http.StatusUnauthorized, "unauthenticated", "Could not validate credentials.")
}

func abortWithError(c *gin.Context, status int, code, message string) {
	reqID, _ := actorctx.RequestIDFrom(c.Request.Context())

	body := gin.H{
		"code":    code,
		"message": message,
	}
	if reqID != "" {
		body["requestId"] = reqID
	}

	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
