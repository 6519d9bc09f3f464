package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
)

// Authenticator resolves a bearer token or a session user ID to a live user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint64, error)
	ResolveUser(ctx context.Context, userID uint64) (uint64, error)
}

// RequireAuth accepts a bearer token or, when no Authorization header is
// sent, the session cookie. Either way the user must still exist.
func RequireAuth(tokens Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Malformed Authorization header"))
				return
			}

			userID, err := tokens.Authenticate(c.Request.Context(), strings.TrimSpace(token))
			if err != nil {
				apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Invalid or expired token"))
				return
			}

			c.Set(constants.ContextKeyUserID, userID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		raw := session.Get(constants.ContextKeyUserID)

		if raw == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		sessionUserID, ok := toUserID(raw)
		if ok {
			_, err := tokens.ResolveUser(c.Request.Context(), sessionUserID)
			ok = err == nil
		}
		if !ok {
			session.Clear()
			session.Options(sessions.Options{Path: "/", MaxAge: -1})
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Msg("Failed to clear stale session")
			}
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Session is no longer valid"))
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, sessionUserID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(userID)
}

func toUserID(userID any) (uint64, bool) {
	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
