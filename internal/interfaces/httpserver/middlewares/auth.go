package middlewares

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/infrastructure/auth"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

const userContextKey = "user"

// AuthMiddleware resolves the user of the request from its bearer token.
func AuthMiddleware(validator *auth.Validator, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := validator.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if !errors.Is(err, auth.ErrMissingToken) {
				logger.Warn().Err(err).Str("path", c.FullPath()).Msg("jwt validation failed")
			}
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "unauthorized", "0f3c1f52-6f1d-4f0e-9a57-4f8f0b5d7c21")
			return
		}
		c.Set(userContextKey, u)
		c.Next()
	}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(c *gin.Context) (*user.User, bool) {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	u, ok := val.(*user.User)
	return u, ok && u != nil
}

// RequireAdmin aborts requests of users outside the admin group.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFromContext(c)
		if !ok {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Authentication required", "5d0a3c87-1f7b-4d36-a0a4-0c8e7d5b9e12")
			return
		}
		if !u.IsAdmin() {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "Admin access required", "c2a9f1e4-8b3d-4e6a-b7c5-3d1e9f0a2b64")
			return
		}
		c.Next()
	}
}
