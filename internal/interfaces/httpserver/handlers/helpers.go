package handlers

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/middlewares"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (*user.User, bool) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Authentication required", "3e1d2c4b-5a6f-4e7d-8c9b-0a1f2e3d4c5b")
		return nil, false
	}
	return u, true
}

// bindJSON binds the request body or writes a 400.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "9c8b7a6d-5e4f-4a3b-2c1d-0e9f8a7b6c5d")
		return false
	}
	return true
}
