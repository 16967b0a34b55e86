package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/docqa/models"
	"github.com/cppla/docqa/services"
)

const (
	// ContextUserKey holds the authenticated *models.User.
	ContextUserKey = "user"
	// ContextUserIDKey mirrors the user's ID for the access log.
	ContextUserIDKey = "user_id"
)

// TokenValidator resolves a bearer token to its user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string) (*models.User, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller for the handlers.
func AuthRequired(auth TokenValidator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			RespondError(ctx, services.ErrNotAuthenticated)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			RespondError(ctx, services.ErrNotAuthenticated)
			return
		}

		user, err := auth.ValidateToken(ctx.Request.Context(), token)
		if err != nil {
			RespondError(ctx, err)
			return
		}

		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextUserIDKey, user.ID)
		ctx.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
