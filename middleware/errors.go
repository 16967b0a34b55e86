package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/docqa/services"
	"github.com/cppla/docqa/utils"
)

// RespondError writes err as {"detail": ...} with the status of its kind and
// stops the chain. Causes are logged, never sent.
func RespondError(ctx *gin.Context, err error) {
	e := services.AsError(err)
	status := e.Kind.HTTPStatus()

	if status >= 500 {
		utils.Logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", status),
			zap.String("kind", e.Kind.String()),
			zap.Error(e.Err),
		)
	}
	if status == 401 {
		ctx.Header("WWW-Authenticate", "Bearer")
	}
	utils.AbortWithError(ctx, status, e.Detail)
}
