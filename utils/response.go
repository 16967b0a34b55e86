package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Respond writes v as JSON with the given status code.
func Respond(ctx *gin.Context, status int, v interface{}) {
	ctx.JSON(status, v)
}

// Success writes a 200 response.
func Success(ctx *gin.Context, v interface{}) {
	Respond(ctx, 200, v)
}

// Error writes a {"detail": message} response.
func Error(ctx *gin.Context, status int, message string) {
	Respond(ctx, status, ErrorResponse{Detail: message})
}

// AbortWithError writes the error body and stops the handler chain.
func AbortWithError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{Detail: message})
}
