package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/cppla/docqa/middleware"
	"github.com/cppla/docqa/services"
	"github.com/cppla/docqa/utils"
)

// AuthController handles signup and token issuance.
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates an AuthController.
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Signup registers an account from a JSON body and returns a token for it.
func (a *AuthController) Signup(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,max=72"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(ctx, bindError(err))
		return
	}

	token, err := a.auth.Register(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, token)
}

// Token is the OAuth2 password grant: form fields username (the email) and password.
func (a *AuthController) Token(ctx *gin.Context) {
	type request struct {
		Username string `form:"username" binding:"required"`
		Password string `form:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindWith(&req, binding.Form); err != nil {
		middleware.RespondError(ctx, bindError(err))
		return
	}

	token, err := a.auth.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, token)
}
