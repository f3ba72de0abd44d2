package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/bloglist/middleware"
	"github.com/cppla/bloglist/services"
	"github.com/cppla/bloglist/utils"
)

// AuthController handles user registration, login and logout.
type AuthController struct {
	users *services.UserService
	log   *zap.Logger
}

// NewAuthController creates an AuthController.
func NewAuthController(users *services.UserService, log *zap.Logger) *AuthController {
	return &AuthController{users: users, log: log}
}

// Register creates a user.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	user, err := a.users.Register(ctx.Request.Context(), req.Username, req.Name, req.Password)
	if err != nil {
		respondError(ctx, a.log, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, user)
}

// ListUsers returns every user with the ids of the posts it owns.
func (a *AuthController) ListUsers(ctx *gin.Context) {
	users, err := a.users.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, a.log, err)
		return
	}
	utils.Success(ctx, users)
}

// Login exchanges credentials for a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, codeBadPayload, "invalid request payload")
		return
	}

	result, err := a.users.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, a.log, err)
		return
	}
	utils.Success(ctx, result)
}

// Logout revokes the caller's token.
func (a *AuthController) Logout(ctx *gin.Context) {
	if err := a.users.Logout(middleware.BearerToken(ctx)); err != nil {
		respondError(ctx, a.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
