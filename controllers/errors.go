package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/bloglist/repository"
	"github.com/cppla/bloglist/services"
	"github.com/cppla/bloglist/utils"
)

// Error codes carried in the response body next to the reason.
const (
	codeBadPayload         = 40000
	codeValidation         = 40001
	codeMalformedID        = 40002
	codeUsernameTaken      = 40003
	codeTokenMissing       = 40101
	codeTokenInvalid       = 40102
	codeTokenExpired       = 40103
	codeIncorrectUser      = 40104
	codeInvalidCredentials = 40105
	codeNotFound           = 40400
	codeInternal           = 50000
)

// respondError maps a service error to its status, code and reason.
func respondError(ctx *gin.Context, log *zap.Logger, err error) {
	var valErr *services.ValidationError
	switch {
	case errors.As(err, &valErr):
		utils.Error(ctx, http.StatusBadRequest, codeValidation, valErr.Message)
	case errors.Is(err, services.ErrMalformedID):
		utils.Error(ctx, http.StatusBadRequest, codeMalformedID, services.ErrMalformedID.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		utils.Error(ctx, http.StatusBadRequest, codeUsernameTaken, services.ErrUsernameTaken.Error())
	case errors.Is(err, services.ErrIncorrectUser):
		utils.Error(ctx, http.StatusUnauthorized, codeIncorrectUser, services.ErrIncorrectUser.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(ctx, http.StatusUnauthorized, codeInvalidCredentials, services.ErrInvalidCredentials.Error())
	case errors.Is(err, repository.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, codeNotFound, "not found")
	default:
		if authErr, ok := services.IsAuthError(err); ok {
			utils.Error(ctx, http.StatusUnauthorized, authCode(authErr.Reason), string(authErr.Reason))
			return
		}
		log.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(err),
		)
		utils.Error(ctx, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func authCode(reason services.AuthReason) int {
	switch reason {
	case services.AuthMissing:
		return codeTokenMissing
	case services.AuthExpired:
		return codeTokenExpired
	default:
		return codeTokenInvalid
	}
}
