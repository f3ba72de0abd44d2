package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the body of every failed request. Error is a short
// machine-readable reason, Code narrows it down for clients and logs.
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// Respond writes data as JSON with the given status code.
func Respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, data)
}

// Success returns a 200 with data as the body.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, reason string) {
	Respond(ctx, status, ErrorResponse{Code: code, Error: reason})
}
