package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextTokenKey is the key under which the bearer token is stored in the Gin context.
const ContextTokenKey = "bearer_token"

// TokenExtractor copies the bearer token from the Authorization header into
// the context. It never rejects a request: an absent or malformed header
// leaves an empty token and the post service answers "token missing".
func TokenExtractor() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(ContextTokenKey, extractBearer(ctx.GetHeader("Authorization")))
		ctx.Next()
	}
}

// BearerToken returns the token stored by TokenExtractor, or "".
func BearerToken(ctx *gin.Context) string {
	if v, ok := ctx.Get(ContextTokenKey); ok {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return extractBearer(ctx.GetHeader("Authorization"))
}

func extractBearer(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
