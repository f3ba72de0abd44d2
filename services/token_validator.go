package services

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cppla/bloglist/utils"
)

// TokenValidator resolves a bearer token to a user id. Failures are *AuthError.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// JWTValidator checks HS256 tokens issued by UserService.Login and honours logout revocations.
type JWTValidator struct {
	Secret string
}

// NewJWTValidator returns a validator for tokens signed with secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{Secret: secret}
}

func (v *JWTValidator) Validate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", &AuthError{Reason: AuthMissing}
	}

	claims, err := utils.ParseToken(v.Secret, token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", &AuthError{Reason: AuthExpired, Err: err}
		}
		return "", &AuthError{Reason: AuthInvalid, Err: err}
	}

	if utils.IsTokenBlacklisted(token) {
		return "", &AuthError{Reason: AuthInvalid, Err: errors.New("token revoked")}
	}

	return claims.UserID, nil
}
