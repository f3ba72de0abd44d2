package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/bloglist/models"
	"github.com/cppla/bloglist/repository"
	"github.com/cppla/bloglist/utils"
)

const (
	minUsernameLength = 3
	minPasswordLength = 3
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// UserService registers users and issues and revokes their tokens.
type UserService struct {
	users    repository.UserRepository
	secret   string
	tokenTTL time.Duration
	log      *zap.Logger
}

// NewUserService creates a UserService signing tokens with secret.
func NewUserService(users repository.UserRepository, secret string, tokenTTL time.Duration, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 72 * time.Hour
	}
	return &UserService{users: users, secret: secret, tokenTTL: tokenTTL, log: log}
}

// Register creates a user with a bcrypt hashed password.
func (s *UserService) Register(ctx context.Context, username, name, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username", "username missing")
	}
	if len([]rune(username)) < minUsernameLength {
		return nil, NewValidationError("username", fmt.Sprintf("username must be at least %d characters long", minUsernameLength))
	}
	if password == "" {
		return nil, NewValidationError("password", "password missing")
	}
	if len(password) < minPasswordLength {
		return nil, NewValidationError("password", fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}

	name, err := plainText("name", name)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks the credentials and issues a token.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.secret, user.ID, user.Username, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{Token: token, Username: user.Username, Name: user.Name}, nil
}

// Logout revokes token until it would have expired.
func (s *UserService) Logout(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &AuthError{Reason: AuthMissing}
	}
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return &AuthError{Reason: AuthInvalid, Err: err}
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)
	s.log.Info("user logged out", zap.String("user_id", claims.UserID))
	return nil
}

// List returns every user with its owned post ids.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.FindAll(ctx)
}

// Get returns one user; a malformed id is ErrMalformedID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if !models.IsValidID(id) {
		return nil, ErrMalformedID
	}
	return s.users.FindByID(ctx, id)
}
