// Package repository holds the persistence contracts for posts and users
// and their gorm implementation.
package repository

import (
	"context"
	"errors"

	"github.com/cppla/bloglist/models"
)

// ErrNotFound is returned when a post or user lookup has no match.
var ErrNotFound = errors.New("record not found")

// PostRepository persists posts.
type PostRepository interface {
	// FindAll returns every post in creation order with Owner loaded.
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.Post, error)
	// Save inserts the post when it has no id yet and updates it otherwise.
	Save(ctx context.Context, post *models.Post) error
	Remove(ctx context.Context, id string) error
}

// UserRepository persists users and their owned post sequence.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// AddOwnedPost appends postID to the user's sequence. It does not deduplicate.
	AddOwnedPost(ctx context.Context, userID, postID string) error
	// RemoveOwnedPost drops postID from the user's sequence; absent ids are a no-op.
	RemoveOwnedPost(ctx context.Context, userID, postID string) error
}

// Store bundles the repositories so both entities can be written atomically.
type Store interface {
	Posts() PostRepository
	Users() UserRepository
	// WithinTx runs fn against a transactional Store. A non-nil error from fn
	// rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
