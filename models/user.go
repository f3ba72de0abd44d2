package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered user. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Name         string    `gorm:"size:255" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	// OwnedPostIDs is read from owned_posts in sequence order; it is not a column.
	OwnedPostIDs []string `gorm:"-" json:"ownedPostIds"`
}

// BeforeCreate hook assigns the id and ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// OwnedPost is one entry of a user's ordered sequence of owned post ids.
// Seq gives the append order.
type OwnedPost struct {
	Seq    uint   `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_owned_user_post"`
	PostID string `gorm:"size:36;not null;uniqueIndex:idx_owned_user_post;index"`
}
