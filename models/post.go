package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultAuthor is stored when a post is created without an author.
const DefaultAuthor = "Unknown"

// Post is a reference to a blog post, owned by exactly one user.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Author    string    `gorm:"size:255;not null" json:"author"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	Likes     int       `gorm:"not null" json:"likes"`
	OwnerID   string    `gorm:"size:36;index;not null" json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// OwnerSummary is the public slice of a user embedded in post listings.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ExpandedPost is a Post whose ownerId carries the owner instead of the bare id.
type ExpandedPost struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Author    string       `json:"author"`
	URL       string       `json:"url"`
	Likes     int          `json:"likes"`
	Owner     OwnerSummary `json:"ownerId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Expand converts p for listing. Owner must be loaded for username and name to be set.
func (p Post) Expand() ExpandedPost {
	owner := OwnerSummary{ID: p.OwnerID}
	if p.Owner != nil {
		owner.Username = p.Owner.Username
		owner.Name = p.Owner.Name
	}
	return ExpandedPost{
		ID:        p.ID,
		Title:     p.Title,
		Author:    p.Author,
		URL:       p.URL,
		Likes:     p.Likes,
		Owner:     owner,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// IsValidID reports whether id has the format used for post and user ids.
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
