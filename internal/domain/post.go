package domain

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	AuthorID    uuid.UUID  `json:"-"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
	IsPublished bool       `json:"is_published"`
	// Joined fields
	AuthorUsername string `json:"author,omitempty"`
}

// StampPublished records the first-publish time. It fires only when the
// post is published and PublishedAt is still unset: published_at marks the
// first publish and is never overwritten afterwards, not even after the
// post is unpublished and published again.
func (p *Post) StampPublished(now time.Time) {
	if p.IsPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

// AuthoredBy reports whether the given user owns this post. Ownership is
// compared by ID, not username, so a reused username never grants access
// to another account's posts.
func (p *Post) AuthoredBy(userID uuid.UUID) bool {
	return p.AuthorID == userID
}
