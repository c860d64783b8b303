package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dkovacic/quill/internal/domain"
)

func TestPost_StampPublished(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stamps on first publish", func(t *testing.T) {
		p := &domain.Post{IsPublished: true}
		p.StampPublished(now)

		if p.PublishedAt == nil {
			t.Fatal("PublishedAt = nil, want stamped")
		}
		if !p.PublishedAt.Equal(now) {
			t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, now)
		}
	})

	t.Run("does not stamp a draft", func(t *testing.T) {
		p := &domain.Post{IsPublished: false}
		p.StampPublished(now)

		if p.PublishedAt != nil {
			t.Errorf("PublishedAt = %v, want nil", p.PublishedAt)
		}
	})

	t.Run("never overwrites an existing stamp", func(t *testing.T) {
		first := now.Add(-24 * time.Hour)
		p := &domain.Post{IsPublished: true, PublishedAt: &first}
		p.StampPublished(now)

		if !p.PublishedAt.Equal(first) {
			t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, first)
		}
	})

	t.Run("unpublish keeps the stamp", func(t *testing.T) {
		first := now.Add(-24 * time.Hour)
		p := &domain.Post{IsPublished: false, PublishedAt: &first}
		p.StampPublished(now)

		if !p.PublishedAt.Equal(first) {
			t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, first)
		}
	})

	t.Run("write supplying flag and time keeps the supplied time", func(t *testing.T) {
		supplied := now.Add(-time.Hour)
		p := &domain.Post{IsPublished: true, PublishedAt: &supplied}
		p.StampPublished(now)

		if !p.PublishedAt.Equal(supplied) {
			t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, supplied)
		}
	})
}

func TestPost_AuthoredBy(t *testing.T) {
	author := uuid.New()
	p := &domain.Post{AuthorID: author}

	if !p.AuthoredBy(author) {
		t.Error("AuthoredBy(author) = false, want true")
	}
	if p.AuthoredBy(uuid.New()) {
		t.Error("AuthoredBy(other) = true, want false")
	}
}
