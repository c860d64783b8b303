package testutil

import (
	"github.com/google/uuid"

	"github.com/dkovacic/quill/internal/domain"
)

// CaptureNotifier records feed notifications for assertions.
type CaptureNotifier struct {
	Published []domain.Post
	Updated   []domain.Post
	Deleted   []uuid.UUID
}

func (n *CaptureNotifier) NotifyPostPublished(post *domain.Post) {
	n.Published = append(n.Published, *post)
}

func (n *CaptureNotifier) NotifyPostUpdated(post *domain.Post) {
	n.Updated = append(n.Updated, *post)
}

func (n *CaptureNotifier) NotifyPostDeleted(postID uuid.UUID) {
	n.Deleted = append(n.Deleted, postID)
}
