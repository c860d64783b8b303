package ws

import (
	"log"

	"github.com/google/uuid"

	"github.com/dkovacic/quill/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyPostPublished(post *domain.Post) {
	evt, err := NewEvent(EventTypePostPublished, PostPayload{Post: *post})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt)
}

func (n *HubNotifier) NotifyPostUpdated(post *domain.Post) {
	evt, err := NewEvent(EventTypePostUpdated, PostPayload{Post: *post})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt)
}

func (n *HubNotifier) NotifyPostDeleted(postID uuid.UUID) {
	evt, err := NewEvent(EventTypePostDeleted, PostDeletedPayload{ID: postID})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt)
}
