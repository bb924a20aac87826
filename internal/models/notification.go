package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType is the kind of event recorded in an inbox.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Valid reports whether t is one of the known notification kinds.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow:
		return true
	}
	return false
}

// Notification is an inbox entry embedded in its owning User. Only Read ever changes after append.
type Notification struct {
	ID        string           `json:"_id"`
	Type      NotificationType `json:"type"`
	From      uint             `json:"from"`
	PostID    *uint            `json:"postId,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"date"`
}

// NewNotification builds an unread inbox entry with a fresh id.
func NewNotification(kind NotificationType, from uint, postID *uint, now time.Time) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		From:      from,
		PostID:    postID,
		CreatedAt: now,
	}
}
