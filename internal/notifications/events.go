package notifications

import (
	"encoding/json"
	"errors"

	"postshare/internal/models"
)

// Event is the payload pushed to a connected user. PostID is omitted for follows.
type Event struct {
	Type   models.NotificationType `json:"type"`
	From   uint                    `json:"from"`
	PostID *uint                   `json:"postId,omitempty"`
}

// RelayRequest is what a client sends to have an event forwarded to UserID.
type RelayRequest struct {
	Type   models.NotificationType `json:"type"`
	UserID uint                    `json:"userId"`
	PostID *uint                   `json:"postId,omitempty"`
}

var errInvalidRelay = errors.New("invalid relay request")

// NewEvent builds an event, dropping postID for follow events.
func NewEvent(kind models.NotificationType, from uint, postID *uint) Event {
	if kind == models.NotificationFollow {
		postID = nil
	}
	return Event{Type: kind, From: from, PostID: postID}
}

// ParseRelayRequest decodes and validates a client relay message.
func ParseRelayRequest(raw []byte) (RelayRequest, error) {
	var req RelayRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	if !req.Type.Valid() || req.UserID == 0 {
		return req, errInvalidRelay
	}
	return req, nil
}
