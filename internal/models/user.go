// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account record. The social graph and the notification inbox are embedded
// documents stored as JSON columns on the same row.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"_id"`
	Username      string         `gorm:"not null" json:"username"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Password      string         `gorm:"not null" json:"-"`
	Avatar        string         `json:"avatar"`
	Bio           string         `gorm:"type:text" json:"bio"`
	Followers     []uint         `gorm:"type:text;serializer:json" json:"followers"`
	Following     []uint         `gorm:"type:text;serializer:json" json:"following"`
	Notifications []Notification `gorm:"type:text;serializer:json" json:"notifications"`
	CreatedAt     time.Time      `json:"date"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// BeforeSave keeps embedded collections as empty JSON arrays rather than null.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Followers == nil {
		u.Followers = []uint{}
	}
	if u.Following == nil {
		u.Following = []uint{}
	}
	if u.Notifications == nil {
		u.Notifications = []Notification{}
	}
	return nil
}

// Summary returns the populated-reference view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// IsFollowing reports whether u follows target.
func (u *User) IsFollowing(target uint) bool {
	return ContainsID(u.Following, target)
}

// FindNotification returns the inbox index of the notification with id, or -1.
func (u *User) FindNotification(id string) int {
	for i := range u.Notifications {
		if u.Notifications[i].ID == id {
			return i
		}
	}
	return -1
}

// UnreadCount returns the number of unread notifications in the inbox.
func (u *User) UnreadCount() int {
	n := 0
	for _, notif := range u.Notifications {
		if !notif.Read {
			n++
		}
	}
	return n
}
