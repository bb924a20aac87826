package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultCategory is assigned to posts created without a category.
const DefaultCategory = "Genel"

// Post owns its comments and their replies; they are stored inline as a JSON column.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"_id"`
	UserID      uint      `gorm:"not null;index" json:"user"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `json:"image"`
	Category    string    `gorm:"not null;index" json:"category"`
	Tags        []string  `gorm:"type:text;serializer:json" json:"tags"`
	Likes       []uint    `gorm:"type:text;serializer:json" json:"likes"`
	Comments    []Comment `gorm:"type:text;serializer:json" json:"comments"`
	// SearchIndex is the lowercased title, description and tags, one per line.
	SearchIndex string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"date"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Comment is embedded in a Post and addressed by ID within it.
type Comment struct {
	ID        string    `json:"_id"`
	UserID    uint      `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"date"`
	Likes     []uint    `json:"likes"`
	Replies   []Reply   `json:"replies"`
}

// Reply is embedded in a Comment.
type Reply struct {
	ID        string    `json:"_id"`
	UserID    uint      `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"date"`
	Likes     []uint    `json:"likes"`
}

// BeforeSave normalizes embedded collections and rebuilds the search index.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Likes == nil {
		p.Likes = []uint{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		if p.Comments[i].Likes == nil {
			p.Comments[i].Likes = []uint{}
		}
		if p.Comments[i].Replies == nil {
			p.Comments[i].Replies = []Reply{}
		}
	}
	p.SearchIndex = BuildSearchIndex(p.Title, p.Description, p.Tags)
	return nil
}

// FindComment returns the index of the comment with id, or -1.
func (p *Post) FindComment(id string) int {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// ReferencedUserIDs returns the owner and every comment and reply author.
func (p *Post) ReferencedUserIDs() []uint {
	ids := []uint{p.UserID}
	for _, c := range p.Comments {
		ids = append(ids, c.UserID)
		for _, r := range c.Replies {
			ids = append(ids, r.UserID)
		}
	}
	return ids
}

// ParseTags splits a comma-separated tag list, trimming each entry and dropping blanks.
func ParseTags(csv string) []string {
	tags := []string{}
	for _, raw := range strings.Split(csv, ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// BuildSearchIndex lowercases the searchable fields into newline separated lines.
func BuildSearchIndex(title, description string, tags []string) string {
	parts := make([]string, 0, len(tags)+2)
	parts = append(parts, flattenLine(title), flattenLine(description))
	for _, tag := range tags {
		parts = append(parts, flattenLine(tag))
	}
	return strings.Join(parts, "\n")
}

func flattenLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ToLower(strings.ReplaceAll(s, "\n", " "))
}

// NormalizeSearchTerm prepares a user search term for matching against SearchIndex.
func NormalizeSearchTerm(term string) string {
	return flattenLine(strings.TrimSpace(term))
}
