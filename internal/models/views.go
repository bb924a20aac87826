package models

import "time"

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID       uint   `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// ReplyView is a Reply with its author populated.
type ReplyView struct {
	ID        string      `json:"_id"`
	User      UserSummary `json:"user"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"date"`
	Likes     []uint      `json:"likes"`
}

// CommentView is a Comment with its author and reply authors populated.
type CommentView struct {
	ID        string      `json:"_id"`
	User      UserSummary `json:"user"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"date"`
	Likes     []uint      `json:"likes"`
	Replies   []ReplyView `json:"replies"`
}

// PostView is a Post with every user reference expanded.
type PostView struct {
	ID          uint          `json:"_id"`
	User        UserSummary   `json:"user"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Category    string        `json:"category"`
	Tags        []string      `json:"tags"`
	Likes       []uint        `json:"likes"`
	Comments    []CommentView `json:"comments"`
	CreatedAt   time.Time     `json:"date"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// PostPage is one page of the post listing.
type PostPage struct {
	Posts       []PostView `json:"posts"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	Total       int64      `json:"total"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Likes   []uint `json:"likes"`
	IsLiked bool   `json:"isLiked"`
}

// FollowResult is the outcome of a follow toggle. FollowersCount belongs to the target and
// FollowingCount to the actor.
type FollowResult struct {
	IsFollowing    bool `json:"isFollowing"`
	FollowersCount int  `json:"followersCount"`
	FollowingCount int  `json:"followingCount"`
}

// NotificationView is an inbox entry with its sender populated.
type NotificationView struct {
	ID        string           `json:"_id"`
	Type      NotificationType `json:"type"`
	From      UserSummary      `json:"from"`
	PostID    *uint            `json:"postId,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"date"`
}

// Inbox is a user's notifications, newest first.
type Inbox struct {
	Notifications []NotificationView `json:"notifications"`
	UnreadCount   int                `json:"unreadCount"`
}

// UserDirectory resolves user references during population. Unknown ids yield a summary with only the id set.
type UserDirectory map[uint]UserSummary

// Lookup returns the summary for id.
func (d UserDirectory) Lookup(id uint) UserSummary {
	if s, ok := d[id]; ok {
		return s
	}
	return UserSummary{ID: id}
}

// PopulatePost expands every user reference in p through dir.
func PopulatePost(p *Post, dir UserDirectory) PostView {
	return PostView{
		ID:          p.ID,
		User:        dir.Lookup(p.UserID),
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Category:    p.Category,
		Tags:        nonNilStrings(p.Tags),
		Likes:       nonNilIDs(p.Likes),
		Comments:    PopulateComments(p.Comments, dir),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PopulateComments expands comment and reply authors through dir.
func PopulateComments(comments []Comment, dir UserDirectory) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		replies := make([]ReplyView, 0, len(c.Replies))
		for _, r := range c.Replies {
			replies = append(replies, ReplyView{
				ID:        r.ID,
				User:      dir.Lookup(r.UserID),
				Text:      r.Text,
				CreatedAt: r.CreatedAt,
				Likes:     nonNilIDs(r.Likes),
			})
		}
		out = append(out, CommentView{
			ID:        c.ID,
			User:      dir.Lookup(c.UserID),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
			Likes:     nonNilIDs(c.Likes),
			Replies:   replies,
		})
	}
	return out
}

func nonNilIDs(ids []uint) []uint {
	if ids == nil {
		return []uint{}
	}
	return ids
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
