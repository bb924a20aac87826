package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"trims and keeps order", "a, b ,c", []string{"a", "b", "c"}},
		{"empty input", "", []string{}},
		{"drops blanks", "go,, ,fiber", []string{"go", "fiber"}},
		{"single", "  solo  ", []string{"solo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.in))
		})
	}
}

func TestBuildSearchIndex(t *testing.T) {
	idx := BuildSearchIndex("Hello World", "Line one\nline TWO", []string{"GoLang", "Web"})
	assert.Equal(t, "hello world\nline one line two\ngolang\nweb", idx)
}

func TestPostBeforeSave_NormalizesCollections(t *testing.T) {
	p := &Post{Title: "T", Comments: []Comment{{ID: "c1"}}}
	require.NoError(t, p.BeforeSave(nil))

	assert.NotNil(t, p.Tags)
	assert.NotNil(t, p.Likes)
	assert.NotNil(t, p.Comments[0].Likes)
	assert.NotNil(t, p.Comments[0].Replies)
	assert.Equal(t, "t\n", p.SearchIndex)
}

func TestPostFindComment(t *testing.T) {
	p := &Post{Comments: []Comment{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, 1, p.FindComment("b"))
	assert.Equal(t, -1, p.FindComment("missing"))
}

func TestPopulatePost_UsesDirectory(t *testing.T) {
	now := time.Now()
	p := &Post{
		ID:     3,
		UserID: 1,
		Title:  "Hello",
		Comments: []Comment{{
			ID:        "c1",
			UserID:    2,
			Text:      "nice",
			CreatedAt: now,
			Replies:   []Reply{{ID: "r1", UserID: 9, Text: "thanks"}},
		}},
	}
	dir := UserDirectory{
		1: {ID: 1, Username: "alice", Avatar: "a.png"},
		2: {ID: 2, Username: "bob"},
	}

	view := PopulatePost(p, dir)

	assert.Equal(t, "alice", view.User.Username)
	assert.Equal(t, "a.png", view.User.Avatar)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "bob", view.Comments[0].User.Username)
	assert.Equal(t, []uint{}, view.Comments[0].Likes)
	require.Len(t, view.Comments[0].Replies, 1)
	assert.Equal(t, UserSummary{ID: 9}, view.Comments[0].Replies[0].User)
	assert.Equal(t, []string{}, view.Tags)
	assert.Equal(t, []uint{1, 2, 9}, p.ReferencedUserIDs())
}
