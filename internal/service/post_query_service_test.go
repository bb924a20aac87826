package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"postshare/internal/models"
	"postshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostQueryService_PaginationCoversTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	for i := 0; i < 23; i++ {
		testutil.CreatePost(t, f.db, alice.ID, fmt.Sprintf("post %d", i))
	}

	first, err := f.query.ListPosts(ctx, ListPostsInput{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(23), first.Total)
	assert.Equal(t, 5, first.TotalPages)

	seen := map[uint]bool{}
	sum := 0
	for page := 1; page <= first.TotalPages; page++ {
		p, err := f.query.ListPosts(ctx, ListPostsInput{Page: page, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, page, p.CurrentPage)
		sum += len(p.Posts)
		for _, post := range p.Posts {
			assert.False(t, seen[post.ID], "post %d listed twice", post.ID)
			seen[post.ID] = true
		}
	}
	assert.Equal(t, 23, sum)

	beyond, err := f.query.ListPosts(ctx, ListPostsInput{Page: 9, Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, beyond.Posts)
	assert.Empty(t, beyond.Posts)
	assert.Equal(t, int64(23), beyond.Total)
}

func TestPostQueryService_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	testutil.CreatePost(t, f.db, alice.ID, "only")

	page, err := f.query.ListPosts(context.Background(), ListPostsInput{Page: 100000000000000001, Limit: 100})
	require.NoError(t, err)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 100000000000000001, page.CurrentPage)
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, pageOffset(1, 10))
	assert.Equal(t, 40, pageOffset(5, 10))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt, 100))
	assert.Equal(t, math.MaxInt, pageOffset(100000000000000001, 100))
}

func TestPostQueryService_Defaults(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	for i := 0; i < 12; i++ {
		testutil.CreatePost(t, f.db, alice.ID, "p")
	}

	page, err := f.query.ListPosts(context.Background(), ListPostsInput{Page: 0, Limit: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Posts, DefaultPageSize)
	assert.Equal(t, 2, page.TotalPages)

	page, err = f.query.ListPosts(context.Background(), ListPostsInput{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 12)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPostQueryService_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")

	mk := func(title, desc, category, tags string) {
		_, err := f.engagement.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Title: title, Description: desc, Category: category, Tags: tags})
		require.NoError(t, err)
	}
	mk("Go tips", "", "Technology", "")
	mk("Bread", "sourdough FOO starter", "Food", "")
	mk("Trip", "", "Travel", "Foobar, beach")
	mk("Tech news", "", "Technology Weekly", "")

	tests := []struct {
		name   string
		in     ListPostsInput
		titles []string
	}{
		{"category exact", ListPostsInput{Category: "Technology"}, []string{"Go tips"}},
		{"category all", ListPostsInput{Category: "all"}, []string{"Tech news", "Trip", "Bread", "Go tips"}},
		{"search description", ListPostsInput{Search: "foo"}, []string{"Trip", "Bread"}},
		{"search title", ListPostsInput{Search: "GO TIPS"}, []string{"Go tips"}},
		{"search tag", ListPostsInput{Search: "beach"}, []string{"Trip"}},
		{"category and search", ListPostsInput{Category: "Food", Search: "foo"}, []string{"Bread"}},
		{"no match", ListPostsInput{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.query.ListPosts(ctx, tt.in)
			require.NoError(t, err)
			titles := []string{}
			for _, p := range page.Posts {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.titles, titles)
			assert.Equal(t, int64(len(tt.titles)), page.Total)
		})
	}
}

func TestPostQueryService_PopulationReflectsCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	post := testutil.CreatePost(t, f.db, alice.ID, "Hello")
	_, err := f.engagement.AddComment(ctx, post.ID, bob.ID, "hey")
	require.NoError(t, err)

	view, err := f.query.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", view.User.Username)
	assert.Equal(t, "bob", view.Comments[0].User.Username)

	_, err = f.profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: bob.ID, Username: strPtr("robert")})
	require.NoError(t, err)

	view, err = f.query.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "robert", view.Comments[0].User.Username)

	page, err := f.query.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	assert.Equal(t, "robert", page.Posts[0].Comments[0].User.Username)
}

func TestPostQueryService_GetPostByIDMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.query.GetPostByID(context.Background(), 404)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
