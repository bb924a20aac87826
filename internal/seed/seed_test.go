package seed

import (
	"context"
	"testing"
	"time"

	"postshare/internal/models"
	"postshare/internal/repository"
	"postshare/internal/service"
	"postshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		NumUsers:    8,
		NumPosts:    12,
		MaxFollows:  3,
		MaxLikes:    4,
		MaxComments: 2,
		MaxDays:     30,
		SkipBcrypt:  true,
		RandomSeed:  42,
	}
}

func TestSeed_WritesConsistentGraph(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	report, err := Seed(ctx, db, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 8, report.Users)
	assert.Equal(t, 12, report.Posts)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 8)

	follows := 0
	for _, u := range users {
		follows += len(u.Following)
		assert.NotContains(t, u.Following, u.ID)
		assert.Len(t, u.Notifications, len(u.Followers), "one follow notification per follower")
		for _, n := range u.Notifications {
			assert.Equal(t, models.NotificationFollow, n.Type)
			assert.False(t, n.Read)
		}
	}
	assert.Equal(t, report.Follows, follows)

	graph := service.NewSocialGraphService(repository.NewUserRepository(db))
	check, err := graph.CheckGraph(ctx)
	require.NoError(t, err)
	assert.Empty(t, check.Issues)
}

func TestSeed_PostsAndEngagement(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	report, err := Seed(context.Background(), db, testOptions())
	require.NoError(t, err)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 12)

	likes, comments, replies := 0, 0, 0
	cutoff := time.Now().Add(-31 * 24 * time.Hour)
	for _, p := range posts {
		likes += len(p.Likes)
		comments += len(p.Comments)
		assert.NotEmpty(t, p.Title)
		assert.Contains(t, Categories, p.Category)
		assert.True(t, p.CreatedAt.After(cutoff), "created within MaxDays")
		assert.Equal(t, models.DedupeIDs(p.Likes), p.Likes)
		for _, c := range p.Comments {
			assert.NotEmpty(t, c.ID)
			assert.False(t, c.CreatedAt.Before(p.CreatedAt))
			replies += len(c.Replies)
		}
	}
	assert.Equal(t, report.Likes, likes)
	assert.Equal(t, report.Comments, comments)
	assert.Equal(t, report.Replies, replies)
}

func TestSeed_CleanReplacesData(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, testOptions())
	require.NoError(t, err)

	opts := testOptions()
	opts.ShouldClean = true
	opts.NumUsers = 3
	opts.NumPosts = 2
	_, err = Seed(ctx, db, opts)
	require.NoError(t, err)

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(3), users)
	assert.Equal(t, int64(2), posts)
}

func TestSeed_NoUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	report, err := Seed(context.Background(), db, Options{SkipBcrypt: true, NumPosts: 5})
	require.NoError(t, err)
	assert.Equal(t, &Report{}, report)
}

func TestFactory_Pick(t *testing.T) {
	f, err := NewFactory(Options{SkipBcrypt: true, RandomSeed: 7})
	require.NoError(t, err)

	ids := []uint{1, 2, 3, 4, 5}
	picked := f.Pick(ids, 3, 2)
	assert.Len(t, picked, 3)
	assert.NotContains(t, picked, uint(2))
	assert.Equal(t, models.DedupeIDs(picked), picked)

	assert.Len(t, f.Pick(ids, 10, 1), 4)
	assert.Empty(t, f.Pick(ids, 0, 0))
}

func TestFactory_BuildUser(t *testing.T) {
	f, err := NewFactory(Options{SkipBcrypt: true, RandomSeed: 7})
	require.NoError(t, err)

	a, b := f.BuildUser(1), f.BuildUser(2)
	assert.NotEqual(t, a.Email, b.Email)
	assert.LessOrEqual(t, len(a.Username), 30)
	assert.Equal(t, DemoPassword, a.Password)
}
