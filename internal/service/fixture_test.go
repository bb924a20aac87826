package service

import (
	"testing"

	"postshare/internal/repository"
	"postshare/internal/testutil"

	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	users      repository.UserRepository
	posts      repository.PostRepository
	images     *testutil.ImageStoreStub
	engagement *EngagementService
	query      *PostQueryService
	graph      *SocialGraphService
	inbox      *NotificationService
	profiles   *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	images := testutil.NewImageStoreStub()

	return &fixture{
		db:         db,
		users:      users,
		posts:      posts,
		images:     images,
		engagement: NewEngagementService(posts, users, images),
		query:      NewPostQueryService(posts, users),
		graph:      NewSocialGraphService(users),
		inbox:      NewNotificationService(users),
		profiles:   NewUserService(users, images),
	}
}

func strPtr(s string) *string { return &s }
