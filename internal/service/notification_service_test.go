package service

import (
	"context"
	"testing"
	"time"

	"postshare/internal/models"
	"postshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_GetNotificationsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner")
	fan := testutil.CreateUser(t, f.db, "fan")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	postID := uint(7)
	inbox := []models.Notification{
		models.NewNotification(models.NotificationFollow, fan.ID, nil, base),
		models.NewNotification(models.NotificationLike, fan.ID, &postID, base.Add(2*time.Hour)),
		models.NewNotification(models.NotificationComment, 999, &postID, base.Add(time.Hour)),
	}
	inbox[0].Read = true
	editUser(t, f, owner.ID, func(u *models.User) { u.Notifications = inbox })

	got, err := f.inbox.GetNotifications(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UnreadCount)
	require.Len(t, got.Notifications, 3)
	assert.Equal(t, models.NotificationLike, got.Notifications[0].Type)
	assert.Equal(t, models.NotificationComment, got.Notifications[1].Type)
	assert.Equal(t, models.NotificationFollow, got.Notifications[2].Type)
	assert.Equal(t, "fan", got.Notifications[0].From.Username)
	assert.Equal(t, models.UserSummary{ID: 999}, got.Notifications[1].From)
	assert.Equal(t, &postID, got.Notifications[0].PostID)
}

func TestNotificationService_MarkReadUnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	b := testutil.CreateUser(t, f.db, "b")
	_, err := f.graph.ToggleFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.inbox.MarkRead(ctx, b.ID, "does-not-exist"))

	got, err := f.inbox.GetNotifications(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadCount)

	// Marking twice stays successful.
	id := got.Notifications[0].ID
	require.NoError(t, f.inbox.MarkRead(ctx, b.ID, id))
	require.NoError(t, f.inbox.MarkRead(ctx, b.ID, id))
}

func TestNotificationService_MissingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inbox.GetNotifications(ctx, 404)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(f.inbox.MarkRead(ctx, 404, "x")))
}
