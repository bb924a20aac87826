package service

import (
	"context"
	"sort"

	"postshare/internal/models"
	"postshare/internal/repository"
)

// NotificationService reads and acknowledges a user's inbox.
type NotificationService struct {
	users repository.UserRepository
}

func NewNotificationService(users repository.UserRepository) *NotificationService {
	return &NotificationService{users: users}
}

// GetNotifications returns the inbox newest first with senders populated.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uint) (*models.Inbox, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	from := make([]uint, 0, len(user.Notifications))
	for _, n := range user.Notifications {
		from = append(from, n.From)
	}
	dir, err := s.users.Summaries(ctx, from)
	if err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, 0, len(user.Notifications))
	// Walk backwards so entries sharing a timestamp keep newest-appended first.
	for i := len(user.Notifications) - 1; i >= 0; i-- {
		n := user.Notifications[i]
		views = append(views, models.NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			From:      dir.Lookup(n.From),
			PostID:    n.PostID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})

	return &models.Inbox{Notifications: views, UnreadCount: user.UnreadCount()}, nil
}

// MarkRead flags one notification as read. Unknown ids succeed without writing.
func (s *NotificationService) MarkRead(ctx context.Context, userID uint, notificationID string) error {
	_, err := s.users.Mutate(ctx, userID, []string{"notifications"}, func(u *models.User) (bool, error) {
		i := u.FindNotification(notificationID)
		if i < 0 || u.Notifications[i].Read {
			return false, nil
		}
		u.Notifications[i].Read = true
		return true, nil
	})
	return err
}
