package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"postshare/internal/middleware"
	"postshare/internal/models"
	"postshare/internal/observability"
	"postshare/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Graph issue kinds reported by CheckGraph.
const (
	IssueMissingFollower = "missing_follower"
	IssueOrphanFollower  = "orphan_follower"
	IssueSelfReference   = "self_reference"
	IssueDanglingID      = "dangling_id"
)

// GraphIssue is one asymmetric or invalid edge. For missing_follower, UserID follows OtherID
// but is absent from OtherID's followers; for orphan_follower, UserID lists OtherID as a
// follower that does not follow back.
type GraphIssue struct {
	Kind    string `json:"kind"`
	UserID  uint   `json:"userId"`
	OtherID uint   `json:"otherId"`
}

// GraphReport is the read-only result of CheckGraph.
type GraphReport struct {
	UsersScanned int          `json:"usersScanned"`
	Issues       []GraphIssue `json:"issues"`
}

// ReconcileReport summarizes a repair pass.
type ReconcileReport struct {
	UsersScanned  int    `json:"usersScanned"`
	UsersRepaired int    `json:"usersRepaired"`
	Repaired      []uint `json:"repaired"`
}

// SocialGraphService maintains the follower/following relation.
type SocialGraphService struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewSocialGraphService(users repository.UserRepository) *SocialGraphService {
	return &SocialGraphService{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ToggleFollow makes actorID follow targetID, or unfollow when it already does. Both users
// and the follow notification are written in one transaction.
func (s *SocialGraphService) ToggleFollow(ctx context.Context, targetID, actorID uint) (*models.FollowResult, error) {
	if actorID == 0 || targetID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}
	if targetID == actorID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}

	span, ctx := observability.NewSpan(ctx, "SocialGraphService.ToggleFollow",
		attribute.Int64("target_id", int64(targetID)),
		attribute.Int64("actor_id", int64(actorID)),
	)
	defer span.End()

	var isFollowing bool
	actor, target, err := s.users.MutatePair(ctx, actorID, targetID,
		[]string{"followers", "following", "notifications"},
		func(actor, target *models.User) error {
			if actor.IsFollowing(target.ID) {
				actor.Following = models.RemoveID(actor.Following, target.ID)
				target.Followers = models.RemoveID(target.Followers, actor.ID)
				isFollowing = false
				return nil
			}
			actor.Following = models.AddID(actor.Following, target.ID)
			target.Followers = models.AddID(target.Followers, actor.ID)
			target.Notifications = append(target.Notifications,
				models.NewNotification(models.NotificationFollow, actor.ID, nil, s.now()))
			isFollowing = true
			return nil
		})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	observability.FollowToggleTotal.WithLabelValues(followResultLabel(isFollowing)).Inc()
	return &models.FollowResult{
		IsFollowing:    isFollowing,
		FollowersCount: len(target.Followers),
		FollowingCount: len(actor.Following),
	}, nil
}

func followResultLabel(isFollowing bool) string {
	if isFollowing {
		return "followed"
	}
	return "unfollowed"
}

// CheckGraph reports every edge whose two sides disagree without writing anything.
func (s *SocialGraphService) CheckGraph(ctx context.Context) (*GraphReport, error) {
	users, err := s.users.ListGraph(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	report := &GraphReport{UsersScanned: len(users), Issues: []GraphIssue{}}
	for i := range users {
		u := &users[i]
		for _, id := range u.Following {
			other, ok := byID[id]
			switch {
			case id == u.ID:
				report.Issues = append(report.Issues, GraphIssue{Kind: IssueSelfReference, UserID: u.ID, OtherID: id})
			case !ok:
				report.Issues = append(report.Issues, GraphIssue{Kind: IssueDanglingID, UserID: u.ID, OtherID: id})
			case !models.ContainsID(other.Followers, u.ID):
				report.Issues = append(report.Issues, GraphIssue{Kind: IssueMissingFollower, UserID: u.ID, OtherID: id})
			}
		}
		for _, id := range u.Followers {
			other, ok := byID[id]
			switch {
			case id == u.ID:
				report.Issues = append(report.Issues, GraphIssue{Kind: IssueSelfReference, UserID: u.ID, OtherID: id})
			case !ok:
				report.Issues = append(report.Issues, GraphIssue{Kind: IssueDanglingID, UserID: u.ID, OtherID: id})
			case !other.IsFollowing(u.ID):
				report.Issues = append(report.Issues, GraphIssue{Kind: IssueOrphanFollower, UserID: u.ID, OtherID: id})
			}
		}
	}
	return report, nil
}

// ReconcileFollowers rebuilds every followers list from the following lists, which are
// authoritative. Self references, dangling ids and duplicates are dropped from both sides.
func (s *SocialGraphService) ReconcileFollowers(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Repaired: []uint{}}

	err := s.users.MutateAll(ctx, []string{"followers", "following"}, func(users []*models.User) ([]*models.User, error) {
		report.UsersScanned = len(users)

		exists := make(map[uint]bool, len(users))
		for _, u := range users {
			exists[u.ID] = true
		}

		following := make(map[uint][]uint, len(users))
		derived := make(map[uint][]uint, len(users))
		for _, u := range users {
			clean := []uint{}
			for _, id := range models.DedupeIDs(u.Following) {
				if id != u.ID && exists[id] {
					clean = append(clean, id)
					derived[id] = append(derived[id], u.ID)
				}
			}
			following[u.ID] = clean
		}

		var changed []*models.User
		for _, u := range users {
			followers := orderLike(u.Followers, derived[u.ID])
			if slices.Equal(followers, u.Followers) && slices.Equal(following[u.ID], u.Following) {
				continue
			}
			u.Followers = followers
			u.Following = following[u.ID]
			changed = append(changed, u)
			report.Repaired = append(report.Repaired, u.ID)
		}
		report.UsersRepaired = len(changed)
		return changed, nil
	})
	if err != nil {
		return nil, err
	}

	observability.GraphRepairs.Add(float64(report.UsersRepaired))
	middleware.Logger.InfoContext(ctx, "follower reconciliation finished",
		slog.Int("scanned", report.UsersScanned),
		slog.Int("repaired", report.UsersRepaired),
	)
	return report, nil
}

// orderLike returns the members of want, keeping the relative order they have in current and
// appending the rest in the order given.
func orderLike(current, want []uint) []uint {
	out := make([]uint, 0, len(want))
	for _, id := range models.DedupeIDs(current) {
		if models.ContainsID(want, id) {
			out = append(out, id)
		}
	}
	for _, id := range want {
		if !models.ContainsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}
