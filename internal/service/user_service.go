package service

import (
	"context"
	"log/slog"
	"strings"

	"postshare/internal/middleware"
	"postshare/internal/models"
	"postshare/internal/repository"
	"postshare/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	images   ImageStore
}

// UpdateProfileInput changes the supplied fields only. Avatar holds raw image bytes.
type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Bio      *string
	Avatar   []byte
}

func NewUserService(userRepo repository.UserRepository, images ImageStore) *UserService {
	return &UserService{userRepo: userRepo, images: images}
}

// ListUsers returns every user as id, username and avatar.
func (s *UserService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	var columns []string
	if in.Username != nil {
		if err := validation.ValidateUsername(*in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		name := strings.TrimSpace(*in.Username)
		in.Username = &name
		columns = append(columns, "username")
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		columns = append(columns, "bio")
	}

	var avatar string
	if len(in.Avatar) > 0 && s.images != nil {
		ref, err := s.images.Save(ctx, in.UserID, in.Avatar)
		if err != nil {
			return nil, err
		}
		avatar = ref
		columns = append(columns, "avatar")
	}

	var previousAvatar string
	user, err := s.userRepo.Mutate(ctx, in.UserID, columns, func(u *models.User) (bool, error) {
		if in.Username != nil {
			u.Username = *in.Username
		}
		if in.Bio != nil {
			u.Bio = *in.Bio
		}
		if avatar != "" {
			previousAvatar = u.Avatar
			u.Avatar = avatar
		}
		return len(columns) > 0, nil
	})
	if err != nil {
		if avatar != "" {
			s.releaseAvatar(ctx, in.UserID, avatar)
		}
		return nil, err
	}

	if previousAvatar != "" && previousAvatar != avatar {
		s.releaseAvatar(ctx, in.UserID, previousAvatar)
	}
	return user, nil
}

func (s *UserService) releaseAvatar(ctx context.Context, userID uint, ref string) {
	if err := s.images.Release(ctx, ref); err != nil {
		middleware.Logger.WarnContext(ctx, "avatar release failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}
