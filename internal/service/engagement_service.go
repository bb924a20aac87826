package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"postshare/internal/middleware"
	"postshare/internal/models"
	"postshare/internal/observability"
	"postshare/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// CreatePostInput carries a new post. Tags is the raw comma-separated list.
type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	Category    string
	Tags        string
	Image       []byte
}

// UpdatePostInput is a partial update; nil fields are left alone.
type UpdatePostInput struct {
	Title       *string
	Description *string
	Category    *string
	Tags        *string
}

// LikeOutcome is a toggle result together with the owner of the liked post.
type LikeOutcome struct {
	Result  models.LikeResult
	OwnerID uint
}

// CommentOutcome is the populated comment list after an append.
type CommentOutcome struct {
	Comments []models.CommentView
	OwnerID  uint
}

// EngagementService mutates posts: creation, likes, comments, edits and deletion.
type EngagementService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	images ImageStore
	now    func() time.Time
}

func NewEngagementService(posts repository.PostRepository, users repository.UserRepository, images ImageStore) *EngagementService {
	return &EngagementService{
		posts:  posts,
		users:  users,
		images: images,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *EngagementService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	post := &models.Post{
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Category:    category,
		Tags:        models.ParseTags(in.Tags),
	}

	if len(in.Image) > 0 && s.images != nil {
		ref, err := s.images.Save(ctx, in.UserID, in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.Image != "" {
			s.releaseImage(ctx, post.ID, post.Image)
		}
		return nil, err
	}
	return populatePost(ctx, s.users, post)
}

// ToggleLike flips userID's membership in the post's like set.
func (s *EngagementService) ToggleLike(ctx context.Context, postID, userID uint) (*LikeOutcome, error) {
	if userID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}

	var isLiked bool
	post, err := s.posts.Mutate(ctx, postID, []string{"likes"}, func(p *models.Post) (bool, error) {
		p.Likes, isLiked = models.ToggleID(p.Likes, userID)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	observability.ToggleTotal.WithLabelValues("post", observability.LikeResultLabel(isLiked)).Inc()
	return &LikeOutcome{
		Result:  models.LikeResult{Likes: post.Likes, IsLiked: isLiked},
		OwnerID: post.UserID,
	}, nil
}

// AddComment appends a comment and returns the post's full populated comment list.
func (s *EngagementService) AddComment(ctx context.Context, postID, userID uint, text string) (*CommentOutcome, error) {
	if userID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Comment text is required")
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		CreatedAt: s.now(),
		Likes:     []uint{},
		Replies:   []models.Reply{},
	}
	post, err := s.posts.Mutate(ctx, postID, []string{"comments"}, func(p *models.Post) (bool, error) {
		p.Comments = append(p.Comments, comment)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	comments, err := populateComments(ctx, s.users, post)
	if err != nil {
		return nil, err
	}
	return &CommentOutcome{Comments: comments, OwnerID: post.UserID}, nil
}

// ToggleCommentLike flips userID's membership in one embedded comment's like set.
func (s *EngagementService) ToggleCommentLike(ctx context.Context, postID uint, commentID string, userID uint) (*models.LikeResult, error) {
	if userID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}

	var result models.LikeResult
	_, err := s.posts.Mutate(ctx, postID, []string{"comments"}, func(p *models.Post) (bool, error) {
		i := p.FindComment(commentID)
		if i < 0 {
			return false, models.NewNotFoundError("Comment", commentID)
		}
		c := &p.Comments[i]
		c.Likes, result.IsLiked = models.ToggleID(c.Likes, userID)
		result.Likes = c.Likes
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	observability.ToggleTotal.WithLabelValues("comment", observability.LikeResultLabel(result.IsLiked)).Inc()
	return &result, nil
}

// UpdatePost changes only the supplied content fields. Owner, likes and comments are never
// written by this path.
func (s *EngagementService) UpdatePost(ctx context.Context, postID uint, in UpdatePostInput) (*models.PostView, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, models.NewValidationError("Title cannot be empty")
	}

	var columns []string
	if in.Title != nil {
		columns = append(columns, "title")
	}
	if in.Description != nil {
		columns = append(columns, "description")
	}
	if in.Category != nil {
		columns = append(columns, "category")
	}
	if in.Tags != nil {
		columns = append(columns, "tags")
	}

	post, err := s.posts.Mutate(ctx, postID, columns, func(p *models.Post) (bool, error) {
		if in.Title != nil {
			p.Title = *in.Title
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Category != nil {
			p.Category = strings.TrimSpace(*in.Category)
			if p.Category == "" {
				p.Category = models.DefaultCategory
			}
		}
		if in.Tags != nil {
			p.Tags = models.ParseTags(*in.Tags)
		}
		return len(columns) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return populatePost(ctx, s.users, post)
}

// DeletePost releases the post's image and then removes the record. A failed release is
// logged and counted but does not stop the delete.
func (s *EngagementService) DeletePost(ctx context.Context, postID uint) error {
	span, ctx := observability.NewSpan(ctx, "EngagementService.DeletePost", attribute.Int64("post_id", int64(postID)))
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		span.SetError(err)
		return err
	}

	if post.Image != "" {
		s.releaseImage(ctx, postID, post.Image)
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if post.Image != "" {
			middleware.Logger.ErrorContext(ctx, "post delete failed after image release",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("image", post.Image),
				slog.String("error", err.Error()),
			)
		}
		span.SetError(err)
		return err
	}
	return nil
}

func (s *EngagementService) releaseImage(ctx context.Context, postID uint, ref string) {
	if s.images == nil {
		return
	}
	if err := s.images.Release(ctx, ref); err != nil {
		observability.ImageReleaseFailures.Inc()
		middleware.Logger.WarnContext(ctx, "image release failed",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("image", ref),
			slog.String("error", err.Error()),
		)
	}
}
