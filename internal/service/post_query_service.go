package service

import (
	"context"
	"math"
	"strings"

	"postshare/internal/models"
	"postshare/internal/observability"
	"postshare/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// CategoryAll disables the category filter.
	CategoryAll = "all"
)

// ListPostsInput selects one page of the listing. Page is 1-indexed.
type ListPostsInput struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

// PostQueryService serves the read side of posts. It never writes.
type PostQueryService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

func NewPostQueryService(posts repository.PostRepository, users repository.UserRepository) *PostQueryService {
	return &PostQueryService{posts: posts, users: users}
}

func (s *PostQueryService) ListPosts(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	span, ctx := observability.NewSpan(ctx, "PostQueryService.ListPosts",
		attribute.Int("page", in.Page),
		attribute.String("category", in.Category),
	)
	defer span.End()

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := repository.PostFilter{Search: in.Search}
	if category := strings.TrimSpace(in.Category); category != "" && category != CategoryAll {
		filter.Category = category
	}

	posts, total, err := s.posts.List(ctx, filter, limit, pageOffset(page, limit))
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	views, err := populatePosts(ctx, s.users, posts)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &models.PostPage{
		Posts:       views,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		CurrentPage: page,
		Total:       total,
	}, nil
}

// pageOffset is (page-1)*limit, saturating at math.MaxInt so huge pages stay past the end.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// GetPostByID returns the populated post. Authors are resolved live even when the post row
// comes from cache.
func (s *PostQueryService) GetPostByID(ctx context.Context, id uint) (*models.PostView, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return populatePost(ctx, s.users, post)
}
