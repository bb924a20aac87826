package repository

import (
	"context"

	"postshare/internal/cache"
	"postshare/internal/models"
	"postshare/internal/observability"

	"gorm.io/gorm"
)

// PostFilter narrows the post listing. Empty fields do not filter.
type PostFilter struct {
	Category string
	Search   string
}

// PostMutation edits a locked post in place and reports whether anything changed.
type PostMutation func(post *models.Post) (bool, error)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, int64, error)
	Mutate(ctx context.Context, id uint, columns []string, fn PostMutation) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	return mapError(r.db.WithContext(ctx).Create(post).Error, "Post", post.ID)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetByID", "posts")
	defer span.End()

	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		defer observability.TrackQuery("get", "posts")()
		return mapError(r.db.WithContext(ctx).First(&post, id).Error, "Post", id)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if term := models.NormalizeSearchTerm(filter.Search); term != "" {
		db = db.Where(`search_index LIKE ? ESCAPE '\'`, "%"+escapeLike(term)+"%")
	}
	return db
}

// List returns one page, newest first, plus the number of posts matching filter.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, int64, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "List", "posts")
	defer span.End()
	defer observability.TrackQuery("list", "posts")()

	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, mapError(err, "Post", nil)
	}

	posts := []models.Post{}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return posts, total, nil
	}
	if err := r.applyFilter(r.db.WithContext(ctx), filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, mapError(err, "Post", nil)
	}
	return posts, total, nil
}

// Mutate locks the post row, applies fn and writes back only columns. The search index is
// rewritten alongside so it never drifts from the searchable fields.
func (r *postRepository) Mutate(ctx context.Context, id uint, columns []string, fn PostMutation) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Mutate", "posts")
	defer span.End()
	defer observability.TrackQuery("mutate", "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).First(&post, id).Error; err != nil {
			return err
		}
		changed, err := fn(&post)
		if err != nil || !changed {
			return err
		}
		return tx.Model(&post).
			Select(withColumns(columns, "search_index", "updated_at")).
			Updates(&post).Error
	})
	if err != nil {
		return nil, mapError(err, "Post", id)
	}
	cache.InvalidatePost(ctx, id)
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return mapError(result.Error, "Post", id)
	}
	cache.InvalidatePost(ctx, id)
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}
