package repository

import (
	"context"
	"errors"
	"sort"

	"postshare/internal/cache"
	"postshare/internal/models"
	"postshare/internal/observability"

	"gorm.io/gorm"
)

// UserMutation edits a locked user in place and reports whether anything changed.
type UserMutation func(user *models.User) (bool, error)

// UserPairMutation edits two locked users in place. The callback always receives them in
// the order the caller named them, regardless of lock order.
type UserPairMutation func(first, second *models.User) error

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListGraph(ctx context.Context) ([]models.User, error)
	Summaries(ctx context.Context, ids []uint) (models.UserDirectory, error)
	Mutate(ctx context.Context, id uint, columns []string, fn UserMutation) (*models.User, error)
	MutatePair(ctx context.Context, firstID, secondID uint, columns []string, fn UserPairMutation) (*models.User, *models.User, error)
	MutateAll(ctx context.Context, columns []string, fn func(users []*models.User) ([]*models.User, error)) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Email already registered")
		}
		return mapError(err, "User", user.ID)
	}
	return nil
}

// GetByID serves the user cache-aside. Cached copies never carry the password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetByID", "users")
	defer span.End()

	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		defer observability.TrackQuery("get", "users")()
		return mapError(r.db.WithContext(ctx).First(&user, id).Error, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no account uses email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, mapError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	defer observability.TrackQuery("list", "users")()
	var users []models.User
	if err := r.db.WithContext(ctx).
		Select("id", "username", "avatar").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, mapError(err, "User", nil)
	}
	return users, nil
}

// ListGraph returns every user with only the id and follow lists loaded.
func (r *userRepository) ListGraph(ctx context.Context) ([]models.User, error) {
	defer observability.TrackQuery("list_graph", "users")()
	var users []models.User
	if err := r.db.WithContext(ctx).
		Select("id", "followers", "following").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, mapError(err, "User", nil)
	}
	return users, nil
}

// Summaries resolves ids to their current username and avatar in one query.
func (r *userRepository) Summaries(ctx context.Context, ids []uint) (models.UserDirectory, error) {
	dir := models.UserDirectory{}
	ids = models.DedupeIDs(ids)
	if len(ids) == 0 {
		return dir, nil
	}

	defer observability.TrackQuery("summaries", "users")()
	var users []models.User
	if err := r.db.WithContext(ctx).
		Select("id", "username", "avatar").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, mapError(err, "User", nil)
	}
	for i := range users {
		dir[users[i].ID] = users[i].Summary()
	}
	return dir, nil
}

// Mutate locks the user row, applies fn and writes back only columns. A callback reporting
// no change commits without writing.
func (r *userRepository) Mutate(ctx context.Context, id uint, columns []string, fn UserMutation) (*models.User, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Mutate", "users")
	defer span.End()
	defer observability.TrackQuery("mutate", "users")()

	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).First(&user, id).Error; err != nil {
			return err
		}
		changed, err := fn(&user)
		if err != nil || !changed {
			return err
		}
		return tx.Model(&user).Select(withColumns(columns, "updated_at")).Updates(&user).Error
	})
	if err != nil {
		return nil, mapError(err, "User", id)
	}
	cache.InvalidateUser(ctx, id)
	return &user, nil
}

// MutatePair locks both users in ascending id order so concurrent pair mutations cannot
// deadlock, then writes both back in the same transaction.
func (r *userRepository) MutatePair(ctx context.Context, firstID, secondID uint, columns []string, fn UserPairMutation) (*models.User, *models.User, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "MutatePair", "users")
	defer span.End()
	defer observability.TrackQuery("mutate_pair", "users")()

	var first, second models.User
	locked := []struct {
		id   uint
		dest *models.User
	}{{firstID, &first}, {secondID, &second}}
	if secondID < firstID {
		locked[0], locked[1] = locked[1], locked[0]
	}

	var missing uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, l := range locked {
			if err := tx.Clauses(forUpdate).First(l.dest, l.id).Error; err != nil {
				missing = l.id
				return err
			}
		}
		if err := fn(&first, &second); err != nil {
			return err
		}
		cols := withColumns(columns, "updated_at")
		for _, l := range locked {
			if err := tx.Model(l.dest).Select(cols).Updates(l.dest).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, mapError(err, "User", missing)
	}
	cache.InvalidateUser(ctx, firstID)
	cache.InvalidateUser(ctx, secondID)
	return &first, &second, nil
}

// MutateAll locks every user row in id order and persists the users fn returns.
func (r *userRepository) MutateAll(ctx context.Context, columns []string, fn func(users []*models.User) ([]*models.User, error)) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "MutateAll", "users")
	defer span.End()

	var changed []*models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.User
		if err := tx.Clauses(forUpdate).Order("id ASC").Find(&rows).Error; err != nil {
			return err
		}
		users := make([]*models.User, len(rows))
		for i := range rows {
			users[i] = &rows[i]
		}

		var err error
		changed, err = fn(users)
		if err != nil {
			return err
		}
		sort.Slice(changed, func(i, j int) bool { return changed[i].ID < changed[j].ID })

		cols := withColumns(columns, "updated_at")
		for _, u := range changed {
			if err := tx.Model(u).Select(cols).Updates(u).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err, "User", nil)
	}
	for _, u := range changed {
		cache.InvalidateUser(ctx, u.ID)
	}
	return nil
}
