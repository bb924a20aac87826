// Package bootstrap wires the process-level dependencies shared by the server and admin binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"postshare/internal/cache"
	"postshare/internal/config"
	"postshare/internal/database"
	"postshare/internal/middleware"
	"postshare/internal/models"
	"postshare/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData overrides cfg.SeedDemoData when set.
	SeedDemoData *bool
}

// InitRuntime connects to the database and Redis. Redis is optional: an unreachable server
// yields a nil client and the app runs with caching and the relay fan-out disabled.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.InitRedis(cfg.RedisURL)

	wantSeed := cfg.SeedDemoData
	if opts.SeedDemoData != nil {
		wantSeed = *opts.SeedDemoData
	}
	if wantSeed && !cfg.IsProduction() {
		if err := seedIfEmpty(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// seedIfEmpty generates demo data only when no user exists yet, so restarts never duplicate it.
func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		middleware.Logger.Info("Skipping demo seed, database is not empty", slog.Int64("users", count))
		return nil
	}

	report, err := seed.Seed(ctx, db, seed.DefaultOptions)
	if err != nil {
		return err
	}
	middleware.Logger.Info("Seeded demo data",
		slog.Int("users", report.Users),
		slog.Int("posts", report.Posts),
		slog.Int("follows", report.Follows),
	)
	return nil
}
