package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"postshare/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix = "user:%d"
	PostKeyPrefix = "post:%d"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 5 * time.Minute
	// generationTTL must outlast any fetch running inside Aside.
	generationTTL = time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// Invalidate drops key and bumps its generation so in-flight Aside fills are discarded.
func Invalidate(ctx context.Context, key string) {
	if client == nil {
		return
	}
	genKey := generationKey(key)
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}
