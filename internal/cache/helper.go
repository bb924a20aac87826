package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"postshare/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// GetJSON reads key into dest. It returns (false, nil) on a miss or when no client is configured.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Aside serves key from Redis, falling back to fetch (which must fill dest) on a miss and
// storing the result. Cache failures degrade to a plain fetch. The result is not stored when
// key was invalidated while fetch ran, since it may predate the write that invalidated it.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	gen := generation(ctx, key)
	if err := fetch(); err != nil {
		return err
	}

	if err := setIfGeneration(ctx, key, gen, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

func generationKey(key string) string {
	return key + ":gen"
}

// generation returns how many times key has been invalidated recently. Unknown reads as 0.
func generation(ctx context.Context, key string) int64 {
	if client == nil {
		return 0
	}
	g, err := client.Get(ctx, generationKey(key)).Int64()
	if err != nil {
		return 0
	}
	return g
}

// setIfGeneration stores v under key only while key's generation is still gen.
func setIfGeneration(ctx context.Context, key string, gen int64, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	genKey := generationKey(key)
	err = client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}
