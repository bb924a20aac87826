package bootstrap

import (
	"context"
	"testing"

	"postshare/internal/config"
	"postshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(name string) *config.Config {
	return &config.Config{
		Env:                      "development",
		DBDriver:                 "sqlite",
		DBPath:                   "file:" + name + "?mode=memory&cache=shared",
		DBAutoMigrate:            true,
		DBConnMaxLifetimeMinutes: 5,
		// Nothing listens here, so Redis stays disabled.
		RedisURL: "127.0.0.1:1",
	}
}

func TestInitRuntime_SeedsEmptyDatabaseOnce(t *testing.T) {
	cfg := sqliteConfig("bootstrap_seed")
	cfg.SeedDemoData = true

	db, r, err := InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	assert.Nil(t, r)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Positive(t, users)

	db, _, err = InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	var again int64
	require.NoError(t, db.Model(&models.User{}).Count(&again).Error)
	assert.Equal(t, users, again)
}

func TestInitRuntime_OptionOverridesConfig(t *testing.T) {
	cfg := sqliteConfig("bootstrap_noseed")
	cfg.SeedDemoData = true
	off := false

	db, _, err := InitRuntime(context.Background(), cfg, Options{SeedDemoData: &off})
	require.NoError(t, err)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
