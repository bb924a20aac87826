package service

import (
	"context"
	"strings"
	"testing"

	"postshare/internal/models"
	"postshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ListUsers(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateUser(t, f.db, "a")
	b := testutil.CreateUser(t, f.db, "b")

	users, err := f.profiles.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{
		{ID: a.ID, Username: "a"},
		{ID: b.ID, Username: "b"},
	}, users)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")

	user, err := f.profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: a.ID, Bio: strPtr("hello")})
	require.NoError(t, err)
	assert.Equal(t, "hello", user.Bio)
	assert.Equal(t, "a", user.Username)

	user, err = f.profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: a.ID, Avatar: []byte("first")})
	require.NoError(t, err)
	firstAvatar := user.Avatar
	assert.NotEmpty(t, firstAvatar)
	assert.Empty(t, f.images.Released())

	user, err = f.profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: a.ID, Avatar: []byte("second")})
	require.NoError(t, err)
	assert.NotEqual(t, firstAvatar, user.Avatar)
	assert.Equal(t, []string{firstAvatar}, f.images.Released())

	stored := loadUser(t, f, a.ID)
	assert.Equal(t, "hello", stored.Bio)
	assert.Equal(t, user.Avatar, stored.Avatar)
}

func TestUserService_UpdateProfileValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")

	tests := []struct {
		name string
		in   UpdateProfileInput
		code string
	}{
		{"blank username", UpdateProfileInput{UserID: a.ID, Username: strPtr("  ")}, models.CodeValidation},
		{"long username", UpdateProfileInput{UserID: a.ID, Username: strPtr(strings.Repeat("x", 31))}, models.CodeValidation},
		{"long bio", UpdateProfileInput{UserID: a.ID, Bio: strPtr(strings.Repeat("x", 501))}, models.CodeValidation},
		{"missing user", UpdateProfileInput{UserID: 404, Bio: strPtr("x")}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.profiles.UpdateProfile(ctx, tt.in)
			assert.Equal(t, tt.code, models.ErrorCode(err))
		})
	}
}

func TestUserService_UpdateProfileMissingUserReleasesNewAvatar(t *testing.T) {
	f := newFixture(t)

	_, err := f.profiles.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 404, Avatar: []byte("orphan")})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	require.Len(t, f.images.Released(), 1)
	assert.Equal(t, "/uploads/404-1.webp", f.images.Released()[0])
}
