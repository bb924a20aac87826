package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrations_EmbeddedOrder(t *testing.T) {
	all := GetMigrations()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "000001_init", all[0].String())
	assert.Equal(t, "000002_post_search_trgm", all[1].String())
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, all[1].DownScript, "idx_posts_search_index_trgm")

	require.NotNil(t, GetMigrationByVersion(2))
	assert.Nil(t, GetMigrationByVersion(99))
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
		want  string
	}{
		{
			name:  "missing down script",
			files: fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("SELECT 1")}},
			want:  "down script",
		},
		{
			name: "bad version",
			files: fstest.MapFS{
				"m/abc_a.up.sql":   {Data: []byte("SELECT 1")},
				"m/abc_a.down.sql": {Data: []byte("SELECT 1")},
			},
			want: "invalid version",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"m/000001_a.up.sql":   {Data: []byte("SELECT 1")},
				"m/000001_a.down.sql": {Data: []byte("SELECT 1")},
				"m/000001_b.up.sql":   {Data: []byte("SELECT 1")},
				"m/000001_b.down.sql": {Data: []byte("SELECT 1")},
			},
			want: "used by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.files, "m")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	files := fstest.MapFS{
		"m/000010_late.up.sql":    {Data: []byte("late")},
		"m/000010_late.down.sql":  {Data: []byte("undo late")},
		"m/000002_early.up.sql":   {Data: []byte("early")},
		"m/000002_early.down.sql": {Data: []byte("undo early")},
		"m/README.md":             {Data: []byte("ignored")},
	}
	got, err := LoadMigrations(files, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].Name)
	assert.Equal(t, "undo late", got[1].DownScript)
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "init"}, {Version: 2, Name: "trgm"}}

	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7, 3}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003, 000007")
}

func TestPendingMigrations(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	pending := pendingMigrations([]int{1, 3}, registered)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
	assert.Empty(t, pendingMigrations([]int{1, 2, 3}, registered))
}
