package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubGooseUp(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string) error) {
	t.Helper()
	original := gooseUp
	gooseUp = fn
	t.Cleanup(func() { gooseUp = original })
}

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "migrations/00001_init.sql")
}

func TestRunMigrations(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotDir string
		stubGooseUp(t, func(_ context.Context, _ *sql.DB, dir string) error {
			gotDir = dir
			return nil
		})

		require.NoError(t, RunMigrations(context.Background(), nil))
		assert.Equal(t, "migrations", gotDir)
	})

	t.Run("Failure", func(t *testing.T) {
		boom := errors.New("relation already exists")
		stubGooseUp(t, func(context.Context, *sql.DB, string) error { return boom })

		err := RunMigrations(context.Background(), nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "run migrations")
	})
}
