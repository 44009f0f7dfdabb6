package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sgu-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	ana, err := repo.Create(ctx, model.Fields{FullName: "Ana", Email: "a@x.com", PhoneNumber: "1"})
	require.NoError(t, err)
	bob, err := repo.Create(ctx, model.Fields{FullName: "Bob", Email: "b@x.com", PhoneNumber: "2"})
	require.NoError(t, err)
	assert.True(t, ana.Persisted())
	assert.NotEqual(t, ana.ID, bob.ID)

	users, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{ana, bob}, users, "list is ordered by id")

	bobID := mustID(t, bob.ID)
	got, err := repo.Get(ctx, bobID)
	require.NoError(t, err)
	assert.Equal(t, bob, got)

	updated, err := repo.Update(ctx, bobID, model.Fields{FullName: "Bobby", Email: "b@x.com", PhoneNumber: "2"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, updated.ID)
	got, err = repo.Get(ctx, bobID)
	require.NoError(t, err)
	assert.Equal(t, "Bobby", got.FullName)

	_, err = repo.Update(ctx, 9999, bob.Fields())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, mustID(t, ana.ID)))
	assert.ErrorIs(t, repo.Delete(ctx, mustID(t, ana.ID)), ErrNotFound)

	users, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{updated}, users)

	carol, err := repo.Create(ctx, model.Fields{FullName: "Carol", Email: "c@x.com", PhoneNumber: "3"})
	require.NoError(t, err)
	assert.Greater(t, mustID(t, carol.ID), bobID, "ids are not reused")
}

func mustID(t *testing.T, id model.ID) int64 {
	t.Helper()
	n, ok := id.Int()
	require.True(t, ok, "id %q is not numeric", id)
	return n
}

func TestMemoryRepository(t *testing.T) {
	t.Parallel()
	exerciseRepository(t, NewMemory())
}

func TestSQLiteRepository(t *testing.T) {
	t.Parallel()
	repo, err := OpenSQL(context.Background(), SQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	exerciseRepository(t, repo)
}

func TestSQLiteRepository_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	first, err := OpenSQL(ctx, SQLite, path)
	require.NoError(t, err)
	created, err := first.Create(ctx, model.Fields{FullName: "Ana", Email: "a@x.com", PhoneNumber: "1"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	users, err := second.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{created}, users)
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("SGU_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SGU_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	repo, err := OpenSQL(ctx, Postgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	_, err = repo.DB().ExecContext(ctx, `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)
	exerciseRepository(t, repo)
}

func TestOpen_SelectsBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo, err := Open(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, repo)

	repo, err = Open(ctx, filepath.Join(t.TempDir(), "x.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	assert.IsType(t, &SQLStore{}, repo)

	_, err = Open(ctx, "mysql://nope")
	assert.ErrorContains(t, err, "unsupported database")
}

func TestSQLStore_NumberedPlaceholders(t *testing.T) {
	t.Parallel()
	s := &SQLStore{dialect: Postgres}
	assert.Equal(t, "UPDATE users SET a = $1, b = $2 WHERE id = $3", s.q("UPDATE users SET a = ?, b = ? WHERE id = ?"))
	s = &SQLStore{dialect: SQLite}
	assert.Equal(t, "SELECT ? ", s.q("SELECT ? "))
}
