package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shorty.local/internal/platform/db"
)

func openMemory(t *testing.T) (*SQLiteLinks, *SQLiteUsers) {
	t.Helper()
	sqldb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	ctx := context.Background()
	ls, err := NewSQLiteLinks(ctx, sqldb)
	require.NoError(t, err)
	us, err := NewSQLiteUsers(ctx, sqldb)
	require.NoError(t, err)
	return ls, us
}

func TestSQLiteLinks(t *testing.T) {
	ls, _ := openMemory(t)
	testStoreContract(t, ls, 1, 2)
}

func TestSQLiteLinks_FileDatabase(t *testing.T) {
	path := t.TempDir() + "/links.db"
	sqldb, err := db.OpenSQLite(path)
	require.NoError(t, err)
	defer sqldb.Close()

	ctx := context.Background()
	_, err = NewSQLiteLinks(ctx, sqldb)
	require.NoError(t, err)
	// 建表是幂等的
	ls, err := NewSQLiteLinks(ctx, sqldb)
	require.NoError(t, err)
	assert.NoError(t, ls.Ping(ctx))
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	_, us := openMemory(t)

	id, err := us.Register(ctx, " alice ", "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = us.Register(ctx, "alice", "other@example.com", "another password")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	_, err = us.Register(ctx, "al", "x@example.com", "long enough")
	assert.ErrorIs(t, err, ErrInvalidUsername)
	_, err = us.Register(ctx, "bob", "bob@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	u, err := us.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "user", u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))

	_, err = us.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
