package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"financas/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "financas.db")

	db, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(DriverSQLite, path))
	return db
}

func seedUser(t *testing.T, db *DB, email string) *domain.User {
	t.Helper()
	user := &domain.User{ID: uuid.NewString(), Email: email, Name: email, PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func seedSpace(t *testing.T, db *DB, name, ownerID string) *domain.Space {
	t.Helper()
	space := &domain.Space{ID: uuid.NewString(), Name: name}
	require.NoError(t, NewSpaceRepository(db).Create(context.Background(), space, ownerID))
	return space
}
