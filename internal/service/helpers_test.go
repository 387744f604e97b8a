package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"financas/internal/domain"
	"financas/internal/repository/sqlstore"
)

type fixture struct {
	db      *sqlstore.DB
	users   UserService
	spaces  SpaceService
	ledger  LedgerService
	exports ExportService
	repos   LedgerRepositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "financas.db")
	db, err := sqlstore.Open(sqlstore.DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlstore.Migrate(sqlstore.DriverSQLite, path))

	userRepo := sqlstore.NewUserRepository(db)
	repos := LedgerRepositories{
		Spaces:       sqlstore.NewSpaceRepository(db),
		Categories:   sqlstore.NewCategoryRepository(db),
		Tags:         sqlstore.NewTagRepository(db),
		Reserves:     sqlstore.NewReserveRepository(db),
		Transactions: sqlstore.NewTransactionRepository(db),
	}
	return &fixture{
		db:      db,
		users:   NewUserService(userRepo, "segredo"),
		spaces:  NewSpaceService(repos.Spaces, userRepo),
		ledger:  NewLedgerService(repos),
		exports: NewExportService(sqlstore.NewExportRepository(db), repos),
		repos:   repos,
	}
}

func (f *fixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), email, email, "senha-forte", "segredo")
	require.NoError(t, err)
	return u
}

func (f *fixture) space(t *testing.T, owner *domain.User, name string) domain.Scope {
	t.Helper()
	s, err := f.spaces.CreateSpace(context.Background(), owner.ID, name)
	require.NoError(t, err)
	return domain.Scope{UserID: owner.ID, SpaceID: s.ID}
}

func randomID() string {
	return uuid.NewString()
}
