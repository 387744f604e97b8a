package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"financas/internal/auth"
	"financas/internal/domain"
	"financas/internal/repository/sqlstore"
	"financas/internal/service"
	"financas/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	hook   *test.Hook
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, svc Services, opts Options) *testServer {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	svc.Tokens = tokens
	svc.Sessions = auth.NewSessionResolver(tokens)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	router := gin.New()
	NewHandler(svc, opts, logger).RegisterRoutes(router)
	return &testServer{router: router, hook: hook, tokens: tokens}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := s.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

// do sends a request; an empty token means no session.
func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

// fakeLedger records every call and answers from the configured funcs.
// Methods without a func panic through the embedded nil interface.
type fakeLedger struct {
	service.LedgerService

	mu         sync.Mutex
	calls      int
	categories func(scope domain.Scope) ([]domain.Category, error)
	tags       func(scope domain.Scope) ([]domain.Tag, error)
}

func (f *fakeLedger) record() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeLedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeLedger) Categories(ctx context.Context, scope domain.Scope) ([]domain.Category, error) {
	f.record()
	return f.categories(scope)
}

func (f *fakeLedger) Tags(ctx context.Context, scope domain.Scope) ([]domain.Tag, error) {
	f.record()
	return f.tags(scope)
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeStorage) UploadFile(ctx context.Context, localPath string, opts storage.UploadOptions) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	return storage.Location(opts.Bucket, opts.Key), nil
}

func (f *fakeStorage) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://" + bucket + ".example.test/" + key + "?signed=1", nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	return nil
}

// stack is a fully wired service layer over a temporary sqlite database.
type stack struct {
	Services
	db *sqlstore.DB
}

func newStack(t *testing.T) *stack {
	t.Helper()
	path := filepath.Join(t.TempDir(), "financas.db")
	db, err := sqlstore.Open(sqlstore.DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlstore.Migrate(sqlstore.DriverSQLite, path))

	userRepo := sqlstore.NewUserRepository(db)
	repos := service.LedgerRepositories{
		Spaces:       sqlstore.NewSpaceRepository(db),
		Categories:   sqlstore.NewCategoryRepository(db),
		Tags:         sqlstore.NewTagRepository(db),
		Reserves:     sqlstore.NewReserveRepository(db),
		Transactions: sqlstore.NewTransactionRepository(db),
	}
	return &stack{
		Services: Services{
			Users:   service.NewUserService(userRepo, "convite"),
			Spaces:  service.NewSpaceService(repos.Spaces, userRepo),
			Ledger:  service.NewLedgerService(repos),
			Exports: service.NewExportService(sqlstore.NewExportRepository(db), repos),
		},
		db: db,
	}
}

func (s *stack) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := s.Users.Register(context.Background(), email, email, "senha-forte", "convite")
	require.NoError(t, err)
	return u
}

func (s *stack) space(t *testing.T, owner *domain.User, name string) domain.Scope {
	t.Helper()
	sp, err := s.Spaces.CreateSpace(context.Background(), owner.ID, name)
	require.NoError(t, err)
	return domain.Scope{UserID: owner.ID, SpaceID: sp.ID}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}
