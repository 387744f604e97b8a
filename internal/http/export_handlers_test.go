package http

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/domain"
	"financas/internal/exporter"
	"financas/internal/service"
	"financas/internal/storage"
)

func newExportServer(t *testing.T) (*stack, *testServer, *fakeStorage) {
	t.Helper()
	st := newStack(t)
	store := &fakeStorage{}
	logger, _ := test.NewNullLogger()
	manager := exporter.NewManager(exporter.Config{
		WorkDir:   filepath.Join(t.TempDir(), "exports"),
		Bucket:    "financas",
		KeyPrefix: "exports",
		Logger:    logger,
	}, st.Exports, store)
	require.NoError(t, manager.Start(context.Background()))
	t.Cleanup(manager.Shutdown)

	st.ExportManager = manager
	st.Storage = store
	srv := newTestServer(t, st.Services, Options{Bucket: "financas"})
	return st, srv, store
}

func TestExports_Lifecycle(t *testing.T) {
	st, srv, store := newExportServer(t)
	ana := st.user(t, "ana@example.com")
	casa := st.space(t, ana, "Casa")
	token := srv.token(t, ana.ID)
	q := "?spaceId=" + casa.SpaceID

	rec := srv.do(t, http.MethodPost, "/api/exports"+q, token, nil)
	assertStatus(t, rec, http.StatusAccepted)
	export := decode[ExportResponse](t, rec)
	assert.Equal(t, domain.ExportStatusPending, export.Status)

	require.Eventually(t, func() bool {
		rec := srv.do(t, http.MethodGet, "/api/exports"+q, token, nil)
		list := decode[[]ExportResponse](t, rec)
		return len(list) == 1 && list[0].Status == domain.ExportStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	rec = srv.do(t, http.MethodGet, "/api/exports/"+export.ID+"/download"+q, token, nil)
	assertStatus(t, rec, http.StatusOK)
	download := decode[downloadResponse](t, rec)
	wantKey := "exports/" + casa.SpaceID + "/" + export.ID + ".csv"
	assert.True(t, strings.HasPrefix(download.URL, "https://financas.example.test/"+wantKey), download.URL)

	rec = srv.do(t, http.MethodDelete, "/api/exports/"+export.ID+q, token, nil)
	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, []string{wantKey}, store.deleted)

	rec = srv.do(t, http.MethodGet, "/api/exports/"+export.ID+"/download"+q, token, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestExports_DownloadBeforeCompletion(t *testing.T) {
	st, srv, _ := newExportServer(t)
	ana := st.user(t, "ana@example.com")
	casa := st.space(t, ana, "Casa")

	export, err := st.Exports.RequestExport(context.Background(), casa)
	require.NoError(t, err)

	rec := srv.do(t, http.MethodGet, "/api/exports/"+export.ID+"/download?spaceId="+casa.SpaceID, srv.token(t, ana.ID), nil)
	assertStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "Exportação ainda não concluída", errorMessage(t, rec))
}

func TestExports_OtherSpaceIsHidden(t *testing.T) {
	st, srv, _ := newExportServer(t)
	ana := st.user(t, "ana@example.com")
	bia := st.user(t, "bia@example.com")
	casa := st.space(t, ana, "Casa")
	outra := st.space(t, bia, "Outra")

	export, err := st.Exports.RequestExport(context.Background(), casa)
	require.NoError(t, err)

	biaToken := srv.token(t, bia.ID)
	rec := srv.do(t, http.MethodGet, "/api/exports?spaceId="+casa.SpaceID, biaToken, nil)
	assertStatus(t, rec, http.StatusForbidden)

	rec = srv.do(t, http.MethodDelete, "/api/exports/"+export.ID+"?spaceId="+outra.SpaceID, biaToken, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestExports_NotRegisteredWithoutBucket(t *testing.T) {
	st := newStack(t)
	srv := newTestServer(t, st.Services, Options{})
	ana := st.user(t, "ana@example.com")
	casa := st.space(t, ana, "Casa")

	rec := srv.do(t, http.MethodPost, "/api/exports?spaceId="+casa.SpaceID, srv.token(t, ana.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// finishingManager completes the export while Cancel is in flight, the way a
// worker that is already uploading would.
type finishingManager struct {
	exporter.Manager
	exports service.ExportService
	key     string
	err     error
}

func (m *finishingManager) Cancel(ctx context.Context, exportID string) error {
	if err := m.exports.MarkCompleted(ctx, exportID, storage.Location("financas", m.key)); err != nil {
		return err
	}
	return m.err
}

func TestExports_DeleteSeesUploadFinishedDuringCancel(t *testing.T) {
	st := newStack(t)
	ana := st.user(t, "ana@example.com")
	casa := st.space(t, ana, "Casa")

	export, err := st.Exports.RequestExport(context.Background(), casa)
	require.NoError(t, err)
	key := "exports/" + casa.SpaceID + "/" + export.ID + ".csv"

	store := &fakeStorage{}
	st.Storage = store
	st.ExportManager = &finishingManager{exports: st.Exports, key: key}
	srv := newTestServer(t, st.Services, Options{Bucket: "financas"})

	rec := srv.do(t, http.MethodDelete, "/api/exports/"+export.ID+"?spaceId="+casa.SpaceID, srv.token(t, ana.ID), nil)
	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, []string{key}, store.deleted)

	_, err = st.Exports.GetExport(context.Background(), casa, export.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestExports_DeleteReportsCancelTimeout(t *testing.T) {
	st := newStack(t)
	ana := st.user(t, "ana@example.com")
	casa := st.space(t, ana, "Casa")

	export, err := st.Exports.RequestExport(context.Background(), casa)
	require.NoError(t, err)

	st.Storage = &fakeStorage{}
	st.ExportManager = &finishingManager{
		exports: st.Exports,
		key:     "exports/" + casa.SpaceID + "/" + export.ID + ".csv",
		err:     context.DeadlineExceeded,
	}
	srv := newTestServer(t, st.Services, Options{Bucket: "financas"})

	rec := srv.do(t, http.MethodDelete, "/api/exports/"+export.ID+"?spaceId="+casa.SpaceID, srv.token(t, ana.ID), nil)
	assertStatus(t, rec, http.StatusOK)
	body := decode[struct {
		Deleted  string   `json:"deleted"`
		Warnings []string `json:"warnings"`
	}](t, rec)
	assert.Equal(t, export.ID, body.Deleted)
	require.Len(t, body.Warnings, 1)
	assert.Contains(t, body.Warnings[0], "cancel export")
}
