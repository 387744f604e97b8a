package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"financas/internal/domain"
	"financas/internal/service"
	"financas/internal/storage"
)

// Manager runs export jobs in the background: CSV rendering, upload and
// status bookkeeping.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Enqueue(ctx context.Context, exportID string) error
	Resume(ctx context.Context) error
	Cancel(ctx context.Context, exportID string) error
}

type Config struct {
	WorkDir       string
	MaxConcurrent int
	Bucket        string
	KeyPrefix     string
	Logger        *logrus.Logger
}

type manager struct {
	cfg     Config
	exports service.ExportService
	storage storage.Service

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	active map[string]*exportHandle
}

type exportHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, exports service.ExportService, store storage.Service) Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:     cfg,
		exports: exports,
		storage: store,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		active:  make(map[string]*exportHandle),
	}
}

func (m *manager) Start(ctx context.Context) error {
	if err := os.MkdirAll(m.cfg.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create export work dir: %w", err)
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.cfg.Logger.Infof("export manager started, work dir: %s", m.cfg.WorkDir)
	return nil
}

func (m *manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("export manager stopped")
}

func (m *manager) Enqueue(ctx context.Context, exportID string) error {
	if m.ctx == nil {
		return fmt.Errorf("export manager not started")
	}
	export, err := m.exports.Get(ctx, exportID)
	if err != nil {
		return err
	}
	m.spawnExport(*export)
	return nil
}

// Resume re-schedules exports left unfinished by a previous run.
func (m *manager) Resume(ctx context.Context) error {
	if m.ctx == nil {
		return fmt.Errorf("export manager not started")
	}
	exports, err := m.exports.ListByStatuses(ctx,
		domain.ExportStatusPending,
		domain.ExportStatusRunning,
		domain.ExportStatusUploading,
	)
	if err != nil {
		return err
	}

	for i := range exports {
		m.spawnExport(exports[i])
	}
	return nil
}

func (m *manager) spawnExport(export domain.Export) {
	exportCtx, cancel := context.WithCancel(m.ctx)
	handle := &exportHandle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if !m.registerExport(export.ID, handle) {
		cancel()
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			cancel()
			m.unregisterExport(export.ID)
			close(handle.done)
		}()
		select {
		case <-m.ctx.Done():
			return
		case <-exportCtx.Done():
			return
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
			m.handleExport(exportCtx, &export)
		}
	}()
}

// registerExport reports false when the export is already being handled.
func (m *manager) registerExport(id string, handle *exportHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[id]; ok {
		return false
	}
	m.active[id] = handle
	return true
}

func (m *manager) unregisterExport(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

func (m *manager) getExportHandle(id string) (*exportHandle, bool) {
	m.mu.Lock()
	handle, ok := m.active[id]
	m.mu.Unlock()
	return handle, ok
}

func (m *manager) Cancel(ctx context.Context, exportID string) error {
	handle, ok := m.getExportHandle(exportID)
	if !ok {
		return nil
	}

	handle.cancel()

	select {
	case <-handle.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *manager) handleExport(ctx context.Context, export *domain.Export) {
	logger := m.cfg.Logger.WithFields(logrus.Fields{
		"export_id": export.ID,
		"space_id":  export.SpaceID,
	})
	switch export.Status {
	case domain.ExportStatusCompleted, domain.ExportStatusFailed:
		logger.Debug("export already finished, skipping")
		return
	case domain.ExportStatusUploading:
		if _, err := os.Stat(export.LocalPath); err == nil {
			logger.Info("export mid-upload, resuming upload")
			m.uploadAndCleanup(ctx, export)
			return
		}
		logger.Info("export file missing, rendering again")
	}

	if err := m.exports.UpdateStatus(ctx, export.ID, domain.ExportStatusRunning, nil); err != nil {
		logger.Errorf("update status failed: %v", err)
		return
	}
	export.Status = domain.ExportStatusRunning

	snapshot, err := m.exports.Snapshot(ctx, export.SpaceID)
	if err != nil {
		m.failExport(ctx, export.ID, fmt.Errorf("load snapshot: %w", err))
		return
	}

	localPath := filepath.Join(m.cfg.WorkDir, export.ID+".csv")
	rows, err := writeCSVFile(localPath, snapshot)
	if err != nil {
		m.failExport(ctx, export.ID, fmt.Errorf("write csv: %w", err))
		return
	}
	export.LocalPath = localPath
	export.RowCount = rows

	if err := m.exports.UpdateLocalPath(ctx, export.ID, localPath, rows); err != nil {
		logger.Warnf("update local path: %v", err)
	}
	logger.Infof("rendered %d rows to %s", rows, localPath)

	m.uploadAndCleanup(ctx, export)
}

func (m *manager) uploadAndCleanup(ctx context.Context, export *domain.Export) {
	logger := m.cfg.Logger.WithField("export_id", export.ID)

	if err := m.exports.UpdateStatus(ctx, export.ID, domain.ExportStatusUploading, nil); err != nil {
		logger.Errorf("set uploading status: %v", err)
		return
	}
	export.Status = domain.ExportStatusUploading

	progressLogger := newUploadProgressLogger(logger)
	opts := storage.UploadOptions{
		Bucket:           m.cfg.Bucket,
		Key:              objectKey(m.cfg.KeyPrefix, export.SpaceID, export.ID),
		ContentType:      "text/csv; charset=utf-8",
		ProgressCallback: progressLogger,
	}

	logger.Infof("upload started from %s", export.LocalPath)

	dest, err := m.storage.UploadFile(ctx, export.LocalPath, opts)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("export cancelled during upload")
			return
		}
		m.failExport(ctx, export.ID, fmt.Errorf("upload: %w", err))
		return
	}

	if err := m.exports.MarkCompleted(ctx, export.ID, dest); err != nil {
		logger.Errorf("mark completed: %v", err)
		return
	}
	export.Status = domain.ExportStatusCompleted

	if err := os.Remove(export.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("cleanup export file: %v", err)
	}

	logger.Infof("export completed and uploaded to %s", dest)
}

func (m *manager) failExport(ctx context.Context, exportID string, failErr error) {
	if ctx.Err() != nil {
		m.cfg.Logger.WithField("export_id", exportID).Info("export cancelled")
		return
	}
	msg := failErr.Error()
	if err := m.exports.UpdateStatus(ctx, exportID, domain.ExportStatusFailed, &msg); err != nil {
		m.cfg.Logger.WithField("export_id", exportID).Errorf("persist failure status: %v", err)
	}
	m.cfg.Logger.WithField("export_id", exportID).Error(msg)
}

// objectKey lays exports out as <prefix>/<spaceId>/<exportId>.csv.
func objectKey(prefix, spaceID, exportID string) string {
	name := path.Join(spaceID, exportID+".csv")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func newUploadProgressLogger(logger *logrus.Entry) func(done, total int64) {
	var lastLog time.Time
	return func(done, total int64) {
		now := time.Now()
		if total == 0 {
			if now.Sub(lastLog) < 500*time.Millisecond && done != 0 {
				return
			}
			lastLog = now
			logger.Debugf("upload progress: %s uploaded", formatBytes(done))
			return
		}

		if now.Sub(lastLog) < 500*time.Millisecond && done != total {
			return
		}
		lastLog = now
		percent := float64(done) / float64(total) * 100
		logger.Debugf("upload progress: %.1f%% (%s/%s)", percent, formatBytes(done), formatBytes(total))
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB",
		float64(b)/float64(div),
		"KMGTPE"[exp],
	)
}

var _ Manager = (*manager)(nil)
