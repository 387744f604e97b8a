package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"financas/internal/domain"
	"financas/internal/repository"
)

const selectExports = `
SELECT id, space_id, requested_by, status, row_count, local_path, remote_location, error_message, created_at, updated_at, completed_at
FROM exports`

type ExportRepository struct {
	db *DB
}

func NewExportRepository(db *DB) repository.ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Create(ctx context.Context, export *domain.Export) error {
	ts := now()
	export.CreatedAt = ts
	export.UpdatedAt = ts

	_, err := r.db.exec(ctx, `
INSERT INTO exports (id, space_id, requested_by, status, row_count, local_path, remote_location, error_message, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		export.ID,
		export.SpaceID,
		export.RequestedBy,
		string(export.Status),
		export.RowCount,
		export.LocalPath,
		export.RemoteLocation,
		export.ErrorMessage,
		export.CreatedAt,
		export.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

func (r *ExportRepository) Get(ctx context.Context, id string) (*domain.Export, error) {
	return r.getOne(ctx, selectExports+`
WHERE id = ?`, id)
}

func (r *ExportRepository) GetInSpace(ctx context.Context, spaceID, id string) (*domain.Export, error) {
	return r.getOne(ctx, selectExports+`
WHERE id = ? AND space_id = ?`, id, spaceID)
}

func (r *ExportRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Export, error) {
	export, err := scanExport(r.db.queryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan export: %w", err)
	}
	return export, nil
}

func (r *ExportRepository) ListBySpace(ctx context.Context, spaceID string) ([]domain.Export, error) {
	return r.list(ctx, selectExports+`
WHERE space_id = ?
ORDER BY created_at DESC, id DESC`, spaceID)
}

func (r *ExportRepository) ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error) {
	if len(statuses) == 0 {
		return []domain.Export{}, nil
	}
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return r.list(ctx, selectExports+`
WHERE status IN (`+placeholders(len(statuses))+`)
ORDER BY created_at ASC, id ASC`, args...)
}

func (r *ExportRepository) list(ctx context.Context, query string, args ...any) ([]domain.Export, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	exports := []domain.Export{}
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, *export)
	}
	return exports, rows.Err()
}

func (r *ExportRepository) UpdateStatus(ctx context.Context, id string, status domain.ExportStatus, errorMessage *string) error {
	msg := ""
	if errorMessage != nil {
		msg = *errorMessage
	}
	_, err := r.db.exec(ctx, `
UPDATE exports
SET status=?, error_message=?, updated_at=?
WHERE id=?`,
		string(status),
		msg,
		now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update export status: %w", err)
	}
	return nil
}

func (r *ExportRepository) UpdateLocalPath(ctx context.Context, id, localPath string, rowCount int) error {
	_, err := r.db.exec(ctx, `
UPDATE exports
SET local_path=?, row_count=?, updated_at=?
WHERE id=?`,
		localPath,
		rowCount,
		now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update export local path: %w", err)
	}
	return nil
}

func (r *ExportRepository) MarkCompleted(ctx context.Context, id, remoteLocation string, completedAt time.Time) error {
	_, err := r.db.exec(ctx, `
UPDATE exports
SET status=?, remote_location=?, local_path='', completed_at=?, updated_at=?
WHERE id=?`,
		string(domain.ExportStatusCompleted),
		remoteLocation,
		completedAt.UTC(),
		now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return nil
}

func (r *ExportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.exec(ctx, `DELETE FROM exports WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete export: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("export delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanExport(row rowScanner) (*domain.Export, error) {
	var (
		export      domain.Export
		status      string
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&export.ID,
		&export.SpaceID,
		&export.RequestedBy,
		&status,
		&export.RowCount,
		&export.LocalPath,
		&export.RemoteLocation,
		&export.ErrorMessage,
		&export.CreatedAt,
		&export.UpdatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	export.Status = domain.ExportStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		export.CompletedAt = &t
	}
	return &export, nil
}
