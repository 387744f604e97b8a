package repository

import (
	"context"
	"time"

	"financas/internal/domain"
)

// ExportRepository exposes persistence operations for Export records.
type ExportRepository interface {
	Create(ctx context.Context, export *domain.Export) error
	Get(ctx context.Context, id string) (*domain.Export, error)
	GetInSpace(ctx context.Context, spaceID, id string) (*domain.Export, error)
	ListBySpace(ctx context.Context, spaceID string) ([]domain.Export, error)
	ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error)
	UpdateStatus(ctx context.Context, id string, status domain.ExportStatus, errorMessage *string) error
	UpdateLocalPath(ctx context.Context, id, localPath string, rowCount int) error
	MarkCompleted(ctx context.Context, id, remoteLocation string, completedAt time.Time) error
	Delete(ctx context.Context, id string) error
}
