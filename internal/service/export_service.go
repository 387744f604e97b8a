package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"financas/internal/domain"
	"financas/internal/repository"
)

// ExportService coordinates export records. The scoped methods serve HTTP
// callers; the remaining ones are used by the background export manager.
type ExportService interface {
	RequestExport(ctx context.Context, scope domain.Scope) (*domain.Export, error)
	ListExports(ctx context.Context, scope domain.Scope) ([]domain.Export, error)
	GetExport(ctx context.Context, scope domain.Scope, id string) (*domain.Export, error)
	DeleteExport(ctx context.Context, scope domain.Scope, id string) error

	Get(ctx context.Context, id string) (*domain.Export, error)
	ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error)
	UpdateStatus(ctx context.Context, id string, status domain.ExportStatus, errMsg *string) error
	UpdateLocalPath(ctx context.Context, id, localPath string, rowCount int) error
	MarkCompleted(ctx context.Context, id, remoteLocation string) error
	Snapshot(ctx context.Context, spaceID string) (*Snapshot, error)
}

// Snapshot is everything needed to render a space's transactions as rows.
type Snapshot struct {
	Overview
	Transactions []domain.Transaction
}

type exportService struct {
	exports repository.ExportRepository
	ledger  LedgerRepositories
}

func NewExportService(exports repository.ExportRepository, ledger LedgerRepositories) ExportService {
	return &exportService{
		exports: exports,
		ledger:  ledger,
	}
}

func (s *exportService) RequestExport(ctx context.Context, scope domain.Scope) (*domain.Export, error) {
	if _, err := authorize(ctx, s.ledger.Spaces, scope); err != nil {
		return nil, err
	}
	export := &domain.Export{
		ID:          uuid.NewString(),
		SpaceID:     scope.SpaceID,
		RequestedBy: scope.UserID,
		Status:      domain.ExportStatusPending,
	}
	if err := s.exports.Create(ctx, export); err != nil {
		return nil, translate("create export", err)
	}
	return export, nil
}

func (s *exportService) ListExports(ctx context.Context, scope domain.Scope) ([]domain.Export, error) {
	if _, err := authorize(ctx, s.ledger.Spaces, scope); err != nil {
		return nil, err
	}
	exports, err := s.exports.ListBySpace(ctx, scope.SpaceID)
	if err != nil {
		return nil, translate("list exports", err)
	}
	return exports, nil
}

func (s *exportService) GetExport(ctx context.Context, scope domain.Scope, id string) (*domain.Export, error) {
	if _, err := authorize(ctx, s.ledger.Spaces, scope); err != nil {
		return nil, err
	}
	export, err := s.exports.GetInSpace(ctx, scope.SpaceID, id)
	if err != nil {
		return nil, translate("get export", err)
	}
	return export, nil
}

func (s *exportService) DeleteExport(ctx context.Context, scope domain.Scope, id string) error {
	if _, err := s.GetExport(ctx, scope, id); err != nil {
		return err
	}
	return translate("delete export", s.exports.Delete(ctx, id))
}

func (s *exportService) Get(ctx context.Context, id string) (*domain.Export, error) {
	export, err := s.exports.Get(ctx, id)
	if err != nil {
		return nil, translate("get export", err)
	}
	return export, nil
}

func (s *exportService) ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error) {
	exports, err := s.exports.ListByStatuses(ctx, statuses...)
	if err != nil {
		return nil, translate("list exports", err)
	}
	return exports, nil
}

func (s *exportService) UpdateStatus(ctx context.Context, id string, status domain.ExportStatus, errMsg *string) error {
	return translate("update export status", s.exports.UpdateStatus(ctx, id, status, errMsg))
}

func (s *exportService) UpdateLocalPath(ctx context.Context, id, localPath string, rowCount int) error {
	return translate("update export path", s.exports.UpdateLocalPath(ctx, id, localPath, rowCount))
}

func (s *exportService) MarkCompleted(ctx context.Context, id, remoteLocation string) error {
	return translate("complete export", s.exports.MarkCompleted(ctx, id, remoteLocation, time.Now()))
}

func (s *exportService) Snapshot(ctx context.Context, spaceID string) (*Snapshot, error) {
	overview, err := loadOverview(ctx, s.ledger, spaceID)
	if err != nil {
		return nil, err
	}
	txs, err := s.ledger.Transactions.ListBySpace(ctx, spaceID, domain.TransactionFilter{})
	if err != nil {
		return nil, translate("list transactions", err)
	}
	return &Snapshot{
		Overview:     *overview,
		Transactions: txs,
	}, nil
}
