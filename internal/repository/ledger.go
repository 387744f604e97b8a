package repository

import (
	"context"

	"financas/internal/domain"
)

// Every method below is confined to the given space id; a record belonging to
// another space behaves as if it did not exist.

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Get(ctx context.Context, spaceID, id string) (*domain.Category, error)
	ListBySpace(ctx context.Context, spaceID string) ([]domain.Category, error)
	Delete(ctx context.Context, spaceID, id string) error
}

type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	ListBySpace(ctx context.Context, spaceID string) ([]domain.Tag, error)
	// CountInSpace reports how many of ids exist in the space.
	CountInSpace(ctx context.Context, spaceID string, ids []string) (int, error)
	Delete(ctx context.Context, spaceID, id string) error
}

type ReserveRepository interface {
	Create(ctx context.Context, reserve *domain.Reserve) error
	Get(ctx context.Context, spaceID, id string) (*domain.Reserve, error)
	ListBySpace(ctx context.Context, spaceID string) ([]domain.Reserve, error)
	Delete(ctx context.Context, spaceID, id string) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	Get(ctx context.Context, spaceID, id string) (*domain.Transaction, error)
	ListBySpace(ctx context.Context, spaceID string, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Delete(ctx context.Context, spaceID, id string) error
}
