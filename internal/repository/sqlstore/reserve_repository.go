package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"financas/internal/domain"
	"financas/internal/repository"
)

type ReserveRepository struct {
	db *DB
}

func NewReserveRepository(db *DB) repository.ReserveRepository {
	return &ReserveRepository{db: db}
}

func (r *ReserveRepository) Create(ctx context.Context, reserve *domain.Reserve) error {
	reserve.CreatedAt = now()
	_, err := r.db.exec(ctx, `
INSERT INTO reserves (id, space_id, name, description, goal, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		reserve.ID,
		reserve.SpaceID,
		reserve.Name,
		reserve.Description,
		reserve.Goal.String(),
		reserve.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reserve: %w", err)
	}
	return nil
}

func (r *ReserveRepository) Get(ctx context.Context, spaceID, id string) (*domain.Reserve, error) {
	row := r.db.queryRow(ctx, `
SELECT id, space_id, name, description, goal, created_at
FROM reserves
WHERE id = ? AND space_id = ?`,
		id,
		spaceID,
	)
	reserve, err := scanReserve(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reserve: %w", err)
	}
	return reserve, nil
}

func (r *ReserveRepository) ListBySpace(ctx context.Context, spaceID string) ([]domain.Reserve, error) {
	rows, err := r.db.query(ctx, `
SELECT id, space_id, name, description, goal, created_at
FROM reserves
WHERE space_id = ?
ORDER BY name ASC, id ASC`,
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reserves: %w", err)
	}
	defer rows.Close()

	reserves := []domain.Reserve{}
	for rows.Next() {
		reserve, err := scanReserve(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reserve: %w", err)
		}
		reserves = append(reserves, *reserve)
	}
	return reserves, rows.Err()
}

func (r *ReserveRepository) Delete(ctx context.Context, spaceID, id string) error {
	return deleteScoped(ctx, r.db, "reserves", spaceID, id)
}

func scanReserve(row rowScanner) (*domain.Reserve, error) {
	var reserve domain.Reserve
	if err := row.Scan(&reserve.ID, &reserve.SpaceID, &reserve.Name, &reserve.Description, &reserve.Goal, &reserve.CreatedAt); err != nil {
		return nil, err
	}
	return &reserve, nil
}
