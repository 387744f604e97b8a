package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"financas/internal/domain"
	"financas/internal/repository"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	category.CreatedAt = now()
	_, err := r.db.exec(ctx, `
INSERT INTO categories (id, space_id, name, kind, color, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.SpaceID,
		category.Name,
		string(category.Kind),
		category.Color,
		category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Get(ctx context.Context, spaceID, id string) (*domain.Category, error) {
	row := r.db.queryRow(ctx, `
SELECT id, space_id, name, kind, color, created_at
FROM categories
WHERE id = ? AND space_id = ?`,
		id,
		spaceID,
	)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) ListBySpace(ctx context.Context, spaceID string) ([]domain.Category, error) {
	rows, err := r.db.query(ctx, `
SELECT id, space_id, name, kind, color, created_at
FROM categories
WHERE space_id = ?
ORDER BY name ASC, id ASC`,
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Delete(ctx context.Context, spaceID, id string) error {
	return deleteScoped(ctx, r.db, "categories", spaceID, id)
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		category domain.Category
		kind     string
	)
	if err := row.Scan(&category.ID, &category.SpaceID, &category.Name, &kind, &category.Color, &category.CreatedAt); err != nil {
		return nil, err
	}
	category.Kind = domain.EntryKind(kind)
	return &category, nil
}

// deleteScoped removes one row of table matching both id and space id.
func deleteScoped(ctx context.Context, db *DB, table, spaceID, id string) error {
	res, err := db.exec(ctx, `DELETE FROM `+table+` WHERE id = ? AND space_id = ?`, id, spaceID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s delete rows affected: %w", table, err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}
