package sqlstore

import (
	"context"
	"fmt"

	"financas/internal/domain"
	"financas/internal/repository"
)

type TagRepository struct {
	db *DB
}

func NewTagRepository(db *DB) repository.TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	tag.CreatedAt = now()
	_, err := r.db.exec(ctx, `
INSERT INTO tags (id, space_id, name, created_at)
VALUES (?, ?, ?, ?)`,
		tag.ID,
		tag.SpaceID,
		tag.Name,
		tag.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert tag: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (r *TagRepository) ListBySpace(ctx context.Context, spaceID string) ([]domain.Tag, error) {
	rows, err := r.db.query(ctx, `
SELECT id, space_id, name, created_at
FROM tags
WHERE space_id = ?
ORDER BY name ASC, id ASC`,
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.SpaceID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *TagRepository) CountInSpace(ctx context.Context, spaceID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, spaceID)
	for _, id := range ids {
		args = append(args, id)
	}

	var count int
	err := r.db.queryRow(ctx, `
SELECT COUNT(*)
FROM tags
WHERE space_id = ? AND id IN (`+placeholders(len(ids))+`)`,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return count, nil
}

func (r *TagRepository) Delete(ctx context.Context, spaceID, id string) error {
	return deleteScoped(ctx, r.db, "tags", spaceID, id)
}
