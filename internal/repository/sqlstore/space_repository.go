package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"financas/internal/domain"
	"financas/internal/repository"
)

type SpaceRepository struct {
	db *DB
}

func NewSpaceRepository(db *DB) repository.SpaceRepository {
	return &SpaceRepository{db: db}
}

func (r *SpaceRepository) Create(ctx context.Context, space *domain.Space, ownerID string) error {
	ts := now()
	space.CreatedAt = ts
	space.UpdatedAt = ts
	space.Role = domain.MemberRoleOwner

	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.db.rebind(`
INSERT INTO spaces (id, name, created_at, updated_at)
VALUES (?, ?, ?, ?)`),
			space.ID,
			space.Name,
			space.CreatedAt,
			space.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert space: %w", err)
		}

		if _, err := tx.ExecContext(ctx, r.db.rebind(`
INSERT INTO space_members (space_id, user_id, role, created_at)
VALUES (?, ?, ?, ?)`),
			space.ID,
			ownerID,
			string(domain.MemberRoleOwner),
			ts,
		); err != nil {
			return fmt.Errorf("insert space owner: %w", err)
		}
		return nil
	})
}

func (r *SpaceRepository) ListForUser(ctx context.Context, userID string) ([]domain.Space, error) {
	rows, err := r.db.query(ctx, `
SELECT s.id, s.name, m.role, s.created_at, s.updated_at
FROM spaces s
JOIN space_members m ON m.space_id = s.id
WHERE m.user_id = ?
ORDER BY s.name ASC, s.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query spaces: %w", err)
	}
	defer rows.Close()

	spaces := []domain.Space{}
	for rows.Next() {
		var (
			space domain.Space
			role  string
		)
		if err := rows.Scan(&space.ID, &space.Name, &role, &space.CreatedAt, &space.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan space: %w", err)
		}
		space.Role = domain.MemberRole(role)
		spaces = append(spaces, space)
	}
	return spaces, rows.Err()
}

func (r *SpaceRepository) MemberRole(ctx context.Context, spaceID, userID string) (domain.MemberRole, error) {
	var role string
	err := r.db.queryRow(ctx, `
SELECT role
FROM space_members
WHERE space_id = ? AND user_id = ?`,
		spaceID,
		userID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("query member role: %w", err)
	}
	return domain.MemberRole(role), nil
}

func (r *SpaceRepository) AddMember(ctx context.Context, spaceID, userID string, role domain.MemberRole) error {
	_, err := r.db.exec(ctx, `
INSERT INTO space_members (space_id, user_id, role, created_at)
VALUES (?, ?, ?, ?)`,
		spaceID,
		userID,
		string(role),
		now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert member: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *SpaceRepository) ListMembers(ctx context.Context, spaceID string) ([]domain.Member, error) {
	rows, err := r.db.query(ctx, `
SELECT m.space_id, m.user_id, u.email, u.name, m.role, m.created_at
FROM space_members m
JOIN users u ON u.id = m.user_id
WHERE m.space_id = ?
ORDER BY m.created_at ASC, u.email ASC`,
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var (
			member domain.Member
			role   string
		)
		if err := rows.Scan(&member.SpaceID, &member.UserID, &member.Email, &member.Name, &role, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		member.Role = domain.MemberRole(role)
		members = append(members, member)
	}
	return members, rows.Err()
}
