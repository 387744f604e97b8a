package repository

import (
	"context"

	"financas/internal/domain"
)

// SpaceRepository manages spaces and their membership.
type SpaceRepository interface {
	// Create inserts the space and the owner membership atomically.
	Create(ctx context.Context, space *domain.Space, ownerID string) error
	ListForUser(ctx context.Context, userID string) ([]domain.Space, error)
	// MemberRole returns ErrNotFound when the user is not a member of the space.
	MemberRole(ctx context.Context, spaceID, userID string) (domain.MemberRole, error)
	AddMember(ctx context.Context, spaceID, userID string, role domain.MemberRole) error
	ListMembers(ctx context.Context, spaceID string) ([]domain.Member, error)
}
