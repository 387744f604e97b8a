package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"financas/internal/domain"
	"financas/internal/repository"
)

// SpaceService manages spaces and answers the membership question every
// space-scoped operation depends on.
type SpaceService interface {
	Authorize(ctx context.Context, scope domain.Scope) (domain.MemberRole, error)
	ListSpaces(ctx context.Context, userID string) ([]domain.Space, error)
	CreateSpace(ctx context.Context, userID, name string) (*domain.Space, error)
	Members(ctx context.Context, scope domain.Scope) ([]domain.Member, error)
	AddMember(ctx context.Context, scope domain.Scope, email string, role domain.MemberRole) (*domain.Member, error)
}

type spaceService struct {
	spaces repository.SpaceRepository
	users  repository.UserRepository
}

func NewSpaceService(spaces repository.SpaceRepository, users repository.UserRepository) SpaceService {
	return &spaceService{
		spaces: spaces,
		users:  users,
	}
}

// authorize resolves (user, space) to the member's role, or ErrNotMember.
// A missing space and a space the user does not belong to are indistinguishable.
func authorize(ctx context.Context, spaces repository.SpaceRepository, scope domain.Scope) (domain.MemberRole, error) {
	if scope.UserID == "" || scope.SpaceID == "" {
		return "", ErrNotMember
	}
	role, err := spaces.MemberRole(ctx, scope.SpaceID, scope.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotMember
		}
		return "", translate("check membership", err)
	}
	return role, nil
}

func (s *spaceService) Authorize(ctx context.Context, scope domain.Scope) (domain.MemberRole, error) {
	return authorize(ctx, s.spaces, scope)
}

func (s *spaceService) ListSpaces(ctx context.Context, userID string) ([]domain.Space, error) {
	spaces, err := s.spaces.ListForUser(ctx, userID)
	if err != nil {
		return nil, translate("list spaces", err)
	}
	return spaces, nil
}

func (s *spaceService) CreateSpace(ctx context.Context, userID, name string) (*domain.Space, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	space := &domain.Space{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := s.spaces.Create(ctx, space, userID); err != nil {
		return nil, translate("create space", err)
	}
	return space, nil
}

func (s *spaceService) Members(ctx context.Context, scope domain.Scope) ([]domain.Member, error) {
	if _, err := authorize(ctx, s.spaces, scope); err != nil {
		return nil, err
	}
	members, err := s.spaces.ListMembers(ctx, scope.SpaceID)
	if err != nil {
		return nil, translate("list members", err)
	}
	return members, nil
}

func (s *spaceService) AddMember(ctx context.Context, scope domain.Scope, email string, role domain.MemberRole) (*domain.Member, error) {
	callerRole, err := authorize(ctx, s.spaces, scope)
	if err != nil {
		return nil, err
	}
	if callerRole != domain.MemberRoleOwner {
		return nil, ErrForbidden
	}

	if role == "" {
		role = domain.MemberRoleMember
	}
	if !role.Valid() {
		return nil, NewValidationError("Papel deve ser 'owner' ou 'member'")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, NewValidationError("E-mail é obrigatório")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, translate("find member user", err)
	}
	if err := s.spaces.AddMember(ctx, scope.SpaceID, user.ID, role); err != nil {
		return nil, translate("add member", err)
	}

	return &domain.Member{
		SpaceID: scope.SpaceID,
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Role:    role,
	}, nil
}

func validateName(name string) error {
	if name == "" {
		return NewValidationError("Nome é obrigatório")
	}
	if len([]rune(name)) > 100 {
		return NewValidationError("Nome deve ter no máximo 100 caracteres")
	}
	return nil
}
