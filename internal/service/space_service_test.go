package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/domain"
)

func TestSpaceService_Authorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := f.user(t, "ana@example.com")
	bia := f.user(t, "bia@example.com")
	casa := f.space(t, ana, "Casa")

	role, err := f.spaces.Authorize(ctx, casa)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberRoleOwner, role)

	_, err = f.spaces.Authorize(ctx, domain.Scope{UserID: bia.ID, SpaceID: casa.SpaceID})
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.spaces.Authorize(ctx, domain.Scope{UserID: ana.ID, SpaceID: randomID()})
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.spaces.Authorize(ctx, domain.Scope{UserID: ana.ID})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestSpaceService_AddMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := f.user(t, "ana@example.com")
	bia := f.user(t, "bia@example.com")
	caio := f.user(t, "caio@example.com")
	casa := f.space(t, ana, "Casa")

	member, err := f.spaces.AddMember(ctx, casa, "BIA@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, bia.ID, member.UserID)
	assert.Equal(t, domain.MemberRoleMember, member.Role)

	_, err = f.spaces.AddMember(ctx, casa, "bia@example.com", domain.MemberRoleMember)
	assert.ErrorIs(t, err, ErrConflict)

	biaScope := domain.Scope{UserID: bia.ID, SpaceID: casa.SpaceID}
	_, err = f.spaces.AddMember(ctx, biaScope, "caio@example.com", domain.MemberRoleMember)
	assert.ErrorIs(t, err, ErrForbidden)

	caioScope := domain.Scope{UserID: caio.ID, SpaceID: casa.SpaceID}
	_, err = f.spaces.Members(ctx, caioScope)
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.spaces.AddMember(ctx, casa, "ninguem@example.com", domain.MemberRoleMember)
	assert.ErrorIs(t, err, ErrNotFound)

	members, err := f.spaces.Members(ctx, biaScope)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	spaces, err := f.spaces.ListSpaces(ctx, bia.ID)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "Casa", spaces[0].Name)
}

func TestSpaceService_CreateSpaceValidation(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana@example.com")

	_, err := f.spaces.CreateSpace(context.Background(), ana.ID, "   ")
	assert.True(t, IsValidationError(err))
}
