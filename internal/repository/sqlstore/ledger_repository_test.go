package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/domain"
	"financas/internal/repository"
)

func TestCategoryRepository_ScopedToSpace(t *testing.T) {
	db := newTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	ana := seedUser(t, db, "ana@example.com")
	one := seedSpace(t, db, "one", ana.ID)
	two := seedSpace(t, db, "two", ana.ID)

	for _, c := range []domain.Category{
		{ID: uuid.NewString(), SpaceID: one.ID, Name: "Mercado", Kind: domain.EntryKindExpense},
		{ID: uuid.NewString(), SpaceID: one.ID, Name: "Aluguel", Kind: domain.EntryKindExpense},
		{ID: uuid.NewString(), SpaceID: two.ID, Name: "Salário", Kind: domain.EntryKindIncome},
	} {
		c := c
		require.NoError(t, repo.Create(ctx, &c))
	}

	got, err := repo.ListBySpace(ctx, one.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Aluguel", got[0].Name)
	assert.Equal(t, "Mercado", got[1].Name)

	others, err := repo.ListBySpace(ctx, two.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)

	_, err = repo.Get(ctx, one.ID, others[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.Delete(ctx, one.ID, others[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, two.ID, others[0].ID))

	empty, err := repo.ListBySpace(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTagRepository_CountAndDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	ana := seedUser(t, db, "ana@example.com")
	one := seedSpace(t, db, "one", ana.ID)
	two := seedSpace(t, db, "two", ana.ID)

	fixo := &domain.Tag{ID: uuid.NewString(), SpaceID: one.ID, Name: "fixo"}
	viagem := &domain.Tag{ID: uuid.NewString(), SpaceID: two.ID, Name: "viagem"}
	require.NoError(t, repo.Create(ctx, fixo))
	require.NoError(t, repo.Create(ctx, viagem))

	err := repo.Create(ctx, &domain.Tag{ID: uuid.NewString(), SpaceID: one.ID, Name: "fixo"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	n, err := repo.CountInSpace(ctx, one.ID, []string{fixo.ID, viagem.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CountInSpace(ctx, one.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReserveRepository_RoundTripsGoal(t *testing.T) {
	db := newTestDB(t)
	repo := NewReserveRepository(db)
	ctx := context.Background()

	ana := seedUser(t, db, "ana@example.com")
	space := seedSpace(t, db, "casa", ana.ID)

	reserve := &domain.Reserve{
		ID:      uuid.NewString(),
		SpaceID: space.ID,
		Name:    "Emergência",
		Goal:    decimal.RequireFromString("15000.50"),
	}
	require.NoError(t, repo.Create(ctx, reserve))

	got, err := repo.Get(ctx, space.ID, reserve.ID)
	require.NoError(t, err)
	assert.True(t, got.Goal.Equal(reserve.Goal), "goal %s", got.Goal)
}

func TestTransactionRepository_ListFiltersAndTags(t *testing.T) {
	db := newTestDB(t)
	txRepo := NewTransactionRepository(db)
	ctx := context.Background()

	ana := seedUser(t, db, "ana@example.com")
	space := seedSpace(t, db, "casa", ana.ID)
	other := seedSpace(t, db, "outro", ana.ID)

	category := &domain.Category{ID: uuid.NewString(), SpaceID: space.ID, Name: "Mercado", Kind: domain.EntryKindExpense}
	require.NoError(t, NewCategoryRepository(db).Create(ctx, category))
	tag := &domain.Tag{ID: uuid.NewString(), SpaceID: space.ID, Name: "fixo"}
	require.NoError(t, NewTagRepository(db).Create(ctx, tag))

	jan := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)

	first := &domain.Transaction{
		ID:          uuid.NewString(),
		SpaceID:     space.ID,
		Description: "feira",
		Amount:      decimal.RequireFromString("42.10"),
		Kind:        domain.EntryKindExpense,
		OccurredAt:  jan,
		CategoryID:  &category.ID,
		TagIDs:      []string{tag.ID},
	}
	second := &domain.Transaction{
		ID:          uuid.NewString(),
		SpaceID:     space.ID,
		Description: "salário",
		Amount:      decimal.RequireFromString("5000"),
		Kind:        domain.EntryKindIncome,
		OccurredAt:  feb,
	}
	foreign := &domain.Transaction{
		ID:          uuid.NewString(),
		SpaceID:     other.ID,
		Description: "outro espaço",
		Amount:      decimal.RequireFromString("1"),
		Kind:        domain.EntryKindExpense,
		OccurredAt:  feb,
	}
	for _, tx := range []*domain.Transaction{first, second, foreign} {
		require.NoError(t, txRepo.Create(ctx, tx))
	}

	all, err := txRepo.ListBySpace(ctx, space.ID, domain.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, []string{tag.ID}, all[1].TagIDs)
	assert.Empty(t, all[0].TagIDs)
	assert.True(t, all[1].Amount.Equal(first.Amount))
	require.NotNil(t, all[1].CategoryID)
	assert.Equal(t, category.ID, *all[1].CategoryID)

	to := feb
	byDate, err := txRepo.ListBySpace(ctx, space.ID, domain.TransactionFilter{To: &to})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, first.ID, byDate[0].ID)

	byTag, err := txRepo.ListBySpace(ctx, space.ID, domain.TransactionFilter{TagID: tag.ID})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, first.ID, byTag[0].ID)

	limited, err := txRepo.ListBySpace(ctx, space.ID, domain.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = txRepo.Get(ctx, space.ID, foreign.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// deleting the category detaches it from the transaction
	require.NoError(t, NewCategoryRepository(db).Delete(ctx, space.ID, category.ID))
	got, err := txRepo.Get(ctx, space.ID, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestTransactionRepository_ListLoadsTagsAcrossBatches(t *testing.T) {
	db := newTestDB(t)
	txRepo := NewTransactionRepository(db)
	ctx := context.Background()

	ana := seedUser(t, db, "ana@example.com")
	space := seedSpace(t, db, "casa", ana.ID)
	tag := &domain.Tag{ID: uuid.NewString(), SpaceID: space.ID, Name: "fixo"}
	require.NoError(t, NewTagRepository(db).Create(ctx, tag))

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	total := tagBatchSize + 1
	for i := 0; i < total; i++ {
		require.NoError(t, txRepo.Create(ctx, &domain.Transaction{
			ID:         uuid.NewString(),
			SpaceID:    space.ID,
			Amount:     decimal.NewFromInt(int64(i + 1)),
			Kind:       domain.EntryKindExpense,
			OccurredAt: day,
			TagIDs:     []string{tag.ID},
		}))
	}

	all, err := txRepo.ListBySpace(ctx, space.ID, domain.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, total)
	for _, tx := range all {
		assert.Equal(t, []string{tag.ID}, tx.TagIDs, tx.ID)
	}
}

func TestTransactionRepository_Update(t *testing.T) {
	db := newTestDB(t)
	txRepo := NewTransactionRepository(db)
	ctx := context.Background()

	ana := seedUser(t, db, "ana@example.com")
	space := seedSpace(t, db, "casa", ana.ID)
	other := seedSpace(t, db, "outro", ana.ID)

	tx := &domain.Transaction{
		ID:         uuid.NewString(),
		SpaceID:    space.ID,
		Amount:     decimal.RequireFromString("10"),
		Kind:       domain.EntryKindExpense,
		OccurredAt: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, txRepo.Create(ctx, tx))

	tx.Amount = decimal.RequireFromString("12.5")
	tx.Description = "corrigido"
	require.NoError(t, txRepo.Update(ctx, tx))

	got, err := txRepo.Get(ctx, space.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "corrigido", got.Description)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))

	moved := *tx
	moved.SpaceID = other.ID
	assert.ErrorIs(t, txRepo.Update(ctx, &moved), repository.ErrNotFound)
}
