package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"financas/internal/domain"
	"financas/internal/repository"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 500
	maxDescriptionLength    = 200
)

// LedgerService resolves the financial records of a space. Every method
// authorizes the scope before touching the records it names.
type LedgerService interface {
	Categories(ctx context.Context, scope domain.Scope) ([]domain.Category, error)
	Tags(ctx context.Context, scope domain.Scope) ([]domain.Tag, error)
	Reserves(ctx context.Context, scope domain.Scope) ([]domain.Reserve, error)
	Overview(ctx context.Context, scope domain.Scope) (*Overview, error)
	Transactions(ctx context.Context, scope domain.Scope, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Transaction(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error)

	CreateCategory(ctx context.Context, scope domain.Scope, in CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, scope domain.Scope, id string) error
	CreateTag(ctx context.Context, scope domain.Scope, name string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, scope domain.Scope, id string) error
	CreateReserve(ctx context.Context, scope domain.Scope, in ReserveInput) (*domain.Reserve, error)
	DeleteReserve(ctx context.Context, scope domain.Scope, id string) error
	CreateTransaction(ctx context.Context, scope domain.Scope, in TransactionInput) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, scope domain.Scope, id string, in TransactionInput) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, scope domain.Scope, id string) error
}

// Overview bundles the lookup lists a client needs to render a space.
type Overview struct {
	Categories []domain.Category
	Tags       []domain.Tag
	Reserves   []domain.Reserve
}

type CategoryInput struct {
	Name  string
	Kind  domain.EntryKind
	Color string
}

type ReserveInput struct {
	Name        string
	Description string
	Goal        decimal.Decimal
}

type TransactionInput struct {
	Description string
	Amount      decimal.Decimal
	Kind        domain.EntryKind
	OccurredAt  time.Time
	CategoryID  *string
	ReserveID   *string
	TagIDs      []string
}

// LedgerRepositories groups the stores the ledger service reads from.
type LedgerRepositories struct {
	Spaces       repository.SpaceRepository
	Categories   repository.CategoryRepository
	Tags         repository.TagRepository
	Reserves     repository.ReserveRepository
	Transactions repository.TransactionRepository
}

type ledgerService struct {
	repos LedgerRepositories
}

func NewLedgerService(repos LedgerRepositories) LedgerService {
	return &ledgerService{repos: repos}
}

func (s *ledgerService) authorize(ctx context.Context, scope domain.Scope) error {
	_, err := authorize(ctx, s.repos.Spaces, scope)
	return err
}

func (s *ledgerService) Categories(ctx context.Context, scope domain.Scope) ([]domain.Category, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	categories, err := s.repos.Categories.ListBySpace(ctx, scope.SpaceID)
	if err != nil {
		return nil, translate("list categories", err)
	}
	return categories, nil
}

func (s *ledgerService) Tags(ctx context.Context, scope domain.Scope) ([]domain.Tag, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	tags, err := s.repos.Tags.ListBySpace(ctx, scope.SpaceID)
	if err != nil {
		return nil, translate("list tags", err)
	}
	return tags, nil
}

func (s *ledgerService) Reserves(ctx context.Context, scope domain.Scope) ([]domain.Reserve, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	reserves, err := s.repos.Reserves.ListBySpace(ctx, scope.SpaceID)
	if err != nil {
		return nil, translate("list reserves", err)
	}
	return reserves, nil
}

func (s *ledgerService) Overview(ctx context.Context, scope domain.Scope) (*Overview, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	return loadOverview(ctx, s.repos, scope.SpaceID)
}

// loadOverview fetches the three lookup lists of a space concurrently.
// Callers must have authorized access to spaceID.
func loadOverview(ctx context.Context, repos LedgerRepositories, spaceID string) (*Overview, error) {
	var overview Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := repos.Categories.ListBySpace(gctx, spaceID)
		if err != nil {
			return translate("list categories", err)
		}
		overview.Categories = categories
		return nil
	})
	g.Go(func() error {
		tags, err := repos.Tags.ListBySpace(gctx, spaceID)
		if err != nil {
			return translate("list tags", err)
		}
		overview.Tags = tags
		return nil
	})
	g.Go(func() error {
		reserves, err := repos.Reserves.ListBySpace(gctx, spaceID)
		if err != nil {
			return translate("list reserves", err)
		}
		overview.Reserves = reserves
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

func (s *ledgerService) Transactions(ctx context.Context, scope domain.Scope, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, NewValidationError("Período inválido")
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultTransactionLimit
	case filter.Limit > maxTransactionLimit:
		filter.Limit = maxTransactionLimit
	}

	txs, err := s.repos.Transactions.ListBySpace(ctx, scope.SpaceID, filter)
	if err != nil {
		return nil, translate("list transactions", err)
	}
	return txs, nil
}

func (s *ledgerService) Transaction(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	tx, err := s.repos.Transactions.Get(ctx, scope.SpaceID, id)
	if err != nil {
		return nil, translate("get transaction", err)
	}
	return tx, nil
}

func (s *ledgerService) CreateCategory(ctx context.Context, scope domain.Scope, in CategoryInput) (*domain.Category, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if !in.Kind.Valid() {
		return nil, NewValidationError("Tipo deve ser 'income' ou 'expense'")
	}

	category := &domain.Category{
		ID:      uuid.NewString(),
		SpaceID: scope.SpaceID,
		Name:    in.Name,
		Kind:    in.Kind,
		Color:   strings.TrimSpace(in.Color),
	}
	if err := s.repos.Categories.Create(ctx, category); err != nil {
		return nil, translate("create category", err)
	}
	return category, nil
}

func (s *ledgerService) DeleteCategory(ctx context.Context, scope domain.Scope, id string) error {
	if err := s.authorize(ctx, scope); err != nil {
		return err
	}
	return translate("delete category", s.repos.Categories.Delete(ctx, scope.SpaceID, id))
}

func (s *ledgerService) CreateTag(ctx context.Context, scope domain.Scope, name string) (*domain.Tag, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	tag := &domain.Tag{
		ID:      uuid.NewString(),
		SpaceID: scope.SpaceID,
		Name:    name,
	}
	if err := s.repos.Tags.Create(ctx, tag); err != nil {
		return nil, translate("create tag", err)
	}
	return tag, nil
}

func (s *ledgerService) DeleteTag(ctx context.Context, scope domain.Scope, id string) error {
	if err := s.authorize(ctx, scope); err != nil {
		return err
	}
	return translate("delete tag", s.repos.Tags.Delete(ctx, scope.SpaceID, id))
}

func (s *ledgerService) CreateReserve(ctx context.Context, scope domain.Scope, in ReserveInput) (*domain.Reserve, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if in.Goal.IsNegative() {
		return nil, NewValidationError("Meta não pode ser negativa")
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	reserve := &domain.Reserve{
		ID:          uuid.NewString(),
		SpaceID:     scope.SpaceID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Goal:        in.Goal,
	}
	if err := s.repos.Reserves.Create(ctx, reserve); err != nil {
		return nil, translate("create reserve", err)
	}
	return reserve, nil
}

func (s *ledgerService) DeleteReserve(ctx context.Context, scope domain.Scope, id string) error {
	if err := s.authorize(ctx, scope); err != nil {
		return err
	}
	return translate("delete reserve", s.repos.Reserves.Delete(ctx, scope.SpaceID, id))
}

func (s *ledgerService) CreateTransaction(ctx context.Context, scope domain.Scope, in TransactionInput) (*domain.Transaction, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	tx := &domain.Transaction{
		ID:      uuid.NewString(),
		SpaceID: scope.SpaceID,
	}
	if err := s.applyInput(ctx, tx, in); err != nil {
		return nil, err
	}
	if err := s.repos.Transactions.Create(ctx, tx); err != nil {
		return nil, translate("create transaction", err)
	}
	return tx, nil
}

func (s *ledgerService) UpdateTransaction(ctx context.Context, scope domain.Scope, id string, in TransactionInput) (*domain.Transaction, error) {
	if err := s.authorize(ctx, scope); err != nil {
		return nil, err
	}
	tx, err := s.repos.Transactions.Get(ctx, scope.SpaceID, id)
	if err != nil {
		return nil, translate("get transaction", err)
	}
	if err := s.applyInput(ctx, tx, in); err != nil {
		return nil, err
	}
	if err := s.repos.Transactions.Update(ctx, tx); err != nil {
		return nil, translate("update transaction", err)
	}
	return tx, nil
}

func (s *ledgerService) DeleteTransaction(ctx context.Context, scope domain.Scope, id string) error {
	if err := s.authorize(ctx, scope); err != nil {
		return err
	}
	return translate("delete transaction", s.repos.Transactions.Delete(ctx, scope.SpaceID, id))
}

// applyInput validates in and copies it onto tx. References to categories,
// reserves and tags must resolve inside tx's own space.
func (s *ledgerService) applyInput(ctx context.Context, tx *domain.Transaction, in TransactionInput) error {
	if !in.Amount.IsPositive() {
		return NewValidationError("Valor deve ser maior que zero")
	}
	if !in.Kind.Valid() {
		return NewValidationError("Tipo deve ser 'income' ou 'expense'")
	}
	if in.OccurredAt.IsZero() {
		return NewValidationError("Data é obrigatória")
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}

	categoryID := trimmedRef(in.CategoryID)
	if categoryID != nil {
		if _, err := s.repos.Categories.Get(ctx, tx.SpaceID, *categoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewValidationError("Categoria não pertence ao espaço")
			}
			return translate("get category", err)
		}
	}

	reserveID := trimmedRef(in.ReserveID)
	if reserveID != nil {
		if _, err := s.repos.Reserves.Get(ctx, tx.SpaceID, *reserveID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewValidationError("Reserva não pertence ao espaço")
			}
			return translate("get reserve", err)
		}
	}

	tagIDs := uniqueIDs(in.TagIDs)
	if len(tagIDs) > 0 {
		n, err := s.repos.Tags.CountInSpace(ctx, tx.SpaceID, tagIDs)
		if err != nil {
			return translate("count tags", err)
		}
		if n != len(tagIDs) {
			return NewValidationError("Etiqueta não pertence ao espaço")
		}
	}

	tx.Description = strings.TrimSpace(in.Description)
	tx.Amount = in.Amount
	tx.Kind = in.Kind
	tx.OccurredAt = in.OccurredAt.UTC()
	tx.CategoryID = categoryID
	tx.ReserveID = reserveID
	tx.TagIDs = tagIDs
	return nil
}

func validateDescription(description string) error {
	if len([]rune(strings.TrimSpace(description))) > maxDescriptionLength {
		return NewValidationError("Descrição deve ter no máximo 200 caracteres")
	}
	return nil
}

func trimmedRef(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
