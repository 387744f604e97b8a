package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryKindIncome  EntryKind = "income"
	EntryKindExpense EntryKind = "expense"
)

func (k EntryKind) Valid() bool {
	return k == EntryKindIncome || k == EntryKindExpense
}

type Category struct {
	ID        string
	SpaceID   string
	Name      string
	Kind      EntryKind
	Color     string
	CreatedAt time.Time
}

type Tag struct {
	ID        string
	SpaceID   string
	Name      string
	CreatedAt time.Time
}

// Reserve is a savings pot inside a space that transactions can be allocated to.
type Reserve struct {
	ID          string
	SpaceID     string
	Name        string
	Description string
	Goal        decimal.Decimal
	CreatedAt   time.Time
}

// Transaction is a single income or expense entry.
type Transaction struct {
	ID          string
	SpaceID     string
	Description string
	Amount      decimal.Decimal
	Kind        EntryKind
	OccurredAt  time.Time
	CategoryID  *string
	ReserveID   *string
	TagIDs      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionFilter narrows a transaction listing. Zero values mean "no filter";
// From is inclusive and To is exclusive.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID string
	TagID      string
	Limit      int
}
