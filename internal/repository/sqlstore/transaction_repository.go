package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"financas/internal/domain"
	"financas/internal/repository"
)

const selectTransactions = `
SELECT t.id, t.space_id, t.description, t.amount, t.kind, t.occurred_at, t.category_id, t.reserve_id, t.created_at, t.updated_at
FROM transactions t`

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	ts := now()
	t.CreatedAt = ts
	t.UpdatedAt = ts

	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.db.rebind(`
INSERT INTO transactions (id, space_id, description, amount, kind, occurred_at, category_id, reserve_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			t.ID,
			t.SpaceID,
			t.Description,
			t.Amount.String(),
			string(t.Kind),
			t.OccurredAt.UTC(),
			nullString(t.CategoryID),
			nullString(t.ReserveID),
			t.CreatedAt,
			t.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return r.replaceTags(ctx, tx, t.ID, t.TagIDs)
	})
}

func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	t.UpdatedAt = now()

	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.rebind(`
UPDATE transactions
SET description=?, amount=?, kind=?, occurred_at=?, category_id=?, reserve_id=?, updated_at=?
WHERE id=? AND space_id=?`),
			t.Description,
			t.Amount.String(),
			string(t.Kind),
			t.OccurredAt.UTC(),
			nullString(t.CategoryID),
			nullString(t.ReserveID),
			t.UpdatedAt,
			t.ID,
			t.SpaceID,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("transaction update rows affected: %w", err)
		}
		if aff == 0 {
			return repository.ErrNotFound
		}
		return r.replaceTags(ctx, tx, t.ID, t.TagIDs)
	})
}

func (r *TransactionRepository) replaceTags(ctx context.Context, tx *sql.Tx, transactionID string, tagIDs []string) error {
	if _, err := tx.ExecContext(ctx, r.db.rebind(`DELETE FROM transaction_tags WHERE transaction_id=?`), transactionID); err != nil {
		return fmt.Errorf("delete transaction tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, r.db.rebind(`
INSERT INTO transaction_tags (transaction_id, tag_id)
VALUES (?, ?)`),
			transactionID,
			tagID,
		); err != nil {
			return fmt.Errorf("insert transaction tag: %w", err)
		}
	}
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, spaceID, id string) (*domain.Transaction, error) {
	row := r.db.queryRow(ctx, selectTransactions+`
WHERE t.id = ? AND t.space_id = ?`,
		id,
		spaceID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	txs := []domain.Transaction{*t}
	if err := r.loadTags(ctx, txs); err != nil {
		return nil, err
	}
	return &txs[0], nil
}

func (r *TransactionRepository) ListBySpace(ctx context.Context, spaceID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := selectTransactions + `
WHERE t.space_id = ?`
	args := []any{spaceID}

	if filter.From != nil {
		query += ` AND t.occurred_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		query += ` AND t.occurred_at < ?`
		args = append(args, filter.To.UTC())
	}
	if filter.CategoryID != "" {
		query += ` AND t.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.TagID != "" {
		query += ` AND EXISTS (SELECT 1 FROM transaction_tags tt WHERE tt.transaction_id = t.id AND tt.tag_id = ?)`
		args = append(args, filter.TagID)
	}
	query += `
ORDER BY t.occurred_at DESC, t.created_at DESC, t.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	if err := r.loadTags(ctx, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, spaceID, id string) error {
	return deleteScoped(ctx, r.db, "transactions", spaceID, id)
}

// tagBatchSize bounds the ids bound into one IN clause; sqlite and postgres
// both cap the number of parameters per statement.
const tagBatchSize = 500

// loadTags fills TagIDs for every transaction in txs, querying the ids in
// batches of tagBatchSize.
func (r *TransactionRepository) loadTags(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	index := make(map[string]int, len(txs))
	for i := range txs {
		txs[i].TagIDs = []string{}
		index[txs[i].ID] = i
	}

	for start := 0; start < len(txs); start += tagBatchSize {
		end := min(start+tagBatchSize, len(txs))
		if err := r.loadTagBatch(ctx, txs, txs[start:end], index); err != nil {
			return err
		}
	}
	return nil
}

func (r *TransactionRepository) loadTagBatch(ctx context.Context, txs, batch []domain.Transaction, index map[string]int) error {
	args := make([]any, len(batch))
	for i := range batch {
		args[i] = batch[i].ID
	}

	rows, err := r.db.query(ctx, `
SELECT transaction_id, tag_id
FROM transaction_tags
WHERE transaction_id IN (`+placeholders(len(batch))+`)
ORDER BY tag_id ASC`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("query transaction tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var transactionID, tagID string
		if err := rows.Scan(&transactionID, &tagID); err != nil {
			return fmt.Errorf("scan transaction tag: %w", err)
		}
		if i, ok := index[transactionID]; ok {
			txs[i].TagIDs = append(txs[i].TagIDs, tagID)
		}
	}
	return rows.Err()
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t          domain.Transaction
		kind       string
		categoryID sql.NullString
		reserveID  sql.NullString
	)
	if err := row.Scan(
		&t.ID,
		&t.SpaceID,
		&t.Description,
		&t.Amount,
		&kind,
		&t.OccurredAt,
		&categoryID,
		&reserveID,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Kind = domain.EntryKind(kind)
	t.CategoryID = stringPtr(categoryID)
	t.ReserveID = stringPtr(reserveID)
	return &t, nil
}
