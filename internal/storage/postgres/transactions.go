// internal/storage/postgres/transactions.go
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pennywise/internal/domain"
	"pennywise/internal/storage"
)

// === TransactionStorage ===

func (s *Storage) CreateTransaction(ctx context.Context, txn domain.Transaction) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, linked_account_id, amount, currency, date,
			merchant_name, pending, logo_url, category_id, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, txn.UserID, txn.LinkedAccountID, txn.Amount, txn.Currency, txn.Date,
		txn.MerchantName, txn.Pending, txn.LogoURL, txn.CategoryID, txn.ExternalID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	return id, nil
}

func (s *Storage) ApplySyncBatch(ctx context.Context, account domain.LinkedAccount, added []domain.AddedTransaction, nextCursor string) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Advance the cursor first, compare-and-swap against the value this
	// batch was requested with. Losing the swap means another sync got
	// there first; the whole batch is abandoned.
	tag, err := tx.Exec(ctx, `
		UPDATE linked_accounts
		SET next_cursor = $1, updated_at = now()
		WHERE id = $2 AND next_cursor IS NOT DISTINCT FROM NULLIF($3, '')
	`, nextCursor, account.ID, account.NextCursor)
	if err != nil {
		return 0, fmt.Errorf("advance cursor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, storage.ErrCursorConflict
	}

	inserted := 0
	for _, a := range added {
		// The aggregator owns added/already-synced bookkeeping through
		// the cursor; the conflict clause only shields against replays.
		tag, err := tx.Exec(ctx, `
			INSERT INTO transactions (user_id, linked_account_id, amount, currency, date,
				merchant_name, pending, logo_url, transaction_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (linked_account_id, transaction_id) WHERE transaction_id <> 'N/A'
			DO NOTHING
		`, account.UserID, account.ID, a.Amount, a.Currency, a.Date,
			a.MerchantName, a.Pending, a.LogoURL, a.ExternalID)
		if err != nil {
			return 0, fmt.Errorf("insert synced transaction %q: %w", a.ExternalID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	slog.Debug("sync batch applied", "account_id", account.ID, "inserted", inserted, "next_cursor", nextCursor)
	return inserted, nil
}

func (s *Storage) ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.user_id, t.linked_account_id, t.amount, t.currency, t.date,
			t.merchant_name, t.pending, t.logo_url, t.category_id, t.transaction_id,
			COALESCE(c.name, ''), la.institution_name, la.account_name, la.account_mask
		FROM transactions t
		JOIN linked_accounts la ON la.id = t.linked_account_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY t.date DESC, t.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *Storage) ListUncategorized(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.user_id, t.linked_account_id, t.amount, t.currency, t.date,
			t.merchant_name, t.pending, t.logo_url, t.category_id, t.transaction_id,
			'', la.institution_name, la.account_name, la.account_mask
		FROM transactions t
		JOIN linked_accounts la ON la.id = t.linked_account_id
		WHERE t.user_id = $1 AND t.category_id IS NULL
		ORDER BY t.date DESC, t.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list uncategorized transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *Storage) SetCategory(ctx context.Context, userID, transactionID, categoryID int64) (bool, error) {
	// Ownership is part of the WHERE clause: a foreign transaction id
	// simply updates nothing.
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions SET category_id = $1 WHERE id = $2 AND user_id = $3
	`, categoryID, transactionID, userID)
	if err != nil {
		return false, fmt.Errorf("set category: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Storage) ListExportRows(ctx context.Context, userID int64, from, to time.Time) ([]domain.ExportRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.date, t.amount, t.merchant_name,
			la.institution_name, la.account_name, la.account_mask, c.name
		FROM transactions t
		JOIN linked_accounts la ON la.id = t.linked_account_id
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.category_id IS NOT NULL AND t.date BETWEEN $2 AND $3
		ORDER BY t.date, t.id
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list export rows: %w", err)
	}
	defer rows.Close()

	var out []domain.ExportRow
	for rows.Next() {
		var r domain.ExportRow
		if err := rows.Scan(&r.Date, &r.Amount, &r.MerchantName,
			&r.InstitutionName, &r.AccountName, &r.AccountMask, &r.CategoryName); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(rows pgxRows) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.LinkedAccountID, &t.Amount, &t.Currency,
			&t.Date, &t.MerchantName, &t.Pending, &t.LogoURL, &t.CategoryID, &t.ExternalID,
			&t.CategoryName, &t.InstitutionName, &t.AccountName, &t.AccountMask); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
