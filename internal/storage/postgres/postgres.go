// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"pennywise/internal/domain"
	"pennywise/internal/storage"
)

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// === AccountStorage ===

func (s *Storage) StoreOrUpdateLinkedAccount(ctx context.Context, acc domain.LinkedAccount) error {
	// Re-linking the same physical account must refresh the credential in
	// place, never duplicate the row.
	_, err := s.db.Exec(ctx, `
		INSERT INTO linked_accounts (user_id, institution_name, account_name, account_mask, access_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, institution_name, account_name, account_mask)
		DO UPDATE SET access_token = EXCLUDED.access_token, updated_at = now()
	`, acc.UserID, acc.InstitutionName, acc.AccountName, acc.AccountMask, acc.AccessToken)
	if err != nil {
		return fmt.Errorf("store linked account: %w", err)
	}
	return nil
}

func (s *Storage) ListLinkedAccounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, institution_name, account_name, account_mask, access_token, COALESCE(next_cursor, '')
		FROM linked_accounts
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list linked accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.LinkedAccount
	for rows.Next() {
		var acc domain.LinkedAccount
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.InstitutionName, &acc.AccountName,
			&acc.AccountMask, &acc.AccessToken, &acc.NextCursor); err != nil {
			return nil, fmt.Errorf("scan linked account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (s *Storage) DeleteLinkedAccount(ctx context.Context, userID, accountID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Transactions of the account go with it.
	if _, err := tx.Exec(ctx, `
		DELETE FROM transactions WHERE linked_account_id = $1 AND user_id = $2
	`, accountID, userID); err != nil {
		return fmt.Errorf("delete account transactions: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM linked_accounts WHERE id = $1 AND user_id = $2
	`, accountID, userID)
	if err != nil {
		return fmt.Errorf("delete linked account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	slog.Debug("linked account deleted", "user_id", userID, "account_id", accountID)
	return nil
}
