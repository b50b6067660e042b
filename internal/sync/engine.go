// internal/sync/engine.go
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"pennywise/internal/domain"
	"pennywise/internal/plaid"
)

// Aggregator is the slice of the upstream client the engine needs.
type Aggregator interface {
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error)
}

// Store persists sync batches. ApplySyncBatch must be atomic per account:
// inserted rows and the cursor advance land together or not at all.
type Store interface {
	ListLinkedAccounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error)
	ApplySyncBatch(ctx context.Context, account domain.LinkedAccount, added []domain.AddedTransaction, nextCursor string) (int, error)
}

// Engine pulls incremental transaction activity for each of a user's linked
// accounts. One account is one unit of work: a failing account never blocks
// the others.
type Engine struct {
	agg   Aggregator
	store Store
}

func NewEngine(agg Aggregator, store Store) *Engine {
	return &Engine{agg: agg, store: store}
}

// Result reports what a SyncAll pass did. Accounts whose credential was
// rejected upstream are listed so the caller can prompt re-authentication.
type Result struct {
	Added            int     `json:"added"`
	ReauthAccountIDs []int64 `json:"reauth_account_ids,omitempty"`
}

// SyncAll processes every linked account of the user sequentially. The
// returned error aggregates per-account failures other than the re-auth
// signal, which is reported through the Result instead.
func (e *Engine) SyncAll(ctx context.Context, userID int64) (Result, error) {
	accounts, err := e.store.ListLinkedAccounts(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("list linked accounts: %w", err)
	}

	var result Result
	var errs error
	for _, account := range accounts {
		added, err := e.syncAccount(ctx, account)
		switch {
		case errors.Is(err, plaid.ErrReauthRequired):
			slog.Warn("account needs re-authentication", "user_id", userID, "account_id", account.ID)
			result.ReauthAccountIDs = append(result.ReauthAccountIDs, account.ID)
		case err != nil:
			slog.Error("account sync failed", "error", err, "user_id", userID, "account_id", account.ID)
			errs = multierr.Append(errs, fmt.Errorf("account %d: %w", account.ID, err))
		default:
			result.Added += added
		}
	}
	return result, errs
}

// syncAccount performs one incremental pull for one account: the stored
// cursor goes upstream unchanged, and on success the added records plus the
// returned cursor are applied in a single database transaction.
func (e *Engine) syncAccount(ctx context.Context, account domain.LinkedAccount) (int, error) {
	resp, err := e.agg.SyncTransactions(ctx, account.AccessToken, account.NextCursor)
	if err != nil {
		return 0, err
	}

	inserted, err := e.store.ApplySyncBatch(ctx, account, resp.Added, resp.NextCursor)
	if err != nil {
		return 0, fmt.Errorf("apply sync batch: %w", err)
	}

	slog.Info("account synced", "account_id", account.ID, "added", inserted, "next_cursor", resp.NextCursor)
	return inserted, nil
}
