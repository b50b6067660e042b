// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible
	// to the acting user.
	ErrNotFound = errors.New("not found")
	// ErrCursorConflict is returned when a sync batch loses the
	// compare-and-swap on an account's cursor to a concurrent sync.
	ErrCursorConflict = errors.New("cursor was advanced by a concurrent sync")
)

type AccountStorage interface {
	// StoreOrUpdateLinkedAccount upserts on the account's natural key
	// (user, institution, name, mask); an existing row only gets the new
	// access token.
	StoreOrUpdateLinkedAccount(ctx context.Context, acc domain.LinkedAccount) error
	ListLinkedAccounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error)
	// DeleteLinkedAccount removes an owned account together with all of
	// its transactions.
	DeleteLinkedAccount(ctx context.Context, userID, accountID int64) error
}

type TransactionStorage interface {
	CreateTransaction(ctx context.Context, txn domain.Transaction) (int64, error)
	// ApplySyncBatch inserts the added records and advances the account's
	// cursor from prevCursor to nextCursor in one database transaction.
	// Replayed external ids are ignored; a lost cursor compare-and-swap
	// returns ErrCursorConflict and inserts nothing.
	ApplySyncBatch(ctx context.Context, account domain.LinkedAccount, added []domain.AddedTransaction, nextCursor string) (int, error)
	ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error)
	ListUncategorized(ctx context.Context, userID int64) ([]domain.Transaction, error)
	// SetCategory assigns the category if the transaction belongs to the
	// user; it reports whether a row was updated.
	SetCategory(ctx context.Context, userID, transactionID, categoryID int64) (bool, error)
	ListExportRows(ctx context.Context, userID int64, from, to time.Time) ([]domain.ExportRow, error)
}

type CategoryStorage interface {
	// ListCategories returns system categories plus the user's own.
	ListCategories(ctx context.Context, userID int64) ([]domain.Category, error)
	CreateCategory(ctx context.Context, userID int64, name string) (int64, error)
	// DeleteCategory removes an owned custom category after nulling out
	// transactions and deleting budgets that reference it.
	DeleteCategory(ctx context.Context, userID, categoryID int64) error
	// CategoryVisible reports whether the category exists and is either
	// global or owned by the user.
	CategoryVisible(ctx context.Context, userID, categoryID int64) (bool, error)
}

type BudgetStorage interface {
	CreateBudget(ctx context.Context, b domain.Budget) (int64, error)
	UpdateBudget(ctx context.Context, userID, budgetID int64, maxAmount decimal.Decimal) error
	DeleteBudget(ctx context.Context, userID, budgetID int64) error
	ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error)
}

type ReportStorage interface {
	// SumCategorized totals the user's categorized spend between from and
	// to inclusive.
	SumCategorized(ctx context.Context, userID int64, from, to time.Time) (decimal.Decimal, error)
	SpendByCategory(ctx context.Context, userID int64, from, to time.Time) ([]domain.CategorySpend, error)
	ListBudgetStatuses(ctx context.Context, userID int64, from, to time.Time) ([]domain.BudgetStatus, error)
}
