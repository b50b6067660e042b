// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ManualExternalID marks transactions entered by hand rather than pulled
// from the aggregator.
const ManualExternalID = "N/A"

type LinkedAccount struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"-"`
	InstitutionName string `json:"institution_name"`
	AccountName     string `json:"account_name"`
	AccountMask     string `json:"account_mask"`
	AccessToken     string `json:"-"`
	// NextCursor is empty until the first successful sync.
	NextCursor string `json:"-"`
}

type Transaction struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"-"`
	LinkedAccountID int64           `json:"linked_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Date            time.Time       `json:"date"`
	MerchantName    string          `json:"merchant_name"`
	Pending         bool            `json:"pending"`
	LogoURL         *string         `json:"logo_url,omitempty"`
	CategoryID      *int64          `json:"category_id,omitempty"`
	// ExternalID is the aggregator's transaction id, ManualExternalID for
	// manually entered rows.
	ExternalID string `json:"-"`

	// Joined display fields, populated by list queries only.
	CategoryName    string `json:"category_name,omitempty"`
	InstitutionName string `json:"institution_name,omitempty"`
	AccountName     string `json:"account_name,omitempty"`
	AccountMask     string `json:"account_mask,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// UserID is nil for system categories shared by everyone.
	UserID *int64 `json:"-"`
}

type Budget struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"-"`
	CategoryID int64           `json:"category_id"`
	MaxAmount  decimal.Decimal `json:"max_amount"`
}

// BudgetStatus is a budget plus its derived month-to-date numbers.
type BudgetStatus struct {
	Budget
	CategoryName    string          `json:"category_name"`
	SpentAmount     decimal.Decimal `json:"spent_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PercentageUsed  decimal.Decimal `json:"percentage_used"`
}

// CategoryUpdate is one item of a manual categorization batch.
type CategoryUpdate struct {
	TransactionID int64 `json:"id" validate:"required"`
	CategoryID    int64 `json:"category_id" validate:"required"`
}

// AddedTransaction is one "added" record of an incremental sync response,
// already normalized from the aggregator's wire format.
type AddedTransaction struct {
	ExternalID   string
	Amount       decimal.Decimal
	Currency     string
	Date         time.Time
	MerchantName string
	Pending      bool
	LogoURL      *string
}

// CategorySpend is one row of the per-category aggregation.
type CategorySpend struct {
	CategoryName string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
}

// ExportRow is one line of the spreadsheet export.
type ExportRow struct {
	Date            time.Time
	Amount          decimal.Decimal
	MerchantName    string
	InstitutionName string
	AccountName     string
	AccountMask     string
	CategoryName    string
}
