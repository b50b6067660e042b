// internal/report/report.go
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/domain"
)

// Store is the read-side storage the report service aggregates over.
type Store interface {
	SumCategorized(ctx context.Context, userID int64, from, to time.Time) (decimal.Decimal, error)
	SpendByCategory(ctx context.Context, userID int64, from, to time.Time) ([]domain.CategorySpend, error)
	ListBudgetStatuses(ctx context.Context, userID int64, from, to time.Time) ([]domain.BudgetStatus, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Summary is the dashboard's headline numbers for one month window.
type Summary struct {
	TodayCost  decimal.Decimal        `json:"today_cost"`
	WeekCost   decimal.Decimal        `json:"week_cost"`
	MonthCost  decimal.Decimal        `json:"month_cost"`
	ByCategory []domain.CategorySpend `json:"by_category"`
}

// Overview sums categorized spend for the day, the current week and the
// given month window, plus the per-category breakdown of the window.
func (s *Service) Overview(ctx context.Context, userID int64, monthStart, monthEnd time.Time) (Summary, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := startOfWeek(today)

	var out Summary
	var err error
	if out.TodayCost, err = s.store.SumCategorized(ctx, userID, today, today); err != nil {
		return Summary{}, fmt.Errorf("today cost: %w", err)
	}
	if out.WeekCost, err = s.store.SumCategorized(ctx, userID, weekStart, weekStart.AddDate(0, 0, 6)); err != nil {
		return Summary{}, fmt.Errorf("week cost: %w", err)
	}
	if out.MonthCost, err = s.store.SumCategorized(ctx, userID, monthStart, monthEnd); err != nil {
		return Summary{}, fmt.Errorf("month cost: %w", err)
	}
	if out.ByCategory, err = s.store.SpendByCategory(ctx, userID, monthStart, monthEnd); err != nil {
		return Summary{}, fmt.Errorf("spend by category: %w", err)
	}
	return out, nil
}

// BudgetReport is every budget's month-to-date status plus totals.
type BudgetReport struct {
	Budgets        []domain.BudgetStatus `json:"budgets"`
	TotalBudgeted  decimal.Decimal       `json:"total_budgeted"`
	TotalSpent     decimal.Decimal       `json:"total_spent"`
	TotalRemaining decimal.Decimal       `json:"total_remaining"`
}

// Budgets derives spent/remaining/percentage for each budget over the given
// window. A zero maximum yields a zero percentage instead of a division
// error.
func (s *Service) Budgets(ctx context.Context, userID int64, from, to time.Time) (BudgetReport, error) {
	statuses, err := s.store.ListBudgetStatuses(ctx, userID, from, to)
	if err != nil {
		return BudgetReport{}, fmt.Errorf("list budget statuses: %w", err)
	}

	totalSpent, err := s.store.SumCategorized(ctx, userID, from, to)
	if err != nil {
		return BudgetReport{}, fmt.Errorf("total spent: %w", err)
	}

	report := BudgetReport{Budgets: statuses, TotalSpent: totalSpent}
	hundred := decimal.NewFromInt(100)
	for i := range report.Budgets {
		b := &report.Budgets[i]
		b.RemainingAmount = b.MaxAmount.Sub(b.SpentAmount)
		if b.MaxAmount.IsZero() {
			b.PercentageUsed = decimal.Zero
		} else {
			b.PercentageUsed = b.SpentAmount.Div(b.MaxAmount).Mul(hundred).Round(2)
		}
		report.TotalBudgeted = report.TotalBudgeted.Add(b.MaxAmount)
	}
	report.TotalRemaining = report.TotalBudgeted.Sub(totalSpent)
	return report, nil
}

// MonthRange resolves "YYYY-MM" to the first and last day of that month.
// An empty value means the current month.
func MonthRange(month string, now time.Time) (time.Time, time.Time, error) {
	if month == "" {
		month = now.Format("2006-01")
	}
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 { // Sunday closes the week
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}
