package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/domain"
)

// -------- test fakes --------

type fakeStore struct {
	total    decimal.Decimal
	byCat    []domain.CategorySpend
	statuses []domain.BudgetStatus
}

func (f *fakeStore) SumCategorized(ctx context.Context, userID int64, from, to time.Time) (decimal.Decimal, error) {
	return f.total, nil
}

func (f *fakeStore) SpendByCategory(ctx context.Context, userID int64, from, to time.Time) ([]domain.CategorySpend, error) {
	return f.byCat, nil
}

func (f *fakeStore) ListBudgetStatuses(ctx context.Context, userID int64, from, to time.Time) ([]domain.BudgetStatus, error) {
	return f.statuses, nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// -------- tests --------

func TestBudgetsDerivesRemainingAndPercentage(t *testing.T) {
	store := &fakeStore{
		total: dec("150.00"),
		statuses: []domain.BudgetStatus{
			{
				Budget:       domain.Budget{ID: 1, CategoryID: 10, MaxAmount: dec("200")},
				CategoryName: "Food & Dining",
				SpentAmount:  dec("50"),
			},
			{
				Budget:       domain.Budget{ID: 2, CategoryID: 11, MaxAmount: dec("100")},
				CategoryName: "Shopping",
				SpentAmount:  dec("100"),
			},
		},
	}

	report, err := NewService(store).Budgets(context.Background(), 7, time.Now(), time.Now())
	require.NoError(t, err)

	require.Len(t, report.Budgets, 2)
	assert.True(t, report.Budgets[0].RemainingAmount.Equal(dec("150")))
	assert.True(t, report.Budgets[0].PercentageUsed.Equal(dec("25")))
	assert.True(t, report.Budgets[1].RemainingAmount.Equal(dec("0")))
	assert.True(t, report.Budgets[1].PercentageUsed.Equal(dec("100")))

	assert.True(t, report.TotalBudgeted.Equal(dec("300")))
	assert.True(t, report.TotalSpent.Equal(dec("150")))
	assert.True(t, report.TotalRemaining.Equal(dec("150")))
}

func TestBudgetsZeroMaxAmountDoesNotDivide(t *testing.T) {
	store := &fakeStore{
		statuses: []domain.BudgetStatus{
			{
				Budget:       domain.Budget{ID: 1, CategoryID: 10, MaxAmount: decimal.Zero},
				CategoryName: "Other",
				SpentAmount:  dec("42"),
			},
		},
	}

	report, err := NewService(store).Budgets(context.Background(), 7, time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, report.Budgets, 1)
	assert.True(t, report.Budgets[0].PercentageUsed.IsZero(), "zero max must yield zero, not a division error")
	assert.True(t, report.Budgets[0].RemainingAmount.Equal(dec("-42")))
}

func TestOverviewReturnsWindowBreakdown(t *testing.T) {
	store := &fakeStore{
		total: dec("99.90"),
		byCat: []domain.CategorySpend{
			{CategoryName: "Food & Dining", Amount: dec("60")},
			{CategoryName: "Other", Amount: dec("39.90")},
		},
	}

	from, to, err := MonthRange("2026-08", time.Now())
	require.NoError(t, err)

	summary, err := NewService(store).Overview(context.Background(), 7, from, to)
	require.NoError(t, err)
	assert.True(t, summary.MonthCost.Equal(dec("99.90")))
	require.Len(t, summary.ByCategory, 2)
	assert.Equal(t, "Food & Dining", summary.ByCategory[0].CategoryName)
}

func TestMonthRange(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	from, to, err := MonthRange("2026-02", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), to)

	// Empty month defaults to the current one.
	from, to, err = MonthRange("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), to)

	_, _, err = MonthRange("08-2026", now)
	require.Error(t, err)
}

func TestStartOfWeekIsMonday(t *testing.T) {
	// 2026-08-28 is a Friday.
	friday := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), startOfWeek(friday))

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))

	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, startOfWeek(monday))
}
