package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/domain"
	"pennywise/internal/plaid"
)

// -------- test fakes --------

type syncCall struct {
	accessToken string
	cursor      string
}

type fakeAggregator struct {
	calls     []syncCall
	responses map[string]*plaid.SyncResponse
	errs      map[string]error
}

func (f *fakeAggregator) SyncTransactions(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
	f.calls = append(f.calls, syncCall{accessToken: accessToken, cursor: cursor})
	if err, ok := f.errs[accessToken]; ok {
		return nil, err
	}
	return f.responses[accessToken], nil
}

type appliedBatch struct {
	account    domain.LinkedAccount
	added      []domain.AddedTransaction
	nextCursor string
}

type fakeStore struct {
	accounts []domain.LinkedAccount
	listErr  error

	applied  []appliedBatch
	applyErr map[int64]error
}

func (f *fakeStore) ListLinkedAccounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error) {
	return f.accounts, f.listErr
}

func (f *fakeStore) ApplySyncBatch(ctx context.Context, account domain.LinkedAccount, added []domain.AddedTransaction, nextCursor string) (int, error) {
	if err, ok := f.applyErr[account.ID]; ok {
		return 0, err
	}
	f.applied = append(f.applied, appliedBatch{account: account, added: added, nextCursor: nextCursor})
	return len(added), nil
}

func added(id string, amount float64) domain.AddedTransaction {
	return domain.AddedTransaction{
		ExternalID:   id,
		Amount:       decimal.NewFromFloat(amount),
		Currency:     "USD",
		Date:         time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		MerchantName: "Starbucks",
	}
}

// -------- tests --------

func TestSyncAllPassesStoredCursorAndAdvances(t *testing.T) {
	account := domain.LinkedAccount{ID: 1, UserID: 7, AccessToken: "tok-a", NextCursor: "abc123"}
	agg := &fakeAggregator{responses: map[string]*plaid.SyncResponse{
		"tok-a": {Added: []domain.AddedTransaction{added("ext-1", 5), added("ext-2", 8)}, NextCursor: "def456"},
	}}
	store := &fakeStore{accounts: []domain.LinkedAccount{account}}

	result, err := NewEngine(agg, store).SyncAll(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, agg.calls, 1)
	assert.Equal(t, "abc123", agg.calls[0].cursor, "stored cursor must go upstream unchanged")

	require.Len(t, store.applied, 1)
	assert.Equal(t, "def456", store.applied[0].nextCursor)
	assert.Len(t, store.applied[0].added, 2)
	assert.Equal(t, 2, result.Added)
	assert.Empty(t, result.ReauthAccountIDs)
}

func TestSyncAllFirstSyncSendsEmptyCursor(t *testing.T) {
	account := domain.LinkedAccount{ID: 1, UserID: 7, AccessToken: "tok-a"}
	agg := &fakeAggregator{responses: map[string]*plaid.SyncResponse{
		"tok-a": {NextCursor: "first"},
	}}
	store := &fakeStore{accounts: []domain.LinkedAccount{account}}

	_, err := NewEngine(agg, store).SyncAll(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, agg.calls, 1)
	assert.Empty(t, agg.calls[0].cursor)
}

func TestSyncAllReauthDoesNotBlockOtherAccounts(t *testing.T) {
	accounts := []domain.LinkedAccount{
		{ID: 1, UserID: 7, AccessToken: "tok-bad", NextCursor: "c1"},
		{ID: 2, UserID: 7, AccessToken: "tok-good", NextCursor: "c2"},
	}
	agg := &fakeAggregator{
		errs: map[string]error{"tok-bad": plaid.ErrReauthRequired},
		responses: map[string]*plaid.SyncResponse{
			"tok-good": {Added: []domain.AddedTransaction{added("ext-9", 12.5)}, NextCursor: "c2-next"},
		},
	}
	store := &fakeStore{accounts: accounts}

	result, err := NewEngine(agg, store).SyncAll(context.Background(), 7)
	require.NoError(t, err, "re-auth is reported through the result, not the error")

	assert.Equal(t, []int64{1}, result.ReauthAccountIDs)
	assert.Equal(t, 1, result.Added)
	require.Len(t, store.applied, 1)
	assert.Equal(t, int64(2), store.applied[0].account.ID)
}

func TestSyncAllCollectsNonReauthFailuresAndContinues(t *testing.T) {
	accounts := []domain.LinkedAccount{
		{ID: 1, UserID: 7, AccessToken: "tok-a", NextCursor: "c1"},
		{ID: 2, UserID: 7, AccessToken: "tok-b", NextCursor: "c2"},
	}
	agg := &fakeAggregator{
		errs: map[string]error{"tok-a": errors.New("connection reset")},
		responses: map[string]*plaid.SyncResponse{
			"tok-b": {Added: []domain.AddedTransaction{added("ext-1", 3)}, NextCursor: "c2-next"},
		},
	}
	store := &fakeStore{accounts: accounts}

	result, err := NewEngine(agg, store).SyncAll(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account 1")
	assert.Equal(t, 1, result.Added, "the healthy account still syncs")
}

func TestSyncAllApplyFailureIsIsolatedPerAccount(t *testing.T) {
	accounts := []domain.LinkedAccount{
		{ID: 1, UserID: 7, AccessToken: "tok-a"},
		{ID: 2, UserID: 7, AccessToken: "tok-b"},
	}
	agg := &fakeAggregator{responses: map[string]*plaid.SyncResponse{
		"tok-a": {Added: []domain.AddedTransaction{added("x", 1)}, NextCursor: "na"},
		"tok-b": {Added: []domain.AddedTransaction{added("y", 2)}, NextCursor: "nb"},
	}}
	store := &fakeStore{
		accounts: accounts,
		applyErr: map[int64]error{1: errors.New("cursor was advanced by a concurrent sync")},
	}

	result, err := NewEngine(agg, store).SyncAll(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, 1, result.Added)
	require.Len(t, store.applied, 1)
	assert.Equal(t, int64(2), store.applied[0].account.ID)
}
