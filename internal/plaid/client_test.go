package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/config"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.Config{
		PlaidBaseURL:  srv.URL,
		PlaidClientID: "client-id",
		PlaidSecret:   "secret",
	})
}

func TestExchangePublicToken(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/item/public_token/exchange", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "access-lived-long"})
	})

	token, err := c.ExchangePublicToken(context.Background(), "public-short")
	require.NoError(t, err)
	assert.Equal(t, "access-lived-long", token)
	assert.Equal(t, "client-id", gotBody["client_id"])
	assert.Equal(t, "public-short", gotBody["public_token"])
}

func TestCreateLinkToken(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/link/token/create", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"link_token": "link-session"})
	})

	token, err := c.CreateLinkToken(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "link-session", token)

	user, ok := gotBody["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "7", user["client_user_id"])
	assert.Equal(t, []any{"transactions"}, gotBody["products"])
}

func TestSyncTransactionsMapsAddedRecords(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"added": []map[string]any{
				{
					"transaction_id":    "ext-1",
					"amount":            12.5,
					"iso_currency_code": "USD",
					"date":              "2026-08-02",
					"authorized_date":   "2026-08-01",
					"name":              "Starbucks",
					"pending":           true,
					"logo_url":          "https://cdn.example/sbux.png",
				},
				{
					"transaction_id":    "ext-2",
					"amount":            3,
					"iso_currency_code": "USD",
					"date":              "2026-08-03",
					"name":              "Metro",
					"pending":           false,
				},
			},
			"next_cursor": "def456",
		})
	})

	resp, err := c.SyncTransactions(context.Background(), "tok", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", gotBody["cursor"], "stored cursor goes upstream unchanged")
	assert.Equal(t, "def456", resp.NextCursor)

	require.Len(t, resp.Added, 2)
	first := resp.Added[0]
	assert.Equal(t, "ext-1", first.ExternalID)
	assert.Equal(t, "Starbucks", first.MerchantName)
	assert.True(t, first.Pending)
	require.NotNil(t, first.LogoURL)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), first.Date,
		"authorized date wins over the nominal date")

	second := resp.Added[1]
	assert.Equal(t, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Nil(t, second.LogoURL)
}

func TestSyncTransactionsOmitsEmptyCursor(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{"next_cursor": "first"})
	})

	_, err := c.SyncTransactions(context.Background(), "tok", "")
	require.NoError(t, err)
	_, present := gotBody["cursor"]
	assert.False(t, present)
}

func TestSyncTransactionsBadRequestMeansReauth(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code":    "ITEM_LOGIN_REQUIRED",
			"error_message": "the login details of this item have changed",
		})
	})

	_, err := c.SyncTransactions(context.Background(), "tok", "abc123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReauthRequired))
}

func TestPostRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "ok"})
	})

	token, err := c.ExchangePublicToken(context.Background(), "pub")
	require.NoError(t, err)
	assert.Equal(t, "ok", token)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestFixEncodingRepairsWindows1251(t *testing.T) {
	assert.Equal(t, "Starbucks", fixEncoding("Starbucks"))

	// "Кафе" in windows-1251 bytes.
	raw := string([]byte{0xca, 0xe0, 0xf4, 0xe5})
	assert.Equal(t, "Кафе", fixEncoding(raw))
}
