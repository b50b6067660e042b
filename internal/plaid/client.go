// internal/plaid/client.go
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"pennywise/internal/config"
	"pennywise/internal/domain"
)

// ErrReauthRequired signals that the aggregator rejected the account's
// credential or cursor and the user has to re-link the account.
var ErrReauthRequired = errors.New("account needs re-authentication")

type Client struct {
	baseURL  string
	clientID string
	secret   string
	http     *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.PlaidBaseURL, "/"),
		clientID: cfg.PlaidClientID,
		secret:   cfg.PlaidSecret,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// SyncResponse is the incremental sync payload, trimmed to what we store.
// Modified and removed entries are ignored.
type SyncResponse struct {
	Added      []domain.AddedTransaction
	NextCursor string
}

type wireTransaction struct {
	TransactionID  string          `json:"transaction_id"`
	Amount         decimal.Decimal `json:"amount"`
	ISOCurrency    string          `json:"iso_currency_code"`
	Date           string          `json:"date"`
	AuthorizedDate *string         `json:"authorized_date"`
	Name           string          `json:"name"`
	Pending        bool            `json:"pending"`
	LogoURL        *string         `json:"logo_url"`
}

type wireError struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// CreateLinkToken requests a link session token for the client-side widget.
func (c *Client) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	body := map[string]any{
		"client_id":     c.clientID,
		"secret":        c.secret,
		"user":          map[string]any{"client_user_id": fmt.Sprintf("%d", userID)},
		"client_name":   "Personal Finance App",
		"products":      []string{"transactions"},
		"transactions":  map[string]any{"days_requested": 30},
		"country_codes": []string{"US"},
		"language":      "en",
		"account_filters": map[string]any{
			"credit": map[string]any{"account_subtypes": []string{"credit card"}},
		},
	}

	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, "/link/token/create", body, &resp); err != nil {
		return "", fmt.Errorf("create link token: %w", err)
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken trades the widget's short-lived public token for a
// long-lived access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"public_token": publicToken,
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", body, &resp); err != nil {
		return "", fmt.Errorf("exchange public token: %w", err)
	}
	return resp.AccessToken, nil
}

// SyncTransactions pulls activity added since cursor (empty for the first
// sync). On a credential rejection it returns ErrReauthRequired.
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncResponse, error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
	}
	if cursor != "" {
		body["cursor"] = cursor
	}

	var resp struct {
		Added      []wireTransaction `json:"added"`
		NextCursor string            `json:"next_cursor"`
	}
	if err := c.post(ctx, "/transactions/sync", body, &resp); err != nil {
		return nil, fmt.Errorf("sync transactions: %w", err)
	}

	out := &SyncResponse{NextCursor: resp.NextCursor}
	for _, wt := range resp.Added {
		// Prefer the authorized date over the nominal posting date.
		dateStr := wt.Date
		if wt.AuthorizedDate != nil && *wt.AuthorizedDate != "" {
			dateStr = *wt.AuthorizedDate
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
		}
		out.Added = append(out.Added, domain.AddedTransaction{
			ExternalID:   wt.TransactionID,
			Amount:       wt.Amount,
			Currency:     wt.ISOCurrency,
			Date:         date,
			MerchantName: fixEncoding(wt.Name),
			Pending:      wt.Pending,
			LogoURL:      wt.LogoURL,
		})
	}
	return out, nil
}

// post sends a JSON request and decodes the response, retrying transport
// failures and 5xx answers with exponential backoff. A 4xx means the
// credential or cursor was rejected and maps to ErrReauthRequired.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		switch {
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("upstream returned %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			var we wireError
			_ = json.Unmarshal(data, &we)
			if we.ErrorCode != "" {
				return fmt.Errorf("%w: %s", ErrReauthRequired, we.ErrorCode)
			}
			return ErrReauthRequired
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

// fixEncoding repairs merchant names that arrive as windows-1251 bytes
// instead of UTF-8.
func fixEncoding(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	decoder := charmap.Windows1251.NewDecoder()
	fixed, err := decoder.String(s)
	if err == nil && utf8.ValidString(fixed) {
		return fixed
	}

	return strings.ToValidUTF8(s, "")
}
