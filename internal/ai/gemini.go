// internal/ai/gemini.go
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"

	"pennywise/internal/domain"
)

// Suggester asks a text-generation service to pick one category name out of
// a fixed vocabulary for a transaction.
type Suggester interface {
	SuggestCategory(ctx context.Context, txn domain.Transaction, names []string) (string, error)
}

// GeminiSuggester implements Suggester on top of the Gemini API. The client
// picks up GEMINI_API_KEY / GOOGLE_API_KEY from the environment.
type GeminiSuggester struct {
	client *genai.Client
	model  string
}

func NewGeminiSuggester(ctx context.Context, model string) (*GeminiSuggester, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiSuggester{client: client, model: model}, nil
}

func (s *GeminiSuggester) SuggestCategory(ctx context.Context, txn domain.Transaction, names []string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: BuildPrompt(txn, names)},
			},
		},
	}

	var reply string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500 * time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
		if err != nil {
			return retry.RetryableError(err)
		}
		reply = resp.Text()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate category suggestion: %w", err)
	}
	if reply == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return NormalizeReply(reply), nil
}

// BuildPrompt renders a transaction and the category vocabulary into the
// question sent to the model. The model is told to answer with one of the
// names verbatim and nothing else.
func BuildPrompt(txn domain.Transaction, names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have a transaction for %s %s from %s to %s.",
		txn.Amount.String(), txn.Currency, txn.Date.Format("2006-01-02"), txn.MerchantName)
	fmt.Fprintf(&b, " I have the following categories: %s.", strings.Join(names, ","))
	b.WriteString(" Which one best describes this transaction?")
	b.WriteString(" Only respond with your choice in the exact same way it was presented to you. Nothing else.")
	return b.String()
}

// NormalizeReply strips the whitespace and stray quoting models like to
// wrap a single-word answer in. It never maps a reply onto the vocabulary;
// matching stays exact on the caller's side.
func NormalizeReply(reply string) string {
	s := strings.TrimSpace(reply)
	s = strings.Trim(s, "\"'`")
	return strings.TrimSpace(s)
}
