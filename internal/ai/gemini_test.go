package ai

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pennywise/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	txn := domain.Transaction{
		Amount:       decimal.RequireFromString("12.5"),
		Currency:     "USD",
		Date:         time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		MerchantName: "Starbucks",
	}

	prompt := BuildPrompt(txn, []string{"Food & Dining", "Other"})

	assert.Equal(t,
		"I have a transaction for 12.5 USD from 2026-08-10 to Starbucks."+
			" I have the following categories: Food & Dining,Other."+
			" Which one best describes this transaction?"+
			" Only respond with your choice in the exact same way it was presented to you. Nothing else.",
		prompt)
}

func TestNormalizeReply(t *testing.T) {
	cases := map[string]string{
		"Food & Dining":         "Food & Dining",
		"  Food & Dining \n":    "Food & Dining",
		"\"Food & Dining\"":     "Food & Dining",
		"'Other'":               "Other",
		"`Bills & Utilities`":   "Bills & Utilities",
		" \"Transportation\" \n": "Transportation",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeReply(in), "input %q", in)
	}
}
