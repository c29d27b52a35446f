// Package credits tracks per-account credit balances and the journal of
// every grant and spend. Generation is billed by output resolution, and the
// ledger is the only component allowed to move a balance.
package credits

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrInsufficientBalance is returned by Deduct when the conditional decrement
// matches no row, either because the account is unknown or the balance does
// not cover the amount.
var ErrInsufficientBalance = errors.New("insufficient credit balance")

// Ledger is the billing surface the pipeline depends on. Balance is an
// advisory read used for the pre-synthesis gate; Deduct is the atomic
// settlement and must never drive a balance below zero.
type Ledger interface {
	Balance(ctx context.Context, accountID string) (int, error)
	Deduct(ctx context.Context, accountID string, amount int, reason string, metadata map[string]any) (int, error)
	Grant(ctx context.Context, accountID string, amount int, reason string) (int, error)
	History(ctx context.Context, accountID string, limit, offset int) ([]Entry, error)
}

// Entry is one journal line. Spends carry a negative amount, grants positive.
type Entry struct {
	ID        string         `json:"id"`
	Amount    int            `json:"amount"`
	Reason    string         `json:"reason"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Resolution labels accepted on generation requests.
const (
	Resolution1K = "1K"
	Resolution2K = "2K"
	Resolution4K = "4K"
)

// CostForResolution maps an output resolution to its credit price. Unknown
// labels bill at the base rate.
func CostForResolution(resolution string) int {
	switch strings.ToUpper(strings.TrimSpace(resolution)) {
	case Resolution4K:
		return 4
	case Resolution2K:
		return 2
	default:
		return 1
	}
}
