package credits

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger keeps balances in process memory. It backs tests and the
// no-database development mode.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int
	entries  map[string][]Entry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]int),
		entries:  make(map[string][]Entry),
	}
}

func (l *MemoryLedger) Balance(ctx context.Context, accountID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountID], nil
}

func (l *MemoryLedger) Deduct(ctx context.Context, accountID string, amount int, reason string, metadata map[string]any) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.balances[accountID]
	if current < amount {
		return 0, ErrInsufficientBalance
	}
	l.balances[accountID] = current - amount
	l.record(accountID, -amount, reason, metadata)
	return current - amount, nil
}

func (l *MemoryLedger) Grant(ctx context.Context, accountID string, amount int, reason string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountID] += amount
	l.record(accountID, amount, reason, nil)
	return l.balances[accountID], nil
}

func (l *MemoryLedger) History(ctx context.Context, accountID string, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	all := l.entries[accountID]
	if offset >= len(all) {
		return []Entry{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]Entry, end-offset)
	copy(out, all[offset:end])
	return out, nil
}

// record prepends so History reads newest first. Caller holds the lock.
func (l *MemoryLedger) record(accountID string, amount int, reason string, metadata map[string]any) {
	entry := Entry{
		ID:        uuid.NewString(),
		Amount:    amount,
		Reason:    reason,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	l.entries[accountID] = append([]Entry{entry}, l.entries[accountID]...)
}

var _ Ledger = (*MemoryLedger)(nil)
