package credits

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCostForResolution(t *testing.T) {
	cases := []struct {
		resolution string
		want       int
	}{
		{"1K", 1},
		{"2K", 2},
		{"4K", 4},
		{"4k", 4},
		{" 2K ", 2},
		{"", 1},
		{"8K", 1},
	}
	for _, tc := range cases {
		if got := CostForResolution(tc.resolution); got != tc.want {
			t.Errorf("CostForResolution(%q) = %d, want %d", tc.resolution, got, tc.want)
		}
	}
}

func TestMemoryLedgerDeduct(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	if _, err := ledger.Grant(ctx, "acct", 3, "signup"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	balance, err := ledger.Deduct(ctx, "acct", 2, "generation", nil)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if balance != 1 {
		t.Fatalf("balance after deduct = %d, want 1", balance)
	}

	if _, err := ledger.Deduct(ctx, "acct", 2, "generation", nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overspend error = %v, want ErrInsufficientBalance", err)
	}
	if balance, _ := ledger.Balance(ctx, "acct"); balance != 1 {
		t.Fatalf("failed deduct moved the balance to %d", balance)
	}
}

func TestMemoryLedgerUnknownAccount(t *testing.T) {
	ledger := NewMemoryLedger()
	if balance, _ := ledger.Balance(context.Background(), "ghost"); balance != 0 {
		t.Fatalf("unknown account balance = %d, want 0", balance)
	}
	if _, err := ledger.Deduct(context.Background(), "ghost", 1, "generation", nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("unknown account deduct error = %v, want ErrInsufficientBalance", err)
	}
}

func TestMemoryLedgerConcurrentDeducts(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	if _, err := ledger.Grant(ctx, "acct", 10, "signup"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Deduct(ctx, "acct", 1, "generation", nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Fatalf("%d deducts succeeded, want exactly 10", succeeded)
	}
	if balance, _ := ledger.Balance(ctx, "acct"); balance != 0 {
		t.Fatalf("final balance = %d, want 0", balance)
	}
}

func TestMemoryLedgerHistory(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	if _, err := ledger.Grant(ctx, "acct", 10, "signup"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if _, err := ledger.Deduct(ctx, "acct", 4, "generation", map[string]any{"resolution": "4K"}); err != nil {
		t.Fatalf("Deduct returned error: %v", err)
	}

	entries, err := ledger.History(ctx, "acct", 10, 0)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Amount != -4 || entries[0].Reason != "generation" {
		t.Fatalf("newest entry = %+v, want the spend first", entries[0])
	}
	if entries[1].Amount != 10 || entries[1].Reason != "signup" {
		t.Fatalf("oldest entry = %+v, want the grant", entries[1])
	}

	page, err := ledger.History(ctx, "acct", 1, 1)
	if err != nil {
		t.Fatalf("History page returned error: %v", err)
	}
	if len(page) != 1 || page[0].Reason != "signup" {
		t.Fatalf("page = %+v, want just the grant", page)
	}

	empty, err := ledger.History(ctx, "nobody", 5, 0)
	if err != nil || len(empty) != 0 {
		t.Fatalf("History for unknown account = %v, %v", empty, err)
	}
}
