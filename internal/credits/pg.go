package credits

import (
	"context"
	"encoding/json"
	"fmt"

	"adstudio/internal/infra"
	"adstudio/internal/sqlinline"
)

// PGLedger stores balances in Postgres. The deduct statement decrements only
// when the balance covers the amount, so concurrent spends on one account
// serialize on the row without any application-side locking.
type PGLedger struct {
	sql infra.SQLExecutor
}

func NewPGLedger(sql infra.SQLExecutor) *PGLedger {
	return &PGLedger{sql: sql}
}

func (l *PGLedger) Balance(ctx context.Context, accountID string) (int, error) {
	var balance int
	err := l.sql.QueryRow(ctx, sqlinline.QSelectCreditBalance, accountID).Scan(&balance)
	if infra.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func (l *PGLedger) Deduct(ctx context.Context, accountID string, amount int, reason string, metadata map[string]any) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("deduct amount must be positive, got %d", amount)
	}
	var balance int
	err := l.sql.QueryRow(ctx, sqlinline.QDeductCredits, accountID, amount).Scan(&balance)
	if infra.IsNoRows(err) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("deduct credits: %w", err)
	}
	l.journal(ctx, accountID, -amount, reason, metadata)
	return balance, nil
}

func (l *PGLedger) Grant(ctx context.Context, accountID string, amount int, reason string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	var balance int
	if err := l.sql.QueryRow(ctx, sqlinline.QGrantCredits, accountID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("grant credits: %w", err)
	}
	l.journal(ctx, accountID, amount, reason, nil)
	return balance, nil
}

func (l *PGLedger) History(ctx context.Context, accountID string, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := l.sql.Query(ctx, sqlinline.QListCreditEntries, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list credit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.Amount, &e.Reason, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit entry: %w", err)
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// journal records the entry best-effort. The balance row is authoritative;
// a failed journal insert must not unwind a settled spend.
func (l *PGLedger) journal(ctx context.Context, accountID string, amount int, reason string, metadata map[string]any) {
	raw, err := json.Marshal(metadata)
	if err != nil || metadata == nil {
		raw = []byte(`{}`)
	}
	var id string
	_ = l.sql.QueryRow(ctx, sqlinline.QInsertCreditEntry, accountID, amount, reason, raw).Scan(&id)
}

var _ Ledger = (*PGLedger)(nil)
