package assets

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"adstudio/internal/domain/creative"
	"adstudio/internal/sqlinline"
)

type stubExecutor struct {
	row  []any
	rows [][]any

	queryRowSQL string
	querySQL    string
	args        []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queryRowSQL = query
	s.args = args
	return stubRow{values: s.row}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.querySQL = query
	s.args = args
	return &stubRows{rows: s.rows}, nil
}

type stubRow struct {
	values []any
}

func (r stubRow) Scan(dest ...any) error {
	if r.values == nil {
		return pgx.ErrNoRows
	}
	return assign(dest, r.values)
}

type stubRows struct {
	rows [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(dest, r.rows[r.idx-1])
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return errors.New("column count mismatch")
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			s, ok := v.(string)
			if !ok {
				return errors.New("cannot scan non-string into *string")
			}
			*d = s
		case *int:
			*d = v.(int)
		case *int64:
			*d = v.(int64)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return errors.New("unsupported scan destination")
		}
	}
	return nil
}

// Style-path assets store aspect_ratio as NULL, so the read queries must
// hand the scanner an empty string instead of a NULL.
func TestAssetQueriesCoalesceAspectRatio(t *testing.T) {
	for name, query := range map[string]string{
		"select by id":    sqlinline.QSelectGeneratedAssetByID,
		"list by account": sqlinline.QListGeneratedAssetsByAccount,
	} {
		if !strings.Contains(query, "coalesce(aspect_ratio, '')") {
			t.Errorf("%s query does not coalesce aspect_ratio", name)
		}
	}
}

func TestRecordAssetArguments(t *testing.T) {
	exec := &stubExecutor{row: []any{"asset-1"}}
	store := NewStore(exec)
	err := store.RecordAsset(context.Background(), "acct-1", &creative.GeneratedAsset{
		ID:         "asset-1",
		StorageKey: "generations/acct-1/asset-1.png",
		MIME:       "image/png",
		Data:       []byte{1, 2, 3},
		CreditCost: 2,
	})
	if err != nil {
		t.Fatalf("RecordAsset: %v", err)
	}
	if len(exec.args) != 9 {
		t.Fatalf("expected 9 args, got %d", len(exec.args))
	}
	if v, ok := exec.args[5].(string); !ok || v != "" {
		t.Fatalf("aspect ratio arg = %T %v, want empty string", exec.args[5], exec.args[5])
	}
}

func TestGetScansEmptyAspectRatio(t *testing.T) {
	created := time.Now().UTC()
	exec := &stubExecutor{row: []any{
		"asset-1", "acct-1", "generations/acct-1/asset-1.png", "image/png",
		int64(3), "", "a prompt", 2, created,
	}}
	store := NewStore(exec)

	rec, err := store.Get(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.AspectRatio != "" {
		t.Fatalf("aspect ratio = %q, want empty", rec.AspectRatio)
	}
	if rec.AccountID != "acct-1" || rec.CreditCost != 2 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	store := NewStore(&stubExecutor{})
	rec, err := store.Get(context.Background(), "missing")
	if err != nil || rec != nil {
		t.Fatalf("Get absent = %v, %v, want nil, nil", rec, err)
	}
}

func TestListScansEmptyAspectRatio(t *testing.T) {
	created := time.Now().UTC()
	exec := &stubExecutor{rows: [][]any{
		{"asset-2", "generations/acct-1/asset-2.png", "image/png", int64(9), "", 4, created},
		{"asset-1", "generations/acct-1/asset-1.png", "image/png", int64(3), "4:5", 2, created},
	}}
	store := NewStore(exec)

	records, err := store.List(context.Background(), "acct-1", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].AspectRatio != "" || records[1].AspectRatio != "4:5" {
		t.Fatalf("aspect ratios = %q, %q", records[0].AspectRatio, records[1].AspectRatio)
	}
	if records[0].AccountID != "acct-1" {
		t.Fatalf("account not stamped on listed record: %+v", records[0])
	}
}
