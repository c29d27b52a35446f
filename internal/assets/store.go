// Package assets journals generated-asset metadata in Postgres. Image bytes
// live in blob storage; this store keeps the lookup row that ties an asset to
// its account, storage key, and billed cost.
package assets

import (
	"context"
	"fmt"
	"time"

	"adstudio/internal/domain/creative"
	"adstudio/internal/infra"
	"adstudio/internal/sqlinline"
)

// Record is one stored asset row.
type Record struct {
	ID          string
	AccountID   string
	StorageKey  string
	MIME        string
	Bytes       int64
	AspectRatio string
	Prompt      string
	CreditCost  int
	CreatedAt   time.Time
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// RecordAsset satisfies the pipeline's recorder contract.
func (s *Store) RecordAsset(ctx context.Context, accountID string, asset *creative.GeneratedAsset) error {
	var id string
	err := s.sql.QueryRow(ctx, sqlinline.QInsertGeneratedAsset,
		asset.ID, accountID, asset.StorageKey, asset.MIME, int64(len(asset.Data)),
		asset.AspectRatio, asset.Prompt, asset.CreditCost, nil,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("record asset: %w", err)
	}
	return nil
}

// Get loads one asset row by ID. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.sql.QueryRow(ctx, sqlinline.QSelectGeneratedAssetByID, id).Scan(
		&rec.ID, &rec.AccountID, &rec.StorageKey, &rec.MIME, &rec.Bytes,
		&rec.AspectRatio, &rec.Prompt, &rec.CreditCost, &rec.CreatedAt,
	)
	if infra.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	return &rec, nil
}

// List returns the account's assets, newest first.
func (s *Store) List(ctx context.Context, accountID string, limit, offset int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.sql.Query(ctx, sqlinline.QListGeneratedAssetsByAccount, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{AccountID: accountID}
		if err := rows.Scan(&rec.ID, &rec.StorageKey, &rec.MIME, &rec.Bytes, &rec.AspectRatio, &rec.CreditCost, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
