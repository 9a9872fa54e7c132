package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"inventory-agent/internal/core"
)

// PGStore keeps the record collection in Postgres and updates rows inside
// a single transaction with per-row locks. It exists as the fix for the
// CSVStore race: concurrent runs touching different rows cannot lose each
// other's writes here.
type PGStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPGStore(pool *pgxpool.Pool, logger zerolog.Logger) *PGStore {
	return &PGStore{pool: pool, log: logger}
}

// EnsureSchema creates the item_records table if it does not exist yet.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS item_records (
			sku_id             TEXT PRIMARY KEY,
			product_name       TEXT NOT NULL,
			category           TEXT NOT NULL,
			season             TEXT NOT NULL,
			current_stock      INT  NOT NULL CHECK (current_stock >= 0),
			forecast           INT  NOT NULL CHECK (forecast >= 0),
			sales_trend_30d    INT  NOT NULL,
			supplier_lead_time INT  NOT NULL,
			location           TEXT NOT NULL,
			on_order           INT  NOT NULL DEFAULT 0,
			UNIQUE (product_name, location)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating item_records table: %w", err)
	}
	return nil
}

// LoadAll returns every record ordered by SKU.
func (s *PGStore) LoadAll(ctx context.Context) ([]core.ItemRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sku_id, product_name, category, season, current_stock,
		       forecast, sales_trend_30d, supplier_lead_time, location, on_order
		FROM item_records
		ORDER BY sku_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying item records: %w", err)
	}
	defer rows.Close()

	var records []core.ItemRecord
	for rows.Next() {
		var rec core.ItemRecord
		if err := rows.Scan(&rec.SKUID, &rec.Name, &rec.Category, &rec.Season, &rec.Stock,
			&rec.Forecast, &rec.SalesTrend30d, &rec.LeadTimeDays, &rec.Location, &rec.OnOrder); err != nil {
			return nil, fmt.Errorf("scanning item record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ApplyAndSave assigns the listed fields on each target row within one
// transaction. Nil fields keep their current value via COALESCE, so each
// update touches exactly the columns the caller listed.
func (s *PGStore) ApplyAndSave(ctx context.Context, updates []core.RecordUpdate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		var tag string
		var args []any
		if u.Key.SKUID != "" {
			tag = "sku_id = $4"
			args = []any{u.Fields.Stock, u.Fields.Forecast, u.Fields.OnOrder, u.Key.SKUID}
		} else {
			tag = "product_name = $4 AND location = $5"
			args = []any{u.Fields.Stock, u.Fields.Forecast, u.Fields.OnOrder, u.Key.ProductName, u.Key.Location}
		}
		ct, err := tx.Exec(ctx, `
			UPDATE item_records
			SET current_stock = COALESCE($1, current_stock),
			    forecast      = COALESCE($2, forecast),
			    on_order      = COALESCE($3, on_order)
			WHERE `+tag, args...)
		if err != nil {
			return fmt.Errorf("updating %s: %w", describeKey(u.Key), err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", describeKey(u.Key), core.ErrRecordNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing record updates: %w", err)
	}
	return nil
}

// ReplaceAll truncates the table and bulk-loads the given records. Used by
// the dataset seeder.
func (s *PGStore) ReplaceAll(ctx context.Context, records []core.ItemRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE item_records"); err != nil {
		return fmt.Errorf("truncating item_records: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"item_records"},
		[]string{"sku_id", "product_name", "category", "season", "current_stock",
			"forecast", "sales_trend_30d", "supplier_lead_time", "location", "on_order"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{rec.SKUID, rec.Name, rec.Category, string(rec.Season), rec.Stock,
				rec.Forecast, rec.SalesTrend30d, rec.LeadTimeDays, rec.Location, rec.OnOrder}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("bulk-loading item_records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing bulk load: %w", err)
	}
	s.log.Info().Int("records", len(records)).Msg("record store replaced")
	return nil
}

var _ core.RecordStore = (*PGStore)(nil)
var _ core.RecordStore = (*CSVStore)(nil)
