package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"inventory-agent/internal/core"
)

// Column order of the shared CSV file. Preserved verbatim across every
// read-modify-write cycle.
var csvColumns = []string{
	"SKU_ID",
	"Product_Name",
	"Category",
	"Season",
	"Current_Stock",
	"Forecast",
	"Sales_Trend_Last_30_Days",
	"Supplier_Lead_Time",
	"Location",
	"On_Order",
}

const (
	saveAttempts = 3
	saveDelay    = time.Second
)

// CSVStore is the primary record store: the whole file is re-read and
// rewritten on every save. A lock or permission failure is retried up to 3
// times with a fixed 1-second delay.
//
// Known consistency gap, kept deliberately: the read-modify-write spans the
// entire file with no row lock or version check, so two concurrent runs can
// interleave and the first writer's rows are silently overwritten by the
// second writer's stale copy. PGStore is the row-locked alternative.
type CSVStore struct {
	path string
	log  zerolog.Logger

	// Injection points for tests; production values are fixed above.
	retryDelay time.Duration
	writeFile  func(name string, data []byte, perm os.FileMode) error
}

func NewCSVStore(path string, logger zerolog.Logger) *CSVStore {
	return &CSVStore{
		path:       path,
		log:        logger,
		retryDelay: saveDelay,
		writeFile:  os.WriteFile,
	}
}

// LoadAll reads every record in file order.
func (s *CSVStore) LoadAll(_ context.Context) ([]core.ItemRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading record store %s: %w", s.path, err)
	}
	records, err := decodeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parsing record store %s: %w", s.path, err)
	}
	return records, nil
}

// ApplyAndSave re-reads the store, assigns the listed fields on each target
// row and rewrites the whole file. An unknown row fails immediately with
// core.ErrRecordNotFound; a lock/permission failure is retried and, once
// the budget is spent, reported as core.ErrStoreLocked (wrapped).
func (s *CSVStore) ApplyAndSave(ctx context.Context, updates []core.RecordUpdate) error {
	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		err := s.applyOnce(updates)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return err
		}
		lastErr = err
		if attempt < saveAttempts {
			s.log.Warn().Err(err).Int("attempt", attempt).Int("max", saveAttempts).
				Msg("record store locked, retrying")
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w: giving up after %d attempts: %v", core.ErrStoreLocked, saveAttempts, lastErr)
}

func (s *CSVStore) applyOnce(updates []core.RecordUpdate) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("re-reading record store: %w", err)
	}
	records, err := decodeCSV(data)
	if err != nil {
		return fmt.Errorf("parsing record store: %w", err)
	}

	for _, u := range updates {
		idx := findRow(records, u.Key)
		if idx < 0 {
			return fmt.Errorf("%s: %w", describeKey(u.Key), core.ErrRecordNotFound)
		}
		applyFields(&records[idx], u.Fields)
	}

	out, err := encodeCSV(records)
	if err != nil {
		return fmt.Errorf("encoding record store: %w", err)
	}
	if err := s.writeFile(s.path, out, 0o644); err != nil {
		return fmt.Errorf("writing record store: %w", err)
	}
	return nil
}

func findRow(records []core.ItemRecord, key core.RowKey) int {
	for i := range records {
		if key.SKUID != "" {
			if records[i].SKUID == key.SKUID {
				return i
			}
			continue
		}
		if records[i].Name == key.ProductName && records[i].Location == key.Location {
			return i
		}
	}
	return -1
}

func applyFields(rec *core.ItemRecord, f core.FieldChanges) {
	if f.Stock != nil {
		rec.Stock = *f.Stock
	}
	if f.Forecast != nil {
		rec.Forecast = *f.Forecast
	}
	if f.OnOrder != nil {
		rec.OnOrder = *f.OnOrder
	}
}

func describeKey(key core.RowKey) string {
	if key.SKUID != "" {
		return "sku " + key.SKUID
	}
	return fmt.Sprintf("product %q at %s", key.ProductName, key.Location)
}

// A locked file surfaces as a permission error on every platform we care
// about; anything else (parse error, missing row, missing file) is not
// worth retrying.
func isLockError(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

func decodeCSV(data []byte) ([]core.ItemRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file, expected a header row")
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range csvColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	records := make([]core.ItemRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec := core.ItemRecord{
			SKUID:    row[col["SKU_ID"]],
			Name:     row[col["Product_Name"]],
			Category: row[col["Category"]],
			Season:   core.Season(row[col["Season"]]),
			Location: row[col["Location"]],
		}
		ints := []struct {
			column string
			dst    *int
		}{
			{"Current_Stock", &rec.Stock},
			{"Forecast", &rec.Forecast},
			{"Sales_Trend_Last_30_Days", &rec.SalesTrend30d},
			{"Supplier_Lead_Time", &rec.LeadTimeDays},
			{"On_Order", &rec.OnOrder},
		}
		for _, f := range ints {
			v, err := strconv.Atoi(row[col[f.column]])
			if err != nil {
				return nil, fmt.Errorf("row %d: column %s: %w", n+2, f.column, err)
			}
			*f.dst = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func encodeCSV(records []core.ItemRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{
			rec.SKUID,
			rec.Name,
			rec.Category,
			string(rec.Season),
			strconv.Itoa(rec.Stock),
			strconv.Itoa(rec.Forecast),
			strconv.Itoa(rec.SalesTrend30d),
			strconv.Itoa(rec.LeadTimeDays),
			rec.Location,
			strconv.Itoa(rec.OnOrder),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// WriteAll replaces the entire store contents. Used by the dataset seeder.
func (s *CSVStore) WriteAll(_ context.Context, records []core.ItemRecord) error {
	out, err := encodeCSV(records)
	if err != nil {
		return fmt.Errorf("encoding record store: %w", err)
	}
	if err := s.writeFile(s.path, out, 0o644); err != nil {
		return fmt.Errorf("writing record store: %w", err)
	}
	return nil
}
