// Package report builds the cancelled-items report exports.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/procuredesk/procuredesk/internal/purchasing"
)

// CancelledSource supplies the flattened cancellation rows.
type CancelledSource interface {
	CancelledItems(ctx context.Context) ([]purchasing.CancelledItemRow, error)
}

var csvHeader = []string{"Ref Num", "Vendor", "Purchase Date", "Product ID", "Product Name", "Quantity", "Unit Type", "Unit Price", "Total"}

// snapshotKey holds the warmed report rows in redis. The worker's
// warmup job writes it; the API process reads it when serving exports.
const snapshotKey = "procuredesk:report:cancelled_items"

// snapshotTTL bounds how long an unrefreshed snapshot survives.
const snapshotTTL = time.Hour

type snapshot struct {
	WarmedAt time.Time                     `json:"warmed_at"`
	Rows     []purchasing.CancelledItemRow `json:"rows"`
}

// Exporter renders cancelled-items rows as CSV and XLSX. Rows come from
// a redis snapshot kept warm by the background warmup job, shared
// between the worker and API processes, with a live-query fallback.
type Exporter struct {
	source  CancelledSource
	cache   *redis.Client
	printer *message.Printer
}

// NewExporter constructs an Exporter. A nil cache disables the snapshot
// and every read queries the source directly.
func NewExporter(source CancelledSource, cache *redis.Client) *Exporter {
	return &Exporter{
		source:  source,
		cache:   cache,
		printer: message.NewPrinter(language.English),
	}
}

// WarmCancelledItems refetches the rows and stores the snapshot.
func (e *Exporter) WarmCancelledItems(ctx context.Context) error {
	rows, err := e.source.CancelledItems(ctx)
	if err != nil {
		return err
	}
	if e.cache == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot{WarmedAt: time.Now(), Rows: rows})
	if err != nil {
		return err
	}
	return e.cache.Set(ctx, snapshotKey, payload, snapshotTTL).Err()
}

// Rows returns the current report rows, preferring a shared snapshot no
// older than maxAge. A zero maxAge always queries live.
func (e *Exporter) Rows(ctx context.Context, maxAge time.Duration) ([]purchasing.CancelledItemRow, error) {
	if maxAge > 0 && e.cache != nil {
		if raw, err := e.cache.Get(ctx, snapshotKey).Bytes(); err == nil {
			var snap snapshot
			if err := json.Unmarshal(raw, &snap); err == nil && time.Since(snap.WarmedAt) <= maxAge {
				return snap.Rows, nil
			}
		}
	}
	return e.source.CancelledItems(ctx)
}

// WriteCSV streams the rows as CSV.
func (e *Exporter) WriteCSV(w io.Writer, rows []purchasing.CancelledItemRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.RefNum,
			row.Vendor,
			row.PurchaseDate.Format("2006-01-02"),
			row.ProductID,
			row.ProductName,
			strconv.FormatFloat(row.Quantity, 'f', -1, 64),
			row.UnitType,
			e.amount(row.UnitPrice),
			e.amount(row.Total),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the rows as a single-sheet workbook.
func (e *Exporter) WriteXLSX(w io.Writer, rows []purchasing.CancelledItemRow) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Cancelled Items"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for col, title := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}
	for i, row := range rows {
		values := []any{
			row.RefNum,
			row.Vendor,
			row.PurchaseDate.Format("2006-01-02"),
			row.ProductID,
			row.ProductName,
			row.Quantity,
			row.UnitType,
			e.amount(row.UnitPrice),
			e.amount(row.Total),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) amount(v float64) string {
	return e.printer.Sprintf("%.2f", v)
}
