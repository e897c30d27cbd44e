package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/procuredesk/procuredesk/internal/purchasing"
)

type staticSource struct {
	rows  []purchasing.CancelledItemRow
	calls int
}

func (s *staticSource) CancelledItems(_ context.Context) ([]purchasing.CancelledItemRow, error) {
	s.calls++
	return s.rows, nil
}

func testRows() []purchasing.CancelledItemRow {
	return []purchasing.CancelledItemRow{
		{
			RefNum:       "PO-1001",
			Vendor:       "Golden Build Supply",
			PurchaseDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			ProductID:    "STL-02",
			ProductName:  "Steel Rod 12mm",
			Quantity:     2,
			UnitType:     "pc",
			UnitPrice:    1100,
			Total:        2200,
		},
	}
}

func testCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWriteCSV(t *testing.T) {
	exporter := NewExporter(&staticSource{rows: testRows()}, nil)

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteCSV(&buf, testRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Ref Num")
	require.Contains(t, lines[1], "PO-1001")
	require.Contains(t, lines[1], "Steel Rod 12mm")
	require.Contains(t, lines[1], `"2,200.00"`)
}

func TestWriteXLSX(t *testing.T) {
	exporter := NewExporter(&staticSource{rows: testRows()}, nil)

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteXLSX(&buf, testRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	ref, err := f.GetCellValue("Cancelled Items", "A2")
	require.NoError(t, err)
	require.Equal(t, "PO-1001", ref)

	total, err := f.GetCellValue("Cancelled Items", "I2")
	require.NoError(t, err)
	require.Equal(t, "2,200.00", total)
}

func TestRowsPrefersWarmSnapshot(t *testing.T) {
	cache := testCache(t)
	source := &staticSource{rows: testRows()}
	exporter := NewExporter(source, cache)
	ctx := context.Background()

	require.NoError(t, exporter.WarmCancelledItems(ctx))
	require.Equal(t, 1, source.calls)

	rows, err := exporter.Rows(ctx, time.Minute)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, source.calls)

	_, err = exporter.Rows(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestWarmSnapshotSharedAcrossExporters(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	// The worker warms through its own exporter instance.
	warmer := NewExporter(&staticSource{rows: testRows()}, cache)
	require.NoError(t, warmer.WarmCancelledItems(ctx))

	// The API process serves through a different instance on the same
	// redis and never has to hit its source.
	server := &staticSource{}
	serving := NewExporter(server, cache)

	rows, err := serving.Rows(ctx, time.Minute)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "PO-1001", rows[0].RefNum)
	require.Equal(t, 2200.0, rows[0].Total)
	require.Zero(t, server.calls)
}

func TestRowsIgnoresStaleSnapshot(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	exporter := NewExporter(&staticSource{rows: testRows()}, cache)
	require.NoError(t, exporter.WarmCancelledItems(ctx))

	source := &staticSource{rows: testRows()}
	serving := NewExporter(source, cache)

	// A one nanosecond budget rejects any stored snapshot.
	time.Sleep(time.Millisecond)
	rows, err := serving.Rows(ctx, time.Nanosecond)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, source.calls)
}

func TestRowsWithoutCacheQueriesLive(t *testing.T) {
	source := &staticSource{rows: testRows()}
	exporter := NewExporter(source, nil)

	rows, err := exporter.Rows(context.Background(), time.Minute)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, source.calls)
}
