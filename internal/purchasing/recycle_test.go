package purchasing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func samplePurchases() []Purchase {
	return []Purchase{
		{
			ID:           1,
			RefNum:       "PO-1001",
			Vendor:       "Golden Build Supply",
			PurchaseDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Items: []LineItem{
				{ProductID: "CEM-01", ProductName: "Cement 50kg", Quantity: 10, UnitPrice: 5, Status: StatusNone},
				{ProductID: "STL-02", ProductName: "Steel Rod 12mm", Quantity: 2, UnitPrice: 100, Status: StatusCancelled},
			},
		},
		{
			ID:     2,
			RefNum: "PO-1002",
			Vendor: "Metro Hardware",
			Items: []LineItem{
				{ProductID: "PVC-03", Quantity: 4, UnitPrice: 25, Status: StatusNone},
			},
		},
		{
			ID:     3,
			RefNum: "PO-1003",
			Vendor: "Delta Traders",
			Items: []LineItem{
				{ProductID: "GLV-04", Quantity: 1, UnitPrice: 8, Status: StatusCancelled},
				{ProductID: "TLS-05", Quantity: 2, UnitPrice: 15, Status: StatusReturned},
			},
		},
	}
}

func TestExtractItemsByCancelledKeep(t *testing.T) {
	out := ExtractItemsByCancelled(samplePurchases(), true)

	require.Len(t, out, 2)
	require.Equal(t, int64(1), out[0].ID)
	require.Len(t, out[0].Items, 1)
	require.Equal(t, "STL-02", out[0].Items[0].ProductID)
	require.Equal(t, int64(3), out[1].ID)
	require.Len(t, out[1].Items, 1)
	require.Equal(t, "GLV-04", out[1].Items[0].ProductID)
}

func TestExtractItemsByCancelledDropDropsFullyCancelled(t *testing.T) {
	purchases := []Purchase{
		{ID: 9, Items: []LineItem{
			{ProductID: "A", Quantity: 1, UnitPrice: 1, Status: StatusCancelled},
			{ProductID: "B", Quantity: 1, UnitPrice: 1, Status: StatusCancelled},
		}},
	}

	require.Empty(t, ExtractItemsByCancelled(purchases, false))
}

func TestExtractItemsByCancelledRecomputesTotals(t *testing.T) {
	out := ExtractItemsByCancelled(samplePurchases(), false)

	require.Equal(t, 50.0, out[0].Totals.Subtotal)
	require.Equal(t, 0.0, out[0].Totals.CancelledTotal)
	require.Equal(t, 50.0, out[0].Totals.GrandTotal)
}

func TestExtractItemsDoesNotMutateSource(t *testing.T) {
	purchases := samplePurchases()

	_ = ExtractItemsByCancelled(purchases, true)
	_ = ExtractItemsByReturned(purchases, true)

	require.Len(t, purchases[0].Items, 2)
	require.Len(t, purchases[2].Items, 2)
	require.Equal(t, StatusCancelled, purchases[0].Items[1].Status)
}

func TestExtractItemsByReturned(t *testing.T) {
	out := ExtractItemsByReturned(samplePurchases(), true)

	require.Len(t, out, 1)
	require.Equal(t, int64(3), out[0].ID)
	require.Equal(t, "TLS-05", out[0].Items[0].ProductID)
	require.Equal(t, 30.0, out[0].Totals.ReturnTotal)
}

func TestCancelledItemRowsFlattens(t *testing.T) {
	rows := CancelledItemRows(samplePurchases())

	require.Len(t, rows, 2)
	require.Equal(t, "PO-1001", rows[0].RefNum)
	require.Equal(t, "Steel Rod 12mm", rows[0].ProductName)
	require.Equal(t, 200.0, rows[0].Total)
	require.Equal(t, "PO-1003", rows[1].RefNum)
	require.Equal(t, "GLV-04", rows[1].ProductID)
	require.Equal(t, 8.0, rows[1].Total)
}
