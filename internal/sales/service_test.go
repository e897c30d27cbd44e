package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procuredesk/procuredesk/internal/masterdata/products"
	"github.com/procuredesk/procuredesk/internal/purchasing"
)

type memoryRepo struct {
	sales  map[int64]Sale
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sales: map[int64]Sale{}, nextID: 1}
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Sale, error) {
	sale, ok := m.sales[id]
	if !ok {
		return Sale{}, ErrNotFound
	}
	return sale, nil
}

func (m *memoryRepo) List(_ context.Context, filters ListFilters) ([]Sale, int, error) {
	var out []Sale
	for _, sale := range m.sales {
		if sale.IsDeleted != filters.Deleted {
			continue
		}
		out = append(out, sale)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Create(_ context.Context, sale Sale) (int64, error) {
	for _, existing := range m.sales {
		if existing.RefNum == sale.RefNum {
			return 0, ErrDuplicateRef
		}
	}
	sale.ID = m.nextID
	m.nextID++
	m.sales[sale.ID] = sale
	return sale.ID, nil
}

func (m *memoryRepo) Update(_ context.Context, sale Sale) error {
	if _, ok := m.sales[sale.ID]; !ok {
		return ErrNotFound
	}
	m.sales[sale.ID] = sale
	return nil
}

func (m *memoryRepo) SetDeleted(_ context.Context, id int64, deleted bool) error {
	sale, ok := m.sales[id]
	if !ok {
		return ErrNotFound
	}
	sale.IsDeleted = deleted
	m.sales[id] = sale
	return nil
}

type staticCatalog map[string]products.Product

func (c staticCatalog) ResolveCodes(_ context.Context, codes []string) (map[string]products.Product, error) {
	out := make(map[string]products.Product, len(codes))
	for _, code := range codes {
		if product, ok := c[code]; ok {
			out[code] = product
		}
	}
	return out, nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	catalog := staticCatalog{
		"CEM-01": {Code: "CEM-01", Name: "Cement 50kg", UnitPrice: 5, UnitType: "bag"},
		"STL-02": {Code: "STL-02", Name: "Steel Rod 12mm", UnitPrice: 100, UnitType: "pc"},
	}
	return NewService(repo, catalog, nil), repo
}

func TestCreateSaleComputesTotals(t *testing.T) {
	svc, _ := newTestService()

	sale, err := svc.Create(context.Background(), Input{
		RefNum:   "DO-2001",
		Customer: "Hilltop Construction",
		Items: []LineInput{
			{ProductID: "CEM-01", Quantity: 10},
			{ProductID: "STL-02", Quantity: 1, IsCancelled: true},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, sale.ID)
	require.Equal(t, 50.0, sale.Totals.Subtotal)
	require.Equal(t, 100.0, sale.Totals.CancelledTotal)
	require.Equal(t, 50.0, sale.Totals.GrandTotal)
	require.Equal(t, purchasing.StatusCancelled, sale.Items[1].Status)
}

func TestCreateSaleValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Customer: "C"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, Input{RefNum: "DO-1", Customer: "C"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, Input{
		RefNum: "DO-1", Customer: "C",
		Items: []LineInput{{ProductID: "NOPE-99", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateSaleKeepsRefNum(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, Input{
		RefNum:   "DO-2001",
		Customer: "Hilltop Construction",
		Items:    []LineInput{{ProductID: "CEM-01", Quantity: 10}},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, sale.ID, Input{
		RefNum:   "DO-9999",
		Customer: "Hilltop Construction",
		Items:    []LineInput{{ProductID: "CEM-01", Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, "DO-2001", updated.RefNum)
	require.Equal(t, 20.0, updated.Totals.Subtotal)
}

func TestDeleteAndRestoreSale(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, Input{
		RefNum:   "DO-2001",
		Customer: "Hilltop Construction",
		Items:    []LineInput{{ProductID: "CEM-01", Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sale.ID))
	deleted, err := repo.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.True(t, deleted.IsDeleted)

	require.NoError(t, svc.Restore(ctx, sale.ID))
	restored, err := repo.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.False(t, restored.IsDeleted)
}
