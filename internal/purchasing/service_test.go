package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/procuredesk/procuredesk/internal/masterdata/products"
)

type memoryRepo struct {
	orders    map[int64]PurchaseOrder
	purchases map[int64]Purchase
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:    map[int64]PurchaseOrder{},
		purchases: map[int64]Purchase{},
		nextID:    1,
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) GetOrder(_ context.Context, id int64) (PurchaseOrder, error) {
	order, ok := m.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrNotFound
	}
	return order, nil
}

func (m *memoryRepo) GetOrderByRef(_ context.Context, refNum string) (PurchaseOrder, error) {
	for _, order := range m.orders {
		if order.RefNum == refNum && !order.IsDeleted {
			return order, nil
		}
	}
	return PurchaseOrder{}, ErrNotFound
}

func (m *memoryRepo) ListOrders(_ context.Context, filters ListFilters) ([]PurchaseOrder, int, error) {
	var out []PurchaseOrder
	for _, order := range m.orders {
		if order.IsDeleted != filters.Deleted {
			continue
		}
		if filters.AvailableOnly && order.IsPurchaseCreated {
			continue
		}
		out = append(out, order)
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetPurchase(_ context.Context, id int64) (Purchase, error) {
	purchase, ok := m.purchases[id]
	if !ok {
		return Purchase{}, ErrNotFound
	}
	return purchase, nil
}

func (m *memoryRepo) ListPurchases(_ context.Context, filters ListFilters) ([]Purchase, int, error) {
	var out []Purchase
	for _, purchase := range m.purchases {
		if purchase.IsDeleted != filters.Deleted {
			continue
		}
		out = append(out, purchase)
	}
	return out, len(out), nil
}

func (m *memoryRepo) CreateOrder(_ context.Context, order PurchaseOrder) (int64, error) {
	for _, existing := range m.orders {
		if existing.RefNum == order.RefNum {
			return 0, ErrDuplicateRef
		}
	}
	order.ID = m.nextID
	m.nextID++
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memoryRepo) UpdateOrder(_ context.Context, order PurchaseOrder) error {
	if _, ok := m.orders[order.ID]; !ok {
		return ErrNotFound
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memoryRepo) SetOrderDeleted(_ context.Context, id int64, deleted bool) error {
	order, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.IsDeleted = deleted
	m.orders[id] = order
	return nil
}

func (m *memoryRepo) SetOrderPurchaseCreated(_ context.Context, id int64, created bool) error {
	order, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.IsPurchaseCreated = created
	m.orders[id] = order
	return nil
}

func (m *memoryRepo) CreatePurchase(_ context.Context, purchase Purchase) (int64, error) {
	purchase.ID = m.nextID
	m.nextID++
	m.purchases[purchase.ID] = purchase
	return purchase.ID, nil
}

func (m *memoryRepo) UpdatePurchase(_ context.Context, purchase Purchase) error {
	if _, ok := m.purchases[purchase.ID]; !ok {
		return ErrNotFound
	}
	m.purchases[purchase.ID] = purchase
	return nil
}

func (m *memoryRepo) SetPurchaseDeleted(_ context.Context, id int64, deleted bool) error {
	purchase, ok := m.purchases[id]
	if !ok {
		return ErrNotFound
	}
	purchase.IsDeleted = deleted
	m.purchases[id] = purchase
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

type recordingEvents struct {
	saved []string
}

func (e *recordingEvents) PurchaseSaved(_ context.Context, refNum string) error {
	e.saved = append(e.saved, refNum)
	return nil
}

func testCatalog() staticCatalog {
	return staticCatalog{
		"CEM-01": {Code: "CEM-01", Name: "Cement 50kg", UnitPrice: 5, UnitType: "bag", IsActive: true},
		"STL-02": {Code: "STL-02", Name: "Steel Rod 12mm", UnitPrice: 100, UnitType: "pc", IsActive: true},
	}
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *recordingEvents) {
	t.Helper()
	repo := newMemoryRepo()
	events := &recordingEvents{}
	return NewService(repo, testCatalog(), nil, events), repo, events
}

func createTestOrder(t *testing.T, svc *Service) PurchaseOrder {
	t.Helper()
	order, err := svc.CreatePurchaseOrder(context.Background(), CreateOrderInput{
		RefNum: "PO-1001",
		Vendor: "Golden Build Supply",
		Items: []OrderLineInput{
			{ProductID: "CEM-01", Quantity: 10},
			{ProductID: "STL-02", Quantity: 2},
		},
	})
	require.NoError(t, err)
	return order
}

func TestCreatePurchaseOrderDenormalizesCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)

	order := createTestOrder(t, svc)

	require.NotZero(t, order.ID)
	require.Len(t, order.Items, 2)
	require.Equal(t, "Cement 50kg", order.Items[0].ProductName)
	require.Equal(t, 5.0, order.Items[0].UnitPrice)
	require.Equal(t, "bag", order.Items[0].UnitType)
	require.Equal(t, StatusNone, order.Items[0].Status)
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{Vendor: "V"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePurchaseOrder(ctx, CreateOrderInput{RefNum: "PO-1", Vendor: "V"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		RefNum: "PO-1", Vendor: "V",
		Items: []OrderLineInput{{ProductID: "NOPE-99", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreatePurchaseOrderDuplicateRef(t *testing.T) {
	svc, _, _ := newTestService(t)
	createTestOrder(t, svc)

	_, err := svc.CreatePurchaseOrder(context.Background(), CreateOrderInput{
		RefNum: "PO-1001",
		Vendor: "Someone Else",
		Items:  []OrderLineInput{{ProductID: "CEM-01", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrDuplicateRef)
}

func TestCreatePurchaseLocksOrder(t *testing.T) {
	svc, repo, events := newTestService(t)
	order := createTestOrder(t, svc)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, PurchaseInput{
		RefNum:       "PO-1001",
		ReceivedBy:   "k.tun",
		PurchaseDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Items: []PurchaseLineInput{
			{ProductID: "STL-02", IsCancelled: true},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Golden Build Supply", purchase.Vendor)
	require.Len(t, purchase.Items, 2)
	require.Equal(t, 50.0, purchase.Totals.Subtotal)
	require.Equal(t, 200.0, purchase.Totals.CancelledTotal)
	require.Equal(t, 50.0, purchase.Totals.GrandTotal)

	locked, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, locked.IsPurchaseCreated)

	_, err = svc.CreatePurchase(ctx, PurchaseInput{RefNum: "PO-1001"})
	require.ErrorIs(t, err, ErrOrderLocked)

	require.Equal(t, []string{"PO-1001"}, events.saved)
}

func TestLockedOrderRejectsEditAndDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc)
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, PurchaseInput{RefNum: "PO-1001"})
	require.NoError(t, err)

	_, err = svc.UpdatePurchaseOrder(ctx, order.ID, CreateOrderInput{
		Vendor: "New Vendor",
		Items:  []OrderLineInput{{ProductID: "CEM-01", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrOrderLocked)

	require.ErrorIs(t, svc.DeletePurchaseOrder(ctx, order.ID), ErrOrderLocked)
}

func TestUpdatePurchaseRemergesAgainstOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	createTestOrder(t, svc)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, PurchaseInput{RefNum: "PO-1001"})
	require.NoError(t, err)
	require.Equal(t, 250.0, purchase.Totals.Subtotal)

	updated, err := svc.UpdatePurchase(ctx, purchase.ID, PurchaseInput{
		ReceivedBy: "m.aye",
		Items: []PurchaseLineInput{
			{ProductID: "CEM-01", IsReturn: true},
			{ProductID: "OBSOLETE-99", IsCancelled: true},
		},
	})
	require.NoError(t, err)
	require.Equal(t, purchase.ID, updated.ID)
	require.Len(t, updated.Items, 2)
	require.Equal(t, 50.0, updated.Totals.ReturnTotal)
	require.Equal(t, 200.0, updated.Totals.Subtotal)
	require.Equal(t, "m.aye", updated.ReceivedBy)
}

func TestListPurchasesActiveViewHidesCancelled(t *testing.T) {
	svc, _, _ := newTestService(t)
	createTestOrder(t, svc)
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, PurchaseInput{
		RefNum: "PO-1001",
		Items:  []PurchaseLineInput{{ProductID: "STL-02", IsCancelled: true}},
	})
	require.NoError(t, err)

	raw, _, err := svc.ListPurchases(ctx, ListFilters{}, false)
	require.NoError(t, err)
	require.Len(t, raw[0].Items, 2)

	active, _, err := svc.ListPurchases(ctx, ListFilters{}, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Len(t, active[0].Items, 1)
	require.Equal(t, "CEM-01", active[0].Items[0].ProductID)
}

func TestSoftDeleteAndRestoreOrder(t *testing.T) {
	svc, repo, _ := newTestService(t)
	order := createTestOrder(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.DeletePurchaseOrder(ctx, order.ID))
	deleted, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, deleted.IsDeleted)

	_, err = svc.CreatePurchase(ctx, PurchaseInput{RefNum: "PO-1001"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.RestorePurchaseOrder(ctx, order.ID))
	restored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.False(t, restored.IsDeleted)
}

func TestCancelledItemsReport(t *testing.T) {
	svc, _, _ := newTestService(t)
	createTestOrder(t, svc)
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, PurchaseInput{
		RefNum: "PO-1001",
		Items:  []PurchaseLineInput{{ProductID: "STL-02", IsCancelled: true}},
	})
	require.NoError(t, err)

	rows, err := svc.CancelledItems(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "PO-1001", rows[0].RefNum)
	require.Equal(t, "STL-02", rows[0].ProductID)
	require.Equal(t, 200.0, rows[0].Total)
}
