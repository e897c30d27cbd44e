package recyclebin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procuredesk/procuredesk/internal/purchasing"
	"github.com/procuredesk/procuredesk/internal/sales"
)

type fakePurchasing struct {
	deletedOrders    []purchasing.PurchaseOrder
	deletedPurchases []purchasing.Purchase
	restoredOrders   []int64
	restored         []int64
}

func (f *fakePurchasing) ListPurchaseOrders(_ context.Context, filters purchasing.ListFilters) ([]purchasing.PurchaseOrder, int, error) {
	if !filters.Deleted {
		return nil, 0, nil
	}
	return f.deletedOrders, len(f.deletedOrders), nil
}

func (f *fakePurchasing) ListPurchases(_ context.Context, filters purchasing.ListFilters, _ bool) ([]purchasing.Purchase, int, error) {
	if !filters.Deleted {
		return nil, 0, nil
	}
	return f.deletedPurchases, len(f.deletedPurchases), nil
}

func (f *fakePurchasing) RestorePurchaseOrder(_ context.Context, id int64) error {
	f.restoredOrders = append(f.restoredOrders, id)
	return nil
}

func (f *fakePurchasing) RestorePurchase(_ context.Context, id int64) error {
	f.restored = append(f.restored, id)
	return nil
}

type fakeSales struct {
	deleted  []sales.Sale
	restored []int64
}

func (f *fakeSales) List(_ context.Context, filters sales.ListFilters) ([]sales.Sale, int, error) {
	if !filters.Deleted {
		return nil, 0, nil
	}
	return f.deleted, len(f.deleted), nil
}

func (f *fakeSales) Restore(_ context.Context, id int64) error {
	f.restored = append(f.restored, id)
	return nil
}

func TestListSegmentsByEntity(t *testing.T) {
	p := &fakePurchasing{
		deletedOrders:    []purchasing.PurchaseOrder{{ID: 1, RefNum: "PO-1001", IsDeleted: true}},
		deletedPurchases: []purchasing.Purchase{{ID: 2, RefNum: "PO-1001", IsDeleted: true}, {ID: 3, RefNum: "PO-1002", IsDeleted: true}},
	}
	s := &fakeSales{deleted: []sales.Sale{{ID: 4, RefNum: "DO-2001", IsDeleted: true}}}
	svc := NewService(p, s)

	contents, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contents.PurchaseOrders, 1)
	require.Len(t, contents.Purchases, 2)
	require.Len(t, contents.Sales, 1)
}

func TestRestoreRoutesToOwningModule(t *testing.T) {
	p := &fakePurchasing{}
	s := &fakeSales{}
	svc := NewService(p, s)
	ctx := context.Background()

	require.NoError(t, svc.Restore(ctx, EntityPurchaseOrder, 10))
	require.NoError(t, svc.Restore(ctx, EntityPurchase, 11))
	require.NoError(t, svc.Restore(ctx, EntitySale, 12))

	require.Equal(t, []int64{10}, p.restoredOrders)
	require.Equal(t, []int64{11}, p.restored)
	require.Equal(t, []int64{12}, s.restored)
}

func TestRestoreUnknownEntity(t *testing.T) {
	svc := NewService(&fakePurchasing{}, &fakeSales{})

	err := svc.Restore(context.Background(), EntityType("invoice"), 1)
	require.ErrorIs(t, err, ErrUnknownEntity)
}
