// Package recyclebin aggregates soft-deleted records across modules and
// dispatches restores back to the owning module.
package recyclebin

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/procuredesk/procuredesk/internal/purchasing"
	"github.com/procuredesk/procuredesk/internal/sales"
)

// EntityType segments the bin.
type EntityType string

const (
	EntityPurchaseOrder EntityType = "purchase_order"
	EntityPurchase      EntityType = "purchase"
	EntitySale          EntityType = "sale"
)

// ErrUnknownEntity rejects restore requests for unsegmented types.
var ErrUnknownEntity = errors.New("recyclebin: unknown entity type")

// PurchasingPort is the slice of the purchasing service the bin needs.
type PurchasingPort interface {
	ListPurchaseOrders(ctx context.Context, filters purchasing.ListFilters) ([]purchasing.PurchaseOrder, int, error)
	ListPurchases(ctx context.Context, filters purchasing.ListFilters, activeView bool) ([]purchasing.Purchase, int, error)
	RestorePurchaseOrder(ctx context.Context, id int64) error
	RestorePurchase(ctx context.Context, id int64) error
}

// SalesPort is the slice of the sales service the bin needs.
type SalesPort interface {
	List(ctx context.Context, filters sales.ListFilters) ([]sales.Sale, int, error)
	Restore(ctx context.Context, id int64) error
}

// Contents is the segmented view of the bin.
type Contents struct {
	PurchaseOrders []purchasing.PurchaseOrder `json:"purchase_orders"`
	Purchases      []purchasing.Purchase      `json:"purchases"`
	Sales          []sales.Sale               `json:"sales"`
}

// Service queries each module's deleted records and restores them.
type Service struct {
	purchasing PurchasingPort
	sales      SalesPort
}

func NewService(purchasingSvc PurchasingPort, salesSvc SalesPort) *Service {
	return &Service{purchasing: purchasingSvc, sales: salesSvc}
}

// List fans out to the three modules concurrently and assembles the
// segmented bin contents.
func (s *Service) List(ctx context.Context) (Contents, error) {
	var contents Contents
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		orders, _, err := s.purchasing.ListPurchaseOrders(ctx, purchasing.ListFilters{Deleted: true})
		if err != nil {
			return fmt.Errorf("deleted purchase orders: %w", err)
		}
		contents.PurchaseOrders = orders
		return nil
	})
	g.Go(func() error {
		purchases, _, err := s.purchasing.ListPurchases(ctx, purchasing.ListFilters{Deleted: true}, false)
		if err != nil {
			return fmt.Errorf("deleted purchases: %w", err)
		}
		contents.Purchases = purchases
		return nil
	})
	g.Go(func() error {
		items, _, err := s.sales.List(ctx, sales.ListFilters{Deleted: true})
		if err != nil {
			return fmt.Errorf("deleted sales: %w", err)
		}
		contents.Sales = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return Contents{}, err
	}
	return contents, nil
}

// Restore routes a restore request to the owning module.
func (s *Service) Restore(ctx context.Context, entity EntityType, id int64) error {
	switch entity {
	case EntityPurchaseOrder:
		return s.purchasing.RestorePurchaseOrder(ctx, id)
	case EntityPurchase:
		return s.purchasing.RestorePurchase(ctx, id)
	case EntitySale:
		return s.sales.Restore(ctx, id)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
}
