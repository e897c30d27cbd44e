package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/procuredesk/procuredesk/internal/masterdata/products"
	"github.com/procuredesk/procuredesk/internal/shared"
)

// ListFilters narrows order/purchase listings.
type ListFilters struct {
	Search        string
	Page          int
	Limit         int
	Deleted       bool
	AvailableOnly bool
}

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, error)
	GetOrderByRef(ctx context.Context, refNum string) (PurchaseOrder, error)
	ListOrders(ctx context.Context, filters ListFilters) ([]PurchaseOrder, int, error)
	GetPurchase(ctx context.Context, id int64) (Purchase, error)
	ListPurchases(ctx context.Context, filters ListFilters) ([]Purchase, int, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error)
	UpdateOrder(ctx context.Context, order PurchaseOrder) error
	SetOrderDeleted(ctx context.Context, id int64, deleted bool) error
	SetOrderPurchaseCreated(ctx context.Context, id int64, created bool) error
	CreatePurchase(ctx context.Context, purchase Purchase) (int64, error)
	UpdatePurchase(ctx context.Context, purchase Purchase) error
	SetPurchaseDeleted(ctx context.Context, id int64, deleted bool) error
}

// CatalogPort resolves product references at submission time.
type CatalogPort interface {
	ResolveCodes(ctx context.Context, codes []string) (map[string]products.Product, error)
}

// AuditPort records mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// EventsPort publishes background work after purchase mutations.
type EventsPort interface {
	PurchaseSaved(ctx context.Context, refNum string) error
}

// Service orchestrates purchase order and purchase flows.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	audit   AuditPort
	events  EventsPort
}

// NewService constructs the purchasing service.
func NewService(repo RepositoryPort, catalog CatalogPort, audit AuditPort, events EventsPort) *Service {
	return &Service{repo: repo, catalog: catalog, audit: audit, events: events}
}

// OrderLineInput is one requested product row.
type OrderLineInput struct {
	ProductID string
	Quantity  float64
}

// CreateOrderInput describes a new purchase order.
type CreateOrderInput struct {
	RefNum     string
	Vendor     string
	Attachment string
	Items      []OrderLineInput
}

// PurchaseLineInput carries the per-line state submitted with a purchase.
type PurchaseLineInput struct {
	ProductID   string
	Quantity    float64
	IsCancelled bool
	IsReturn    bool
}

// PurchaseInput describes a purchase create/update submission.
type PurchaseInput struct {
	RefNum       string
	ReceivedBy   string
	Remarks      string
	PurchaseDate time.Time
	InvoiceFile  string
	Items        []PurchaseLineInput
}

// CreatePurchaseOrder validates and persists a new order. Line prices,
// names and unit types are denormalized from the product catalog.
func (s *Service) CreatePurchaseOrder(ctx context.Context, input CreateOrderInput) (PurchaseOrder, error) {
	input.RefNum = strings.TrimSpace(input.RefNum)
	if input.RefNum == "" || strings.TrimSpace(input.Vendor) == "" {
		return PurchaseOrder{}, fmt.Errorf("%w: ref_num and vendor are required", ErrValidation)
	}
	items, err := s.buildOrderItems(ctx, input.Items)
	if err != nil {
		return PurchaseOrder{}, err
	}

	order := PurchaseOrder{
		RefNum:     input.RefNum,
		Vendor:     input.Vendor,
		Attachment: input.Attachment,
		Items:      items,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_CREATE", "purchase_order", order.ID, map[string]any{"ref_num": order.RefNum})
	return order, nil
}

// UpdatePurchaseOrder replaces an order's header and items. Orders that
// already have a purchase are locked.
func (s *Service) UpdatePurchaseOrder(ctx context.Context, id int64, input CreateOrderInput) (PurchaseOrder, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if order.IsDeleted {
		return PurchaseOrder{}, ErrNotFound
	}
	if order.IsPurchaseCreated {
		return PurchaseOrder{}, ErrOrderLocked
	}
	items, err := s.buildOrderItems(ctx, input.Items)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if v := strings.TrimSpace(input.Vendor); v != "" {
		order.Vendor = v
	}
	if input.Attachment != "" {
		order.Attachment = input.Attachment
	}
	order.Items = items
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_UPDATE", "purchase_order", order.ID, map[string]any{"ref_num": order.RefNum})
	return order, nil
}

// DeletePurchaseOrder soft-deletes an order into the recycle bin.
// Locked orders cannot be deleted.
func (s *Service) DeletePurchaseOrder(ctx context.Context, id int64) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.IsPurchaseCreated {
		return ErrOrderLocked
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetOrderDeleted(ctx, id, true)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "PO_DELETE", "purchase_order", id, map[string]any{"ref_num": order.RefNum})
	return nil
}

// RestorePurchaseOrder pulls an order back out of the recycle bin.
func (s *Service) RestorePurchaseOrder(ctx context.Context, id int64) error {
	if _, err := s.repo.GetOrder(ctx, id); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetOrderDeleted(ctx, id, false)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "PO_RESTORE", "purchase_order", id, nil)
	return nil
}

// GetPurchaseOrder fetches a single order.
func (s *Service) GetPurchaseOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListPurchaseOrders lists orders. AvailableOnly narrows to orders still
// selectable for a new purchase (not deleted, no purchase yet).
func (s *Service) ListPurchaseOrders(ctx context.Context, filters ListFilters) ([]PurchaseOrder, int, error) {
	return s.repo.ListOrders(ctx, filters)
}

// CreatePurchase realizes a goods receipt against an order. The order's
// item set drives the line list; submitted rows only contribute status
// flags and quantities. The order becomes locked for further purchases.
func (s *Service) CreatePurchase(ctx context.Context, input PurchaseInput) (Purchase, error) {
	order, err := s.repo.GetOrderByRef(ctx, strings.TrimSpace(input.RefNum))
	if err != nil {
		return Purchase{}, err
	}
	if order.IsDeleted {
		return Purchase{}, ErrNotFound
	}
	if order.IsPurchaseCreated {
		return Purchase{}, ErrOrderLocked
	}

	purchase, err := s.assemblePurchase(ctx, order, input, nil)
	if err != nil {
		return Purchase{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreatePurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = id
		return tx.SetOrderPurchaseCreated(ctx, order.ID, true)
	})
	if err != nil {
		return Purchase{}, err
	}
	s.recordAudit(ctx, "PURCHASE_CREATE", "purchase", purchase.ID, map[string]any{"ref_num": purchase.RefNum, "total": purchase.Totals.GrandTotal})
	s.publishSaved(ctx, purchase.RefNum)
	return purchase, nil
}

// UpdatePurchase re-runs the merge against the originating order,
// carrying the submitted flags, and persists the recomputed totals.
func (s *Service) UpdatePurchase(ctx context.Context, id int64, input PurchaseInput) (Purchase, error) {
	current, err := s.repo.GetPurchase(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	if current.IsDeleted {
		return Purchase{}, ErrNotFound
	}
	order, err := s.repo.GetOrderByRef(ctx, current.RefNum)
	if err != nil {
		return Purchase{}, err
	}

	input.RefNum = current.RefNum
	purchase, err := s.assemblePurchase(ctx, order, input, &current)
	if err != nil {
		return Purchase{}, err
	}
	purchase.ID = current.ID
	purchase.CreatedAt = current.CreatedAt

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePurchase(ctx, purchase)
	})
	if err != nil {
		return Purchase{}, err
	}
	s.recordAudit(ctx, "PURCHASE_UPDATE", "purchase", purchase.ID, map[string]any{"ref_num": purchase.RefNum, "total": purchase.Totals.GrandTotal})
	s.publishSaved(ctx, purchase.RefNum)
	return purchase, nil
}

// GetPurchase fetches a single purchase.
func (s *Service) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

// ListPurchases lists purchases. With activeView the cancelled lines are
// hidden from each purchase, and purchases consisting solely of
// cancelled lines disappear from the listing.
func (s *Service) ListPurchases(ctx context.Context, filters ListFilters, activeView bool) ([]Purchase, int, error) {
	items, total, err := s.repo.ListPurchases(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	if activeView {
		items = ExtractItemsByCancelled(items, false)
	}
	return items, total, nil
}

// DeletePurchase soft-deletes a purchase into the recycle bin.
func (s *Service) DeletePurchase(ctx context.Context, id int64) error {
	purchase, err := s.repo.GetPurchase(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetPurchaseDeleted(ctx, id, true)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "PURCHASE_DELETE", "purchase", id, map[string]any{"ref_num": purchase.RefNum})
	return nil
}

// RestorePurchase pulls a purchase back out of the recycle bin.
func (s *Service) RestorePurchase(ctx context.Context, id int64) error {
	if _, err := s.repo.GetPurchase(ctx, id); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetPurchaseDeleted(ctx, id, false)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "PURCHASE_RESTORE", "purchase", id, nil)
	return nil
}

// CancelledItems builds the flattened cancellation report over all
// non-deleted purchases.
func (s *Service) CancelledItems(ctx context.Context) ([]CancelledItemRow, error) {
	purchases, _, err := s.repo.ListPurchases(ctx, ListFilters{})
	if err != nil {
		return nil, err
	}
	return CancelledItemRows(purchases), nil
}

func (s *Service) buildOrderItems(ctx context.Context, lines []OrderLineInput) ([]LineItem, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: minimal 1 line", ErrValidation)
	}
	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity < 1 {
			return nil, fmt.Errorf("%w: every line needs a product and a quantity of at least 1", ErrValidation)
		}
		codes = append(codes, line.ProductID)
	}
	resolved, err := s.catalog.ResolveCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		product, ok := resolved[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %q", ErrValidation, line.ProductID)
		}
		items = append(items, LineItem{
			ProductID:   product.Code,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.UnitPrice,
			UnitType:    product.UnitType,
			Status:      StatusNone,
		})
	}
	return items, nil
}

// assemblePurchase merges the order's items with the submitted line
// state, resolves the catalog for names and prices, and computes totals.
// Submitted rows whose product is absent from the order are dropped.
func (s *Service) assemblePurchase(ctx context.Context, order PurchaseOrder, input PurchaseInput, existing *Purchase) (Purchase, error) {
	items := ResolveItemsForReference(order.RefNum, []PurchaseOrder{order}, existing)

	submitted := make(map[string]PurchaseLineInput, len(input.Items))
	for _, line := range input.Items {
		submitted[line.ProductID] = line
	}
	for i := range items {
		line, ok := submitted[items[i].ProductID]
		if !ok {
			continue
		}
		items[i].Status = StatusFromFlags(line.IsCancelled, line.IsReturn)
		if items[i].Status == StatusNone && line.Quantity >= 1 {
			items[i].Quantity = line.Quantity
		}
	}

	codes := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID != "" {
			codes = append(codes, item.ProductID)
		}
	}
	resolved, err := s.catalog.ResolveCodes(ctx, codes)
	if err != nil {
		return Purchase{}, err
	}
	for i := range items {
		if product, ok := resolved[items[i].ProductID]; ok {
			items[i].ProductName = product.Name
			items[i].UnitPrice = product.UnitPrice
			items[i].UnitType = product.UnitType
		}
	}

	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}
	invoice := input.InvoiceFile
	if invoice == "" {
		invoice = resolveAttachment(order, existing)
	}

	return Purchase{
		RefNum:       order.RefNum,
		Vendor:       order.Vendor,
		InvoiceFile:  invoice,
		ReceivedBy:   input.ReceivedBy,
		Remarks:      input.Remarks,
		PurchaseDate: purchaseDate,
		Items:        items,
		Totals:       ComputeTotals(items),
	}, nil
}

func (s *Service) publishSaved(ctx context.Context, refNum string) {
	if s.events == nil {
		return
	}
	_ = s.events.PurchaseSaved(ctx, refNum)
}

func (s *Service) recordAudit(ctx context.Context, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
