package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/procuredesk/procuredesk/internal/masterdata/products"
	"github.com/procuredesk/procuredesk/internal/purchasing"
	"github.com/procuredesk/procuredesk/internal/shared"
)

// ListFilters narrows sale listings.
type ListFilters struct {
	Search  string
	Page    int
	Limit   int
	Deleted bool
}

// Repository describes the persistence operations used by Service.
type Repository interface {
	Get(ctx context.Context, id int64) (Sale, error)
	List(ctx context.Context, filters ListFilters) ([]Sale, int, error)
	Create(ctx context.Context, sale Sale) (int64, error)
	Update(ctx context.Context, sale Sale) error
	SetDeleted(ctx context.Context, id int64, deleted bool) error
}

// CatalogPort resolves product references at submission time.
type CatalogPort interface {
	ResolveCodes(ctx context.Context, codes []string) (map[string]products.Product, error)
}

// AuditPort records mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps site delivery business rules.
type Service struct {
	repo    Repository
	catalog CatalogPort
	audit   AuditPort
}

func NewService(repo Repository, catalog CatalogPort, audit AuditPort) *Service {
	return &Service{repo: repo, catalog: catalog, audit: audit}
}

// LineInput is one delivered product row.
type LineInput struct {
	ProductID   string
	Quantity    float64
	IsCancelled bool
	IsReturn    bool
}

// Input describes a sale create/update submission.
type Input struct {
	RefNum       string
	Customer     string
	SiteAddress  string
	DeliveredBy  string
	Remarks      string
	DeliveryDate time.Time
	Items        []LineInput
}

// Create validates and persists a new site delivery. Prices, names and
// unit types come from the catalog.
func (s *Service) Create(ctx context.Context, input Input) (Sale, error) {
	sale, err := s.assemble(ctx, input)
	if err != nil {
		return Sale{}, err
	}
	id, err := s.repo.Create(ctx, sale)
	if err != nil {
		return Sale{}, err
	}
	sale.ID = id
	s.recordAudit(ctx, "SALE_CREATE", sale.ID, map[string]any{"ref_num": sale.RefNum})
	return sale, nil
}

// Update replaces a sale's fields and recomputes totals.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Sale, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if current.IsDeleted {
		return Sale{}, ErrNotFound
	}
	input.RefNum = current.RefNum
	sale, err := s.assemble(ctx, input)
	if err != nil {
		return Sale{}, err
	}
	sale.ID = current.ID
	sale.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, sale); err != nil {
		return Sale{}, err
	}
	s.recordAudit(ctx, "SALE_UPDATE", sale.ID, map[string]any{"ref_num": sale.RefNum})
	return sale, nil
}

// Get fetches a single sale.
func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	return s.repo.Get(ctx, id)
}

// List lists sales.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Sale, int, error) {
	return s.repo.List(ctx, filters)
}

// Delete soft-deletes a sale into the recycle bin.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetDeleted(ctx, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, "SALE_DELETE", id, nil)
	return nil
}

// Restore pulls a sale back out of the recycle bin.
func (s *Service) Restore(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetDeleted(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, "SALE_RESTORE", id, nil)
	return nil
}

func (s *Service) assemble(ctx context.Context, input Input) (Sale, error) {
	input.RefNum = strings.TrimSpace(input.RefNum)
	if input.RefNum == "" || strings.TrimSpace(input.Customer) == "" {
		return Sale{}, fmt.Errorf("%w: ref_num and customer are required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return Sale{}, fmt.Errorf("%w: minimal 1 line", ErrValidation)
	}

	codes := make([]string, 0, len(input.Items))
	for _, line := range input.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return Sale{}, fmt.Errorf("%w: every line needs a product and a quantity of at least 1", ErrValidation)
		}
		codes = append(codes, line.ProductID)
	}
	resolved, err := s.catalog.ResolveCodes(ctx, codes)
	if err != nil {
		return Sale{}, err
	}

	items := make([]purchasing.LineItem, 0, len(input.Items))
	for _, line := range input.Items {
		product, ok := resolved[line.ProductID]
		if !ok {
			return Sale{}, fmt.Errorf("%w: unknown product %q", ErrValidation, line.ProductID)
		}
		items = append(items, purchasing.LineItem{
			ProductID:   product.Code,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.UnitPrice,
			UnitType:    product.UnitType,
			Status:      purchasing.StatusFromFlags(line.IsCancelled, line.IsReturn),
		})
	}

	deliveryDate := input.DeliveryDate
	if deliveryDate.IsZero() {
		deliveryDate = time.Now()
	}

	return Sale{
		RefNum:       input.RefNum,
		Customer:     input.Customer,
		SiteAddress:  input.SiteAddress,
		DeliveredBy:  input.DeliveredBy,
		Remarks:      input.Remarks,
		DeliveryDate: deliveryDate,
		Items:        items,
		Totals:       purchasing.ComputeTotals(items),
	}, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "sale", EntityID: fmt.Sprintf("%d", id), Meta: meta})
}
