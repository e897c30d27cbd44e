package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/procuredesk/procuredesk/internal/platform/httpx"
	"github.com/procuredesk/procuredesk/internal/purchasing"
	"github.com/procuredesk/procuredesk/internal/rbac"
	"github.com/procuredesk/procuredesk/internal/shared"
)

// Handler exposes site delivery endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermSalesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermSalesEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type saleRequest struct {
	RefNum       string                   `json:"ref_num"`
	Customer     string                   `json:"customer"`
	SiteAddress  string                   `json:"site_address"`
	DeliveredBy  string                   `json:"delivered_by"`
	Remarks      string                   `json:"remarks"`
	DeliveryDate string                   `json:"delivery_date"`
	Items        []purchasing.LineItemDTO `json:"items"`
}

func (req saleRequest) toInput() (Input, error) {
	input := Input{
		RefNum:      req.RefNum,
		Customer:    req.Customer,
		SiteAddress: req.SiteAddress,
		DeliveredBy: req.DeliveredBy,
		Remarks:     req.Remarks,
	}
	if req.DeliveryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			if parsed, err = time.Parse(time.RFC3339, req.DeliveryDate); err != nil {
				return Input{}, ErrValidation
			}
		}
		input.DeliveryDate = parsed
	}
	for _, dto := range req.Items {
		input.Items = append(input.Items, LineInput{
			ProductID:   dto.ProductID,
			Quantity:    dto.Quantity,
			IsCancelled: dto.IsCancelled,
			IsReturn:    dto.IsReturn,
		})
	}
	return input, nil
}

type saleResponse struct {
	ID           int64                    `json:"id"`
	RefNum       string                   `json:"ref_num"`
	Customer     string                   `json:"customer"`
	SiteAddress  string                   `json:"site_address,omitempty"`
	DeliveredBy  string                   `json:"delivered_by,omitempty"`
	Remarks      string                   `json:"remarks,omitempty"`
	DeliveryDate time.Time                `json:"delivery_date"`
	Items        []purchasing.LineItemDTO `json:"items"`
	Totals       purchasing.Totals        `json:"totals"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func toSaleResponse(sale Sale) saleResponse {
	return saleResponse{
		ID:           sale.ID,
		RefNum:       sale.RefNum,
		Customer:     sale.Customer,
		SiteAddress:  sale.SiteAddress,
		DeliveredBy:  sale.DeliveredBy,
		Remarks:      sale.Remarks,
		DeliveryDate: sale.DeliveryDate,
		Items:        purchasing.ToDTOs(sale.Items),
		Totals:       sale.Totals,
		CreatedAt:    sale.CreatedAt,
		UpdatedAt:    sale.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	filters := ListFilters{
		Search:  q.Get("search"),
		Page:    page,
		Limit:   limit,
		Deleted: q.Get("deleted") == "true",
	}
	sales, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondErr(w, r, "list sales", err)
		return
	}
	items := make([]saleResponse, 0, len(sales))
	for _, sale := range sales {
		items = append(items, toSaleResponse(sale))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, "get sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSaleResponse(sale))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "delivery_date must be RFC3339 or YYYY-MM-DD")
		return
	}
	sale, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondErr(w, r, "create sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSaleResponse(sale))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "delivery_date must be RFC3339 or YYYY-MM-DD")
		return
	}
	sale, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.respondErr(w, r, "update sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSaleResponse(sale))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, r, "delete sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicateRef):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
