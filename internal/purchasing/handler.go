package purchasing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/procuredesk/procuredesk/internal/platform/httpx"
	"github.com/procuredesk/procuredesk/internal/rbac"
	"github.com/procuredesk/procuredesk/internal/shared"
)

// Handler exposes purchase order and purchase endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	uploadDir string
}

func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware, uploadDir string) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, uploadDir: uploadDir}
}

// MountRoutes registers purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(rbac.PermPurchasingView))
			r.Get("/", h.listOrders)
			r.Get("/{id}", h.getOrder)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAll(rbac.PermPurchasingEdit))
			r.Post("/", h.createOrder)
			r.Put("/{id}", h.updateOrder)
			r.Delete("/{id}", h.deleteOrder)
		})
	})
	r.Route("/purchases", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(rbac.PermPurchasingView))
			r.Get("/", h.listPurchases)
			r.Get("/cancelled-items", h.cancelledItems)
			r.Get("/{id}", h.getPurchase)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAll(rbac.PermPurchasingEdit))
			r.Post("/", h.createPurchase)
			r.Put("/{id}", h.updatePurchase)
			r.Delete("/{id}", h.deletePurchase)
		})
	})
}

type orderRequest struct {
	RefNum     string `json:"ref_num"`
	Vendor     string `json:"vendor"`
	Attachment string `json:"attachment"`
	Items      []struct {
		ProductID string  `json:"productId"`
		Quantity  float64 `json:"quantity"`
	} `json:"items"`
}

func (req orderRequest) toInput() CreateOrderInput {
	input := CreateOrderInput{
		RefNum:     req.RefNum,
		Vendor:     req.Vendor,
		Attachment: req.Attachment,
	}
	for _, line := range req.Items {
		input.Items = append(input.Items, OrderLineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return input
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filters := listFiltersFromQuery(r)
	orders, total, err := h.service.ListPurchaseOrders(r.Context(), filters)
	if err != nil {
		h.respondErr(w, r, "list purchase orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      toOrderResponses(orders),
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	order, err := h.service.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, "get purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	order, err := h.service.CreatePurchaseOrder(r.Context(), req.toInput())
	if err != nil {
		h.respondErr(w, r, "create purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req orderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	order, err := h.service.UpdatePurchaseOrder(r.Context(), id, req.toInput())
	if err != nil {
		h.respondErr(w, r, "update purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.DeletePurchaseOrder(r.Context(), id); err != nil {
		h.respondErr(w, r, "delete purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	filters := listFiltersFromQuery(r)
	activeView := r.URL.Query().Get("view") == "active"
	purchases, total, err := h.service.ListPurchases(r.Context(), filters, activeView)
	if err != nil {
		h.respondErr(w, r, "list purchases", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      toPurchaseResponses(purchases),
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	purchase, err := h.service.GetPurchase(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, "get purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	input, err := parseSubmitForm(r)
	if err != nil {
		h.respondErr(w, r, "parse purchase form", err)
		return
	}
	if name, err := h.saveInvoice(r); err != nil {
		h.respondErr(w, r, "save invoice", err)
		return
	} else if name != "" {
		input.InvoiceFile = name
	}
	purchase, err := h.service.CreatePurchase(r.Context(), input)
	if err != nil {
		h.respondErr(w, r, "create purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPurchaseResponse(purchase))
}

func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	input, err := parseSubmitForm(r)
	if err != nil {
		h.respondErr(w, r, "parse purchase form", err)
		return
	}
	if name, err := h.saveInvoice(r); err != nil {
		h.respondErr(w, r, "save invoice", err)
		return
	} else if name != "" {
		input.InvoiceFile = name
	}
	purchase, err := h.service.UpdatePurchase(r.Context(), id, input)
	if err != nil {
		h.respondErr(w, r, "update purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.DeletePurchase(r.Context(), id); err != nil {
		h.respondErr(w, r, "delete purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) cancelledItems(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.CancelledItems(r.Context())
	if err != nil {
		h.respondErr(w, r, "cancelled items report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// saveInvoice stores the uploaded invoice part under a fresh uuid name
// and returns the stored file name. Missing part is not an error.
func (h *Handler) saveInvoice(r *http.Request) (string, error) {
	file, header, err := r.FormFile(fieldInvoice)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: invalid invoice upload", ErrValidation)
	}
	defer file.Close()
	return h.storeUpload(file, header)
}

func (h *Handler) storeUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + filepath.Ext(header.Filename)
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return name, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicateRef):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrOrderLocked), errors.Is(err, ErrLineLocked):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// listFiltersFromQuery reads the common listing query parameters.
func listFiltersFromQuery(r *http.Request) ListFilters {
	q := r.URL.Query()
	state := shared.ListStateFromQuery(q, 10)
	return ListFilters{
		Search:        state.Search,
		Page:          state.Page,
		Limit:         state.PerPage,
		Deleted:       q.Get("deleted") == "true",
		AvailableOnly: q.Get("available") == "true",
	}
}
