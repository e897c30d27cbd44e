package recyclebin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/procuredesk/procuredesk/internal/platform/httpx"
	"github.com/procuredesk/procuredesk/internal/purchasing"
	"github.com/procuredesk/procuredesk/internal/rbac"
	"github.com/procuredesk/procuredesk/internal/sales"
)

// Handler exposes the recycle bin endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers recycle bin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermRecycleView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermRecycleRestore))
		r.Post("/{entity}/{id}/restore", h.restore)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	contents, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list recycle bin", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, contents)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	entity := EntityType(chi.URLParam(r, "entity"))
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	err := h.service.Restore(r.Context(), entity, id)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]any{"restored": true})
	case errors.Is(err, ErrUnknownEntity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, purchasing.ErrNotFound), errors.Is(err, sales.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("restore from recycle bin", slog.Any("error", err), slog.String("entity", string(entity)), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
