package report

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/procuredesk/procuredesk/internal/platform/httpx"
	"github.com/procuredesk/procuredesk/internal/rbac"
)

// snapshotMaxAge bounds how stale a warmed snapshot may be before an
// export falls back to a live query.
const snapshotMaxAge = 5 * time.Minute

// Handler manages report endpoints.
type Handler struct {
	exporter *Exporter
	logger   *slog.Logger
	rbac     rbac.Middleware
}

// NewHandler creates a report handler.
func NewHandler(exporter *Exporter, logger *slog.Logger, rbacMW rbac.Middleware) *Handler {
	return &Handler{exporter: exporter, logger: logger, rbac: rbacMW}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermReportsView))
		r.Get("/cancelled-items", h.cancelledJSON)
		r.Get("/cancelled-items.csv", h.cancelledCSV)
		r.Get("/cancelled-items.xlsx", h.cancelledXLSX)
	})
}

func (h *Handler) cancelledJSON(w http.ResponseWriter, r *http.Request) {
	rows, err := h.exporter.Rows(r.Context(), snapshotMaxAge)
	if err != nil {
		h.logger.Error("cancelled items report", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (h *Handler) cancelledCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.exporter.Rows(r.Context(), snapshotMaxAge)
	if err != nil {
		h.logger.Error("cancelled items csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="cancelled-items.csv"`)
	if err := h.exporter.WriteCSV(w, rows); err != nil {
		h.logger.Error("stream cancelled items csv", slog.Any("error", err))
	}
}

func (h *Handler) cancelledXLSX(w http.ResponseWriter, r *http.Request) {
	rows, err := h.exporter.Rows(r.Context(), snapshotMaxAge)
	if err != nil {
		h.logger.Error("cancelled items xlsx", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="cancelled-items.xlsx"`)
	if err := h.exporter.WriteXLSX(w, rows); err != nil {
		h.logger.Error("stream cancelled items xlsx", slog.Any("error", err))
	}
}
