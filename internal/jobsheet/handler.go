package jobsheet

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fixpoint-erp/fixpoint/internal/platform/httpx"
)

// Handler serves stored job sheets.
type Handler struct {
	service *Service
}

// NewHandler builds Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers job-sheet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tickets/{id}/job-sheet", h.fetch)
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	pdf, err := h.service.Fetch(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="job-sheet.pdf"`)
	_, _ = w.Write(pdf)
}
