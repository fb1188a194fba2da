package catalog

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fixpoint-erp/fixpoint/internal/masterdata/shared"
	"github.com/fixpoint-erp/fixpoint/internal/platform/httpx"
	internalshared "github.com/fixpoint-erp/fixpoint/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/catalog-items", h.list)
	r.Get("/catalog-items/{id}", h.get)
	r.Post("/catalog-items", h.create)
	r.Put("/catalog-items/{id}", h.update)
	r.Post("/catalog-items/{id}/active", h.setActive)
	r.Post("/catalog-items/{id}/provision", h.provision)
	r.Get("/legacy-parts", h.listLegacy)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := shared.FiltersFromQuery(r)
	items, total, err := h.service.List(r.Context(), httpx.ScopeFrom(r), filters)
	if err != nil {
		h.logger.Error("list catalog items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.ListResult[Item]{Items: items, Total: total, Page: filters.Page, Limit: filters.Limit})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	item, err := h.service.Get(r.Context(), httpx.ScopeFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("malformed request body: %w", internalshared.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Create(r.Context(), httpx.ScopeFrom(r), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("malformed request body: %w", internalshared.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Update(r.Context(), httpx.ScopeFrom(r), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var body struct {
		Active bool `json:"active"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, fmt.Errorf("malformed request body: %w", internalshared.ErrValidation))
		return
	}
	if err := h.service.SetActive(r.Context(), httpx.ScopeFrom(r), id, body.Active); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) provision(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var body struct {
		BranchID int64 `json:"branch_id" validate:"required,gt=0"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, fmt.Errorf("malformed request body: %w", internalshared.ErrValidation))
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inventoryID, err := h.service.Provision(r.Context(), httpx.ScopeFrom(r), id, body.BranchID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"inventory_id": inventoryID})
}

func (h *Handler) listLegacy(w http.ResponseWriter, r *http.Request) {
	parts, err := h.service.ListLegacyParts(r.Context(), httpx.ScopeFrom(r), r.URL.Query().Get("search"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, parts)
}
