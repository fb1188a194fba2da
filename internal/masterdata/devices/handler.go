package devices

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

// MountRoutes registers device routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/devices", h.list)
	r.Get("/devices/by-serial", h.findBySerial)
	r.Get("/devices/{id}", h.get)
	r.Post("/devices", h.create)
	r.Put("/devices/{id}", h.update)
	r.Post("/devices/{id}/active", h.setActive)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := shared.FiltersFromQuery(r)
	items, total, err := h.service.List(r.Context(), httpx.ScopeFrom(r), filters)
	if err != nil {
		h.logger.Error("list devices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.ListResult[Device]{Items: items, Total: total, Page: filters.Page, Limit: filters.Limit})
}

func (h *Handler) findBySerial(w http.ResponseWriter, r *http.Request) {
	device, err := h.service.FindBySerial(r.Context(), httpx.ScopeFrom(r), r.URL.Query().Get("serial"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	device, err := h.service.Get(r.Context(), httpx.ScopeFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input DeviceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("malformed request body: %w", internalshared.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	device, err := h.service.Create(r.Context(), httpx.ScopeFrom(r), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, device)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var input DeviceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("malformed request body: %w", internalshared.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	device, err := h.service.Update(r.Context(), httpx.ScopeFrom(r), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
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
