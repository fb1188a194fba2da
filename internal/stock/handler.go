package stock

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fixpoint-erp/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// Handler exposes inventory counters and the movement log over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inventory/{id}", h.getInventory)
	r.Get("/inventory/{id}/movements", h.listMovements)
	r.Post("/inventory/{id}/adjust", h.adjust)
}

type adjustRequest struct {
	Delta   int64  `json:"delta" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=CONSUME RESTORE RECEIVE ADJUST"`
	Note    string `json:"note,omitempty" validate:"omitempty,max=500"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	inv, err := h.service.GetInventory(r.Context(), httpx.ScopeFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	filter := MovementFilter{InventoryID: id}
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("invalid from timestamp: %w", shared.ErrValidation))
			return
		}
		filter.From = ts
	}
	if raw := q.Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("invalid to timestamp: %w", shared.ErrValidation))
			return
		}
		filter.To = ts
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	movements, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("malformed request body: %w", shared.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	movement, err := h.service.Adjust(r.Context(), httpx.ScopeFrom(r), AdjustInput{
		InventoryID: id,
		Delta:       req.Delta,
		Type:        MovementType(req.Type),
		Note:        req.Note,
		ActorID:     req.ActorID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}
