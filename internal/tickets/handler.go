package tickets

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fixpoint-erp/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// Handler exposes the ticket lifecycle over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers ticket routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tickets", h.createTicket)
	r.Get("/tickets/{id}", h.getTicket)
	r.Patch("/tickets/{id}", h.updateTicket)
	r.Delete("/tickets/{id}", h.deleteTicket)

	r.Post("/tickets/{id}/status", h.changeStatus)
	r.Post("/tickets/{id}/assign", h.assignTechnician)
	r.Post("/tickets/{id}/faults", h.addFault)
	r.Post("/tickets/{id}/notes", h.addNote)
	r.Post("/tickets/{id}/payments", h.addPayments)
	r.Post("/tickets/{id}/refund", h.processRefund)
	r.Post("/tickets/{id}/device-return", h.deviceReturn)

	r.Post("/tickets/{id}/parts", h.addPart)
	r.Patch("/parts/{partID}", h.updatePart)
	r.Delete("/parts/{partID}", h.removePart)
	r.Post("/parts/{partID}/approve", h.approvePart)
	r.Post("/parts/{partID}/approve-warranty", h.approveWarranty)

	r.Get("/devices/{deviceID}/previous-services", h.checkPrevious)
	r.Get("/devices/{deviceID}/active-services", h.checkActive)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, shared.ErrValidation)
	}
	return id, nil
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return fmt.Errorf("malformed request body: %w", shared.ErrValidation)
	}
	return h.validate.Struct(target)
}

func (h *Handler) createTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.CreateTicket(r.Context(), httpx.ScopeFrom(r), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) getTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ticket, err := h.service.Get(r.Context(), httpx.ScopeFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) updateTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateTicketRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ticket, err := h.service.UpdateTicket(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) deleteTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actorID, _ := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
	if actorID <= 0 {
		httpx.RespondError(w, fmt.Errorf("actor_id required: %w", shared.ErrValidation))
		return
	}
	if err := h.service.DeleteTicket(r.Context(), httpx.ScopeFrom(r), id, actorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ChangeStatusRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ticket, err := h.service.ChangeStatus(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) assignTechnician(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AssignRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ticket, err := h.service.AssignTechnician(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) addFault(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AddFaultRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ticket, err := h.service.AddFault(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req NoteRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	note, err := h.service.AddNote(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, note)
}

func (h *Handler) addPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req struct {
		Payments []PaymentRequest `json:"payments" validate:"required,min=1,dive"`
	}
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.AddPayments(r.Context(), httpx.ScopeFrom(r), id, req.Payments)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entries)
}

func (h *Handler) processRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RefundRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ticket, err := h.service.ProcessRefund(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) deviceReturn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req DeviceReturnRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ticket, err := h.service.SetDeviceReturned(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) addPart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AddPartRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	part, err := h.service.AddPart(r.Context(), httpx.ScopeFrom(r), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, part)
}

func (h *Handler) updatePart(w http.ResponseWriter, r *http.Request) {
	partID, err := pathID(r, "partID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdatePartRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	part, err := h.service.UpdatePart(r.Context(), httpx.ScopeFrom(r), partID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, part)
}

func (h *Handler) removePart(w http.ResponseWriter, r *http.Request) {
	partID, err := pathID(r, "partID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actorID, _ := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
	if actorID <= 0 {
		httpx.RespondError(w, fmt.Errorf("actor_id required: %w", shared.ErrValidation))
		return
	}
	if err := h.service.RemovePart(r.Context(), httpx.ScopeFrom(r), partID, actorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approvePart(w http.ResponseWriter, r *http.Request) {
	partID, err := pathID(r, "partID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ApprovePartRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	part, err := h.service.ApprovePart(r.Context(), httpx.ScopeFrom(r), partID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, part)
}

func (h *Handler) approveWarranty(w http.ResponseWriter, r *http.Request) {
	partID, err := pathID(r, "partID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ApproveWarrantyRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	part, err := h.service.ApprovePartForWarranty(r.Context(), httpx.ScopeFrom(r), partID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, part)
}

func (h *Handler) checkPrevious(w http.ResponseWriter, r *http.Request) {
	deviceID, err := pathID(r, "deviceID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	req := CheckServicesRequest{DeviceID: deviceID}
	for _, raw := range r.URL.Query()["fault_id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, fmt.Errorf("invalid fault_id %q: %w", raw, shared.ErrValidation))
			return
		}
		req.FaultIDs = append(req.FaultIDs, id)
	}
	report, err := h.service.CheckPreviousServices(r.Context(), httpx.ScopeFrom(r), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) checkActive(w http.ResponseWriter, r *http.Request) {
	deviceID, err := pathID(r, "deviceID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.CheckActiveServices(r.Context(), httpx.ScopeFrom(r), CheckServicesRequest{DeviceID: deviceID})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
