package catalog_api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-vouchers/internal/catalog"
	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
	"ms-vouchers/internal/utils"
)

type Handler struct {
	Service *catalog.Service
	Logger  *logger.Logger
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListEvents(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: failed to encode response: %v", err))
	}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), req)
	if errors.Is(err, catalog.ErrInvalidEvent) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		http.Error(w, "failed to create event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("event created", event)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventId")

	err := h.Service.DeleteEvent(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: %v", err))
		http.Error(w, "failed to delete event", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("DeleteEvent: %s removed with cascade", id))
	w.WriteHeader(http.StatusNoContent)
}

// ListVoucherTypes feeds the scan UI's voucher choice for an event.
func (h *Handler) ListVoucherTypes(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}

	vouchers, err := h.Service.ListVoucherTypes(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListVoucherTypes: %v", err))
		http.Error(w, "failed to list voucher types", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(vouchers); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListVoucherTypes: failed to encode response: %v", err))
	}
}

func (h *Handler) CreateVoucherType(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVoucherTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	voucher, err := h.Service.CreateVoucherType(r.Context(), req)
	if errors.Is(err, catalog.ErrInvalidVoucher) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateVoucherType: %v", err))
		http.Error(w, "failed to create voucher type", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("voucher type created", voucher)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateVoucherType: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteVoucherType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "voucherTypeId")

	err := h.Service.DeleteVoucherType(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "voucher type not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteVoucherType: %v", err))
		http.Error(w, "failed to delete voucher type", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
