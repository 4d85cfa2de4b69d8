package member_api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/membership"
	"ms-vouchers/internal/models"
	"ms-vouchers/internal/utils"
)

type Handler struct {
	Service *membership.Service
	Logger  *logger.Logger
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.ListMembers(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMembers: %v", err))
		http.Error(w, "failed to list members", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(members); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMembers: failed to encode response: %v", err))
	}
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	member, err := h.Service.CreateMember(r.Context(), req)
	if errors.Is(err, membership.ErrInvalidMember) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateMember: %v", err))
		http.Error(w, "failed to create member", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateMember: %s registered", member.ID))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	resp := models.CreateMemberResponse{ID: member.ID, Token: member.Token}
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("member created", resp)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateMember: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberId")

	err := h.Service.DeleteMember(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "member not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteMember: %v", err))
		http.Error(w, "failed to delete member", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("DeleteMember: %s removed with cascade", id))
	w.WriteHeader(http.StatusNoContent)
}

// Prolong overwrites a member's valid_until date.
func (h *Handler) Prolong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberId")

	var req models.ProlongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := h.Service.ExtendValidity(r.Context(), id, req.ValidUntil)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "member not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Prolong: %v", err))
		http.Error(w, "failed to extend validity", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("validity extended", req)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Prolong: failed to encode response: %v", err))
	}
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberId")

	err := h.Service.Deactivate(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "member not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Deactivate: %v", err))
		http.Error(w, "failed to deactivate member", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("member deactivated", nil)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Deactivate: failed to encode response: %v", err))
	}
}

// ExportCSV streams the member roll as a CSV download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)

	if err := h.Service.ExportCSV(r.Context(), w); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ExportCSV: %v", err))
	}
}
