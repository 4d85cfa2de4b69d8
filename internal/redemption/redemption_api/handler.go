package redemption_api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
	"ms-vouchers/internal/redemption"
)

type Handler struct {
	Service *redemption.Service
	Logger  *logger.Logger
}

type redeemResponse struct {
	Success    bool                 `json:"success"`
	Member     *models.RedeemResult `json:"member,omitempty"`
	Error      string               `json:"error,omitempty"`
	RedeemedBy string               `json:"redeemed_by,omitempty"`
	RedeemedAt string               `json:"redeemed_at,omitempty"`
}

// Redeem handles the scan endpoint. Every denial reason maps to its own
// status code so the scan UI can color the outcome without parsing text.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req models.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, redeemResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Token == "" || req.EventID == "" || req.Operator == "" {
		h.writeJSON(w, http.StatusBadRequest, redeemResponse{Error: "token, event_id and volunteer are required"})
		return
	}

	result, err := h.Service.Redeem(r.Context(), req)
	if err != nil {
		h.writeDenial(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Redeem: granted %q to %q by %s", result.VoucherName, result.MemberName, req.Operator))
	h.writeJSON(w, http.StatusOK, redeemResponse{Success: true, Member: result})
}

func (h *Handler) writeDenial(w http.ResponseWriter, err error) {
	var expired *redemption.MembershipExpiredError
	var quota *redemption.QuotaExceededError

	switch {
	case errors.Is(err, redemption.ErrUnknownToken):
		h.writeJSON(w, http.StatusNotFound, redeemResponse{Error: "member token not found"})
	case errors.Is(err, redemption.ErrUnknownEvent):
		h.writeJSON(w, http.StatusNotFound, redeemResponse{Error: "event not found"})
	case errors.Is(err, redemption.ErrUnknownVoucherType):
		h.writeJSON(w, http.StatusNotFound, redeemResponse{Error: "voucher type not found"})
	case errors.As(err, &expired):
		h.writeJSON(w, http.StatusForbidden, redeemResponse{Error: fmt.Sprintf("membership expired on %s", expired.ValidUntil)})
	case errors.Is(err, redemption.ErrMembershipInactive):
		h.writeJSON(w, http.StatusForbidden, redeemResponse{Error: "membership inactive"})
	case errors.As(err, &quota):
		h.writeJSON(w, http.StatusConflict, redeemResponse{
			Error:      "already redeemed",
			RedeemedBy: quota.LastOperator,
			RedeemedAt: quota.LastRedeemedAt.Format(time.RFC3339),
		})
	default:
		h.Logger.Error("API", fmt.Sprintf("Redeem: store failure: %v", err))
		h.writeJSON(w, http.StatusServiceUnavailable, redeemResponse{Error: "store unavailable, retry"})
	}
}

// ListRedemptions serves the admin audit trail, optionally filtered by
// event via ?event_id=.
func (h *Handler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")

	entries, err := h.Service.ListRedemptions(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRedemptions: %v", err))
		http.Error(w, "failed to list redemptions", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRedemptions: failed to encode response: %v", err))
	}
}

// DeleteRedemption is the admin correction endpoint for a mistaken scan.
func (h *Handler) DeleteRedemption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "redemptionId")

	err := h.Service.DeleteRedemption(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "redemption not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteRedemption: %v", err))
		http.Error(w, "failed to delete redemption", http.StatusServiceUnavailable)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("DeleteRedemption: %s removed", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body redeemResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}
