package operator_api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
	operatordb "ms-vouchers/internal/operator/db"
	"ms-vouchers/internal/utils"
)

type Handler struct {
	DB     *operatordb.DB
	Logger *logger.Logger
}

// ListOperators is public: the scan UI needs the volunteer dropdown
// before anyone is logged in.
func (h *Handler) ListOperators(w http.ResponseWriter, r *http.Request) {
	ops, err := h.DB.ListOperators(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOperators: %v", err))
		http.Error(w, "failed to list operators", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ops); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOperators: failed to encode response: %v", err))
	}
}

func (h *Handler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "operator name is required", http.StatusBadRequest)
		return
	}

	op := models.Operator{ID: uuid.NewString(), Name: req.Name}
	if err := h.DB.CreateOperator(r.Context(), op); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOperator: %v", err))
		http.Error(w, "failed to create operator", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("operator created", op)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOperator: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "operatorId")

	err := h.DB.DeleteOperator(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "operator not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteOperator: %v", err))
		http.Error(w, "failed to delete operator", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
