package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/utils"
)

// Handler serves the admin login/logout pair. Login compares the
// password in constant time and sets the session cookie; logout clears
// it.
type Handler struct {
	AdminPassword string
	SessionSecret string
	SessionTTL    time.Duration
	Logger        *logger.Logger
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.AdminPassword)) != 1 {
		h.Logger.LogAuth("LOGIN_FAILED", "wrong admin password from "+r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(utils.ErrorResponse("login failed", "wrong password"))
		return
	}

	token, err := IssueSessionToken(h.SessionSecret, h.SessionTTL)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("failed to issue session token: %v", err))
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.SessionTTL),
	})

	h.Logger.Info("AUTH", "admin logged in")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.SuccessResponse("logged in", nil))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.SuccessResponse("logged out", nil))
}
