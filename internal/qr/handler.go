package qr

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-vouchers/internal/logger"
)

type Handler struct {
	Logger *logger.Logger
}

// ServeTokenImage writes the QR PNG for a token. Mounted twice: on the
// admin group (member management screen) and publicly (a member showing
// their own code from a link).
func (h *Handler) ServeTokenImage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	png, err := Render(token)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ServeTokenImage: render failed: %v", err))
		http.Error(w, "failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ServeTokenImage: write failed: %v", err))
	}
}
