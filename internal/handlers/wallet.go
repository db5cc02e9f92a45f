package handlers

import (
	"net/http"

	"carbonledger/internal/websocket"

	"github.com/go-chi/chi/v5"
)

// GetWallet returns the user's wallet, creating it with the seed balance
// on first access. GET and POST behave identically.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	wallet, err := h.purchase.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load wallet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":         wallet.UserID,
		"total_coins":     wallet.TotalCoins.String(),
		"available_coins": wallet.AvailableCoins.String(),
		"updated_at":      wallet.UpdatedAt,
	})
}

func (h *Handler) WSWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	websocket.ServeWS(w, r, h.hub, userID)
}
