package handlers

import (
	"net/http"

	"carbonledger/internal/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	limit := queryInt(r, "limit", 50, 200)
	page := queryInt(r, "page", 1, 0)
	txType := r.URL.Query().Get("type")
	if txType != "" {
		switch models.TransactionType(txType) {
		case models.TransactionPurchase, models.TransactionMint, models.TransactionTransfer, models.TransactionRetirement:
		default:
			respondError(w, http.StatusBadRequest, "invalid transaction type")
			return
		}
	}
	transactions, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, (page-1)*limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"page":         page,
		"limit":        limit,
	})
}
