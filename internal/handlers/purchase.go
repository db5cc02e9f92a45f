package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"carbonledger/internal/services"
)

type purchaseRequest struct {
	UserID            string `json:"user_id"`
	CreditID          string `json:"credit_id"`
	CreditsToPurchase string `json:"credits_to_purchase"`
	CoinCost          string `json:"coin_cost"`
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" || req.CreditID == "" {
		respondError(w, http.StatusBadRequest, "user_id and credit_id are required")
		return
	}
	credits, err := parseCoins(req.CreditsToPurchase)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	cost, err := parseCoins(req.CoinCost)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}

	result, err := h.purchase.Purchase(r.Context(), services.PurchaseRequest{
		UserID:            req.UserID,
		CreditID:          req.CreditID,
		CreditsToPurchase: credits,
		CoinCost:          cost,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCreditNotFound):
			respondError(w, http.StatusNotFound, "credit_not_found")
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusBadRequest, "insufficient_funds")
		case errors.Is(err, services.ErrInsufficientSupply):
			respondError(w, http.StatusBadRequest, "insufficient_supply")
		case errors.Is(err, services.ErrCostMismatch):
			respondError(w, http.StatusBadRequest, "cost_mismatch")
		case errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "invalid_amount")
		default:
			respondError(w, http.StatusInternalServerError, "purchase_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"transaction_id":       result.TransactionID,
		"credits_purchased":    result.CreditsPurchased.String(),
		"coins_spent":          result.CoinsSpent.String(),
		"remaining_user_coins": result.RemainingUserCoins.String(),
		"remaining_credits":    result.RemainingCredits.String(),
	})
}
