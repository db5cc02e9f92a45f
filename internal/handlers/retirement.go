package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"carbonledger/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type retireRequest struct {
	UserID        string `json:"user_id"`
	CoinsToRetire string `json:"coins_to_retire"`
	Reason        string `json:"reason"`
	AutoConfirm   bool   `json:"auto_confirm"`
}

func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	var req retireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	coins, err := parseCoins(req.CoinsToRetire)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}

	result, err := h.retirement.Retire(r.Context(), services.RetireRequest{
		UserID:        req.UserID,
		CoinsToRetire: coins,
		Reason:        req.Reason,
		AutoConfirm:   req.AutoConfirm,
	})
	if err != nil {
		respondRetirementError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, retirementResultPayload(result))
}

func (h *Handler) ConfirmRetirement(w http.ResponseWriter, r *http.Request) {
	retirementID := chi.URLParam(r, "retirement_id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	result, err := h.retirement.Confirm(r.Context(), retirementID, userID)
	if err != nil {
		respondRetirementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, retirementResultPayload(result))
}

type retirementUpdateRequest struct {
	CoinsToRetire *string `json:"coins_to_retire"`
	Reason        *string `json:"reason"`
}

func (h *Handler) UpdateRetirement(w http.ResponseWriter, r *http.Request) {
	retirementID := chi.URLParam(r, "retirement_id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	var req retirementUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	var coins *decimal.Decimal
	if req.CoinsToRetire != nil {
		parsed, err := parseCoins(*req.CoinsToRetire)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		coins = &parsed
	}
	updated, err := h.retirement.Update(r.Context(), services.RetirementUpdateRequest{
		RetirementID:  retirementID,
		UserID:        userID,
		CoinsToRetire: coins,
		Reason:        req.Reason,
	})
	if err != nil {
		respondRetirementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) CancelRetirement(w http.ResponseWriter, r *http.Request) {
	retirementID := chi.URLParam(r, "retirement_id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.retirement.Cancel(r.Context(), retirementID, userID); err != nil {
		respondRetirementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"retirement_id": retirementID,
		"status":        "cancelled",
	})
}

func (h *Handler) RetirementDashboard(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	stats, err := h.retirement.DashboardStats(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) RetirementHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	limit := queryInt(r, "limit", 50, 200)
	history, err := h.retirement.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"retirements": history})
}

func (h *Handler) PendingRetirements(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	pending, err := h.retirement.Pending(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load pending retirements")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"retirements": pending})
}

func (h *Handler) RetirementCertificate(w http.ResponseWriter, r *http.Request) {
	retirementID := chi.URLParam(r, "retirement_id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	pdf, err := h.retirement.Certificate(r.Context(), retirementID, userID)
	if err != nil {
		respondRetirementError(w, err)
		return
	}
	respondPDF(w, "certificate-"+retirementID+".pdf", pdf)
}

func respondRetirementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrRetirementNotFound):
		respondError(w, http.StatusNotFound, "retirement_not_found")
	case errors.Is(err, services.ErrInvalidState):
		respondError(w, http.StatusBadRequest, "invalid_state")
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	default:
		respondError(w, http.StatusInternalServerError, "retirement_failed")
	}
}

func retirementResultPayload(result services.RetirementResult) map[string]any {
	payload := map[string]any{
		"retirement_id":        result.RetirementID,
		"status":               string(result.Status),
		"coins_retired":        result.CoinsRetired.String(),
		"co2_offset_tons":      result.CO2OffsetTons.String(),
		"remaining_user_coins": result.RemainingUserCoins.String(),
	}
	if result.CertificateNumber != nil {
		payload["certificate_number"] = *result.CertificateNumber
	}
	return payload
}
