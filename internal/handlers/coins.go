package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"carbonledger/internal/calculator"
	"carbonledger/internal/models"
	"carbonledger/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type mintRequest struct {
	UserID              string  `json:"user_id"`
	CoinsToIssue        string  `json:"coins_to_issue"`
	SourceApplicationID string  `json:"source_application_id"`
	IssuerName          string  `json:"issuer_name"`
	Description         *string `json:"description"`
	CalculationMethod   *string `json:"calculation_method"`
	PricePerCoin        *string `json:"price_per_coin"`
}

func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" || req.SourceApplicationID == "" {
		respondError(w, http.StatusBadRequest, "user_id and source_application_id are required")
		return
	}
	coins, err := parseCoins(req.CoinsToIssue)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	price, err := parseOptionalCoins(req.PricePerCoin)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price_per_coin")
		return
	}

	result, err := h.minting.Mint(r.Context(), services.MintRequest{
		UserID:              req.UserID,
		CoinsToIssue:        coins,
		SourceApplicationID: req.SourceApplicationID,
		IssuerName:          req.IssuerName,
		Description:         req.Description,
		CalculationMethod:   req.CalculationMethod,
		PricePerCoin:        price,
	})
	if err != nil {
		respondMintError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mintResultPayload(result))
}

type mintFromApplicationRequest struct {
	UserID        string  `json:"user_id"`
	ApplicationID string  `json:"application_id"`
	IssuerName    string  `json:"issuer_name"`
	Description   *string `json:"description"`
	PricePerCoin  *string `json:"price_per_coin"`
}

func (h *Handler) MintFromApplication(w http.ResponseWriter, r *http.Request) {
	var req mintFromApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" || req.ApplicationID == "" {
		respondError(w, http.StatusBadRequest, "user_id and application_id are required")
		return
	}
	price, err := parseOptionalCoins(req.PricePerCoin)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price_per_coin")
		return
	}

	result, err := h.minting.MintFromApplication(r.Context(), req.UserID, req.ApplicationID, req.IssuerName, req.Description, price)
	if err != nil {
		respondMintError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mintResultPayload(result))
}

func (h *Handler) IssuanceHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	limit := queryInt(r, "limit", 50, 200)
	page := queryInt(r, "page", 1, 0)
	var sourceType *models.SourceType
	if raw := r.URL.Query().Get("source_type"); raw != "" {
		st := models.SourceType(raw)
		if !st.Valid() {
			respondError(w, http.StatusBadRequest, "invalid source_type")
			return
		}
		sourceType = &st
	}
	issuances, err := h.issuances.ListByUser(r.Context(), userID, sourceType, limit, (page-1)*limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load issuances")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"issuances": issuances})
}

func (h *Handler) IssuanceStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	stats, err := h.issuances.StatsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load issuance stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":           userID,
		"total_coins":       stats.TotalCoins.String(),
		"solar_coins":       stats.SolarCoins.String(),
		"forestation_coins": stats.ForestationCoins.String(),
		"total_issuances":   stats.TotalIssuances,
	})
}

func parseOptionalCoins(raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := parseCoins(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func respondMintError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		respondError(w, http.StatusNotFound, "application_not_found")
	case errors.Is(err, services.ErrApplicationNotApproved):
		respondError(w, http.StatusBadRequest, "application_not_approved")
	case errors.Is(err, services.ErrAlreadyMinted):
		respondError(w, http.StatusConflict, "already_minted")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, calculator.ErrUnsupportedProject):
		respondError(w, http.StatusBadRequest, "unsupported_project_type")
	default:
		respondError(w, http.StatusInternalServerError, "mint_failed")
	}
}

func mintResultPayload(result services.MintResult) map[string]any {
	return map[string]any{
		"issuance_id":  result.IssuanceID,
		"credit_id":    result.CreditID,
		"coins_issued": result.CoinsIssued.String(),
		"source_type":  string(result.SourceType),
		"issuer_name":  result.IssuerName,
	}
}
