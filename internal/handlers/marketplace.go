package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"carbonledger/internal/models"
	"carbonledger/internal/services"
	"carbonledger/internal/store"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListCredits(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 0)
	size := queryInt(r, "size", 20, 100)
	filter := store.CreditFilter{
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if raw := r.URL.Query().Get("verification_status"); raw != "" {
		status := models.VerificationStatus(raw)
		if status != models.VerificationPending && status != models.VerificationVerified && status != models.VerificationRejected {
			respondError(w, http.StatusBadRequest, "invalid verification_status")
			return
		}
		filter.VerificationStatus = &status
	}
	if raw := r.URL.Query().Get("source_type"); raw != "" {
		sourceType := models.SourceType(raw)
		if !sourceType.Valid() {
			respondError(w, http.StatusBadRequest, "invalid source_type")
			return
		}
		filter.SourceType = &sourceType
	}
	if raw := r.URL.Query().Get("issuer_id"); raw != "" {
		filter.IssuerID = &raw
	}

	credits, total, err := h.credits.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list credits")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"credits": credits,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}

func (h *Handler) GetCredit(w http.ResponseWriter, r *http.Request) {
	creditID := chi.URLParam(r, "id")
	credit, err := h.credits.GetByID(r.Context(), creditID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "credit_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load credit")
		return
	}
	respondJSON(w, http.StatusOK, credit)
}

type verificationRequest struct {
	ActorID string `json:"actor_id"`
}

func (h *Handler) VerifyCredit(w http.ResponseWriter, r *http.Request) {
	h.transitionCredit(w, r, h.marketplace.Verify)
}

func (h *Handler) RejectCredit(w http.ResponseWriter, r *http.Request) {
	h.transitionCredit(w, r, h.marketplace.Reject)
}

func (h *Handler) transitionCredit(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error)) {
	creditID := chi.URLParam(r, "id")
	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ActorID == "" {
		respondError(w, http.StatusBadRequest, "actor_id is required")
		return
	}
	credit, err := transition(r.Context(), creditID, req.ActorID)
	if err != nil {
		respondVerificationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, credit)
}

func (h *Handler) IssuerStats(w http.ResponseWriter, r *http.Request) {
	issuerID := chi.URLParam(r, "issuer_id")
	stats, err := h.credits.StatsByIssuer(r.Context(), issuerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load issuer stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"issuer_id":         issuerID,
		"total_batches":     stats.TotalBatches,
		"verified_batches":  stats.VerifiedBatches,
		"coins_outstanding": stats.CoinsOutstanding.String(),
	})
}

func respondVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCreditNotFound):
		respondError(w, http.StatusNotFound, "credit_not_found")
	case errors.Is(err, services.ErrInvalidState):
		respondError(w, http.StatusBadRequest, "invalid_state")
	default:
		respondError(w, http.StatusInternalServerError, "verification_failed")
	}
}
