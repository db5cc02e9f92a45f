package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"carbonledger/internal/models"
	"carbonledger/internal/services"
	"carbonledger/internal/store"

	"github.com/shopspring/decimal"
)

func TestListCreditsAppliesFilters(t *testing.T) {
	handler := newTestHandler(stubCreditStore{
		listFn: func(_ context.Context, filter store.CreditFilter) ([]models.MarketplaceCredit, int, error) {
			if filter.VerificationStatus == nil || *filter.VerificationStatus != models.VerificationVerified {
				t.Fatalf("unexpected status filter: %#v", filter.VerificationStatus)
			}
			if filter.SourceType == nil || *filter.SourceType != models.SourceSolarPanel {
				t.Fatalf("unexpected source filter: %#v", filter.SourceType)
			}
			if filter.Limit != 10 || filter.Offset != 10 {
				t.Fatalf("unexpected paging: %#v", filter)
			}
			return []models.MarketplaceCredit{{ID: "credit-1"}}, 11, nil
		},
	}, stubIssuanceStore{}, stubTransactionStore{}, stubPurchaseService{}, stubRetirementService{}, stubMintingService{}, stubMarketplaceService{})

	rr := serveRequest(t, handler, http.MethodGet, "/marketplace/credits?page=2&size=10&verification_status=verified&source_type=solar_panel", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["total"] != float64(11) || payload["page"] != float64(2) {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestListCreditsRejectsUnknownStatus(t *testing.T) {
	handler := newTestHandler(stubCreditStore{}, stubIssuanceStore{}, stubTransactionStore{}, stubPurchaseService{}, stubRetirementService{}, stubMintingService{}, stubMarketplaceService{})
	rr := serveRequest(t, handler, http.MethodGet, "/marketplace/credits?verification_status=bogus", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetCreditNotFound(t *testing.T) {
	handler := newTestHandler(stubCreditStore{
		getByIDFn: func(context.Context, string) (models.MarketplaceCredit, error) {
			return models.MarketplaceCredit{}, sql.ErrNoRows
		},
	}, stubIssuanceStore{}, stubTransactionStore{}, stubPurchaseService{}, stubRetirementService{}, stubMintingService{}, stubMarketplaceService{})

	rr := serveRequest(t, handler, http.MethodGet, "/marketplace/credits/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestVerifyCredit(t *testing.T) {
	handler := newTestHandler(stubCreditStore{}, stubIssuanceStore{}, stubTransactionStore{}, stubPurchaseService{}, stubRetirementService{}, stubMintingService{}, stubMarketplaceService{
		verifyFn: func(_ context.Context, creditID, actorID string) (models.MarketplaceCredit, error) {
			if creditID != "credit-1" || actorID != "admin-1" {
				t.Fatalf("unexpected args: %s %s", creditID, actorID)
			}
			return models.MarketplaceCredit{ID: "credit-1", VerificationStatus: models.VerificationVerified}, nil
		},
	})

	body := []byte(`{"actor_id":"admin-1"}`)
	rr := serveRequest(t, handler, http.MethodPost, "/marketplace/credits/credit-1/verify", bytes.NewReader(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRejectCreditInvalidState(t *testing.T) {
	handler := newTestHandler(stubCreditStore{}, stubIssuanceStore{}, stubTransactionStore{}, stubPurchaseService{}, stubRetirementService{}, stubMintingService{}, stubMarketplaceService{
		rejectFn: func(context.Context, string, string) (models.MarketplaceCredit, error) {
			return models.MarketplaceCredit{}, services.ErrInvalidState
		},
	})

	body := []byte(`{"actor_id":"admin-1"}`)
	rr := serveRequest(t, handler, http.MethodPost, "/marketplace/credits/credit-1/reject", bytes.NewReader(body))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestIssuerStats(t *testing.T) {
	handler := newTestHandler(stubCreditStore{
		statsByIssuerFn: func(_ context.Context, issuerID string) (store.IssuerStats, error) {
			if issuerID != "user-1" {
				t.Fatalf("unexpected issuer: %s", issuerID)
			}
			return store.IssuerStats{
				TotalBatches:     3,
				VerifiedBatches:  2,
				CoinsOutstanding: decimal.RequireFromString("150"),
			}, nil
		},
	}, stubIssuanceStore{}, stubTransactionStore{}, stubPurchaseService{}, stubRetirementService{}, stubMintingService{}, stubMarketplaceService{})

	rr := serveRequest(t, handler, http.MethodGet, "/marketplace/issuers/user-1/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["coins_outstanding"] != "150" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}
