package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"carbonledger/internal/config"
	"carbonledger/internal/models"
	"carbonledger/internal/services"
	"carbonledger/internal/store"
	"carbonledger/internal/websocket"

	"github.com/shopspring/decimal"
)

type stubCreditStore struct {
	getByIDFn       func(ctx context.Context, creditID string) (models.MarketplaceCredit, error)
	listFn          func(ctx context.Context, filter store.CreditFilter) ([]models.MarketplaceCredit, int, error)
	statsByIssuerFn func(ctx context.Context, issuerID string) (store.IssuerStats, error)
}

func (s stubCreditStore) GetByID(ctx context.Context, creditID string) (models.MarketplaceCredit, error) {
	if s.getByIDFn == nil {
		return models.MarketplaceCredit{}, nil
	}
	return s.getByIDFn(ctx, creditID)
}

func (s stubCreditStore) List(ctx context.Context, filter store.CreditFilter) ([]models.MarketplaceCredit, int, error) {
	if s.listFn == nil {
		return nil, 0, nil
	}
	return s.listFn(ctx, filter)
}

func (s stubCreditStore) StatsByIssuer(ctx context.Context, issuerID string) (store.IssuerStats, error) {
	if s.statsByIssuerFn == nil {
		return store.IssuerStats{}, nil
	}
	return s.statsByIssuerFn(ctx, issuerID)
}

type stubIssuanceStore struct {
	listByUserFn  func(ctx context.Context, userID string, sourceType *models.SourceType, limit, offset int) ([]models.Issuance, error)
	statsByUserFn func(ctx context.Context, userID string) (store.IssuanceStats, error)
}

func (s stubIssuanceStore) ListByUser(ctx context.Context, userID string, sourceType *models.SourceType, limit, offset int) ([]models.Issuance, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, sourceType, limit, offset)
}

func (s stubIssuanceStore) StatsByUser(ctx context.Context, userID string) (store.IssuanceStats, error) {
	if s.statsByUserFn == nil {
		return store.IssuanceStats{}, nil
	}
	return s.statsByUserFn(ctx, userID)
}

type stubTransactionStore struct {
	listByUserFn func(ctx context.Context, userID, txType string, limit, offset int) ([]models.CreditTransaction, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.CreditTransaction, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

type stubPurchaseService struct {
	purchaseFn func(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error)
	walletFn   func(ctx context.Context, userID string) (models.Wallet, error)
}

func (s stubPurchaseService) Purchase(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error) {
	if s.purchaseFn == nil {
		return services.PurchaseResult{}, nil
	}
	return s.purchaseFn(ctx, req)
}

func (s stubPurchaseService) GetOrCreateWallet(ctx context.Context, userID string) (models.Wallet, error) {
	if s.walletFn == nil {
		return models.Wallet{}, nil
	}
	return s.walletFn(ctx, userID)
}

type stubRetirementService struct {
	retireFn      func(ctx context.Context, req services.RetireRequest) (services.RetirementResult, error)
	confirmFn     func(ctx context.Context, retirementID, userID string) (services.RetirementResult, error)
	updateFn      func(ctx context.Context, req services.RetirementUpdateRequest) (models.CreditRetirement, error)
	cancelFn      func(ctx context.Context, retirementID, userID string) error
	dashboardFn   func(ctx context.Context, userID string) (services.DashboardStats, error)
	historyFn     func(ctx context.Context, userID string, limit int) ([]models.CreditRetirement, error)
	pendingFn     func(ctx context.Context, userID string) ([]models.CreditRetirement, error)
	certificateFn func(ctx context.Context, retirementID, userID string) ([]byte, error)
}

func (s stubRetirementService) Retire(ctx context.Context, req services.RetireRequest) (services.RetirementResult, error) {
	if s.retireFn == nil {
		return services.RetirementResult{}, nil
	}
	return s.retireFn(ctx, req)
}

func (s stubRetirementService) Confirm(ctx context.Context, retirementID, userID string) (services.RetirementResult, error) {
	if s.confirmFn == nil {
		return services.RetirementResult{}, nil
	}
	return s.confirmFn(ctx, retirementID, userID)
}

func (s stubRetirementService) Update(ctx context.Context, req services.RetirementUpdateRequest) (models.CreditRetirement, error) {
	if s.updateFn == nil {
		return models.CreditRetirement{}, nil
	}
	return s.updateFn(ctx, req)
}

func (s stubRetirementService) Cancel(ctx context.Context, retirementID, userID string) error {
	if s.cancelFn == nil {
		return nil
	}
	return s.cancelFn(ctx, retirementID, userID)
}

func (s stubRetirementService) DashboardStats(ctx context.Context, userID string) (services.DashboardStats, error) {
	if s.dashboardFn == nil {
		return services.DashboardStats{}, nil
	}
	return s.dashboardFn(ctx, userID)
}

func (s stubRetirementService) History(ctx context.Context, userID string, limit int) ([]models.CreditRetirement, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, userID, limit)
}

func (s stubRetirementService) Pending(ctx context.Context, userID string) ([]models.CreditRetirement, error) {
	if s.pendingFn == nil {
		return nil, nil
	}
	return s.pendingFn(ctx, userID)
}

func (s stubRetirementService) Certificate(ctx context.Context, retirementID, userID string) ([]byte, error) {
	if s.certificateFn == nil {
		return []byte("pdf"), nil
	}
	return s.certificateFn(ctx, retirementID, userID)
}

type stubMintingService struct {
	mintFn     func(ctx context.Context, req services.MintRequest) (services.MintResult, error)
	mintFromFn func(ctx context.Context, userID, applicationID, issuerName string, description *string, pricePerCoin *decimal.Decimal) (services.MintResult, error)
}

func (s stubMintingService) Mint(ctx context.Context, req services.MintRequest) (services.MintResult, error) {
	if s.mintFn == nil {
		return services.MintResult{}, nil
	}
	return s.mintFn(ctx, req)
}

func (s stubMintingService) MintFromApplication(ctx context.Context, userID, applicationID, issuerName string, description *string, pricePerCoin *decimal.Decimal) (services.MintResult, error) {
	if s.mintFromFn == nil {
		return services.MintResult{}, nil
	}
	return s.mintFromFn(ctx, userID, applicationID, issuerName, description, pricePerCoin)
}

type stubMarketplaceService struct {
	verifyFn func(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error)
	rejectFn func(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error)
}

func (s stubMarketplaceService) Verify(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error) {
	if s.verifyFn == nil {
		return models.MarketplaceCredit{}, nil
	}
	return s.verifyFn(ctx, creditID, actorID)
}

func (s stubMarketplaceService) Reject(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error) {
	if s.rejectFn == nil {
		return models.MarketplaceCredit{}, nil
	}
	return s.rejectFn(ctx, creditID, actorID)
}

func newTestHandler(credits CreditStore, issuances IssuanceStore, transactions TransactionStore, purchase PurchaseService, retirement RetirementService, minting MintingService, marketplace MarketplaceService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		AllowedOrigins: "*",
	}
	return New(cfg, credits, issuances, transactions, purchase, retirement, minting, marketplace, websocket.NewHub())
}

func serveRequest(t *testing.T, handler *Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	return rr
}
