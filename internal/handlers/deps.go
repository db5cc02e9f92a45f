package handlers

import (
	"context"

	"carbonledger/internal/models"
	"carbonledger/internal/services"
	"carbonledger/internal/store"

	"github.com/shopspring/decimal"
)

type CreditStore interface {
	GetByID(ctx context.Context, creditID string) (models.MarketplaceCredit, error)
	List(ctx context.Context, filter store.CreditFilter) ([]models.MarketplaceCredit, int, error)
	StatsByIssuer(ctx context.Context, issuerID string) (store.IssuerStats, error)
}

type IssuanceStore interface {
	ListByUser(ctx context.Context, userID string, sourceType *models.SourceType, limit, offset int) ([]models.Issuance, error)
	StatsByUser(ctx context.Context, userID string) (store.IssuanceStats, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.CreditTransaction, error)
}

type PurchaseService interface {
	Purchase(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error)
	GetOrCreateWallet(ctx context.Context, userID string) (models.Wallet, error)
}

type RetirementService interface {
	Retire(ctx context.Context, req services.RetireRequest) (services.RetirementResult, error)
	Confirm(ctx context.Context, retirementID, userID string) (services.RetirementResult, error)
	Update(ctx context.Context, req services.RetirementUpdateRequest) (models.CreditRetirement, error)
	Cancel(ctx context.Context, retirementID, userID string) error
	DashboardStats(ctx context.Context, userID string) (services.DashboardStats, error)
	History(ctx context.Context, userID string, limit int) ([]models.CreditRetirement, error)
	Pending(ctx context.Context, userID string) ([]models.CreditRetirement, error)
	Certificate(ctx context.Context, retirementID, userID string) ([]byte, error)
}

type MintingService interface {
	Mint(ctx context.Context, req services.MintRequest) (services.MintResult, error)
	MintFromApplication(ctx context.Context, userID, applicationID, issuerName string, description *string, pricePerCoin *decimal.Decimal) (services.MintResult, error)
}

type MarketplaceService interface {
	Verify(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error)
	Reject(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error)
}
