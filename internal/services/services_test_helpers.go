package services

import (
	"context"
	"time"

	"carbonledger/internal/models"
	"carbonledger/internal/store"
	"carbonledger/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubWalletStore struct {
	createFn        func(ctx context.Context, tx store.Execer, id, userID string, seedCoins decimal.Decimal) error
	getByUserFn     func(ctx context.Context, userID string) (models.Wallet, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, userID string) (models.Wallet, error)
	updateBalanceFn func(ctx context.Context, tx store.Execer, userID string, totalCoins, availableCoins decimal.Decimal) error
}

func (s stubWalletStore) Create(ctx context.Context, tx store.Execer, id, userID string, seedCoins decimal.Decimal) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID, seedCoins)
}

func (s stubWalletStore) GetByUser(ctx context.Context, userID string) (models.Wallet, error) {
	if s.getByUserFn == nil {
		return models.Wallet{}, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubWalletStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.Wallet, error) {
	return s.getForUpdateFn(ctx, tx, userID)
}

func (s stubWalletStore) UpdateBalance(ctx context.Context, tx store.Execer, userID string, totalCoins, availableCoins decimal.Decimal) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, userID, totalCoins, availableCoins)
}

type stubCreditStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.CreditInput) error
	getForUpdateFn func(ctx context.Context, tx store.Getter, creditID string) (models.MarketplaceCredit, error)
	updateSupplyFn func(ctx context.Context, tx store.Execer, creditID string, remaining decimal.Decimal) error
}

func (s stubCreditStore) Create(ctx context.Context, tx store.Execer, input store.CreditInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubCreditStore) GetForUpdate(ctx context.Context, tx store.Getter, creditID string) (models.MarketplaceCredit, error) {
	return s.getForUpdateFn(ctx, tx, creditID)
}

func (s stubCreditStore) UpdateSupply(ctx context.Context, tx store.Execer, creditID string, remaining decimal.Decimal) error {
	if s.updateSupplyFn == nil {
		return nil
	}
	return s.updateSupplyFn(ctx, tx, creditID, remaining)
}

type stubTransactionStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	sumFn    func(ctx context.Context, userID string) (decimal.Decimal, error)
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransactionStore) SumPurchasedCredits(ctx context.Context, userID string) (decimal.Decimal, error) {
	if s.sumFn == nil {
		return decimal.Zero, nil
	}
	return s.sumFn(ctx, userID)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	calls []websocket.WalletUpdate
}

func (s *stubHub) BroadcastWallet(_ string, update websocket.WalletUpdate) {
	s.calls = append(s.calls, update)
}

type stubRetirementStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.RetirementInput) error
	getByIDFn       func(ctx context.Context, retirementID, userID string) (models.CreditRetirement, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, retirementID, userID string) (models.CreditRetirement, error)
	markCompletedFn func(ctx context.Context, tx store.Execer, retirementID, certificateNumber string, completedAt time.Time) error
	markCancelledFn func(ctx context.Context, tx store.Execer, retirementID string) error
	updatePendingFn func(ctx context.Context, tx store.Execer, retirementID string, coins, co2Tons decimal.Decimal, reason string) error
	statsFn         func(ctx context.Context, userID string) (store.RetirementStats, error)
}

func (s stubRetirementStore) Create(ctx context.Context, tx store.Execer, input store.RetirementInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubRetirementStore) GetByID(ctx context.Context, retirementID, userID string) (models.CreditRetirement, error) {
	return s.getByIDFn(ctx, retirementID, userID)
}

func (s stubRetirementStore) GetForUpdate(ctx context.Context, tx store.Getter, retirementID, userID string) (models.CreditRetirement, error) {
	return s.getForUpdateFn(ctx, tx, retirementID, userID)
}

func (s stubRetirementStore) MarkCompleted(ctx context.Context, tx store.Execer, retirementID, certificateNumber string, completedAt time.Time) error {
	if s.markCompletedFn == nil {
		return nil
	}
	return s.markCompletedFn(ctx, tx, retirementID, certificateNumber, completedAt)
}

func (s stubRetirementStore) MarkCancelled(ctx context.Context, tx store.Execer, retirementID string) error {
	if s.markCancelledFn == nil {
		return nil
	}
	return s.markCancelledFn(ctx, tx, retirementID)
}

func (s stubRetirementStore) UpdatePending(ctx context.Context, tx store.Execer, retirementID string, coins, co2Tons decimal.Decimal, reason string) error {
	if s.updatePendingFn == nil {
		return nil
	}
	return s.updatePendingFn(ctx, tx, retirementID, coins, co2Tons, reason)
}

func (s stubRetirementStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditRetirement, error) {
	return nil, nil
}

func (s stubRetirementStore) ListPending(ctx context.Context, userID string) ([]models.CreditRetirement, error) {
	return nil, nil
}

func (s stubRetirementStore) StatsByUser(ctx context.Context, userID string) (store.RetirementStats, error) {
	if s.statsFn == nil {
		return store.RetirementStats{}, nil
	}
	return s.statsFn(ctx, userID)
}

type stubRenderer struct {
	renderFn func(retirement models.CreditRetirement) ([]byte, error)
}

func (s stubRenderer) Render(retirement models.CreditRetirement) ([]byte, error) {
	if s.renderFn == nil {
		return []byte("pdf"), nil
	}
	return s.renderFn(retirement)
}

type stubIssuanceStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.IssuanceInput) error
}

func (s stubIssuanceStore) Create(ctx context.Context, tx store.Execer, input store.IssuanceInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

type stubApplicationStore struct {
	getFn func(ctx context.Context, applicationID, userID string) (models.ProjectApplication, error)
}

func (s stubApplicationStore) GetByIDAndUser(ctx context.Context, applicationID, userID string) (models.ProjectApplication, error) {
	return s.getFn(ctx, applicationID, userID)
}

type stubCalculator struct {
	coinAmountFn func(app models.ProjectApplication) (decimal.Decimal, string, error)
}

func (s stubCalculator) CoinAmount(app models.ProjectApplication) (decimal.Decimal, string, error) {
	return s.coinAmountFn(app)
}

type stubVerifiableCreditStore struct {
	getByIDFn         func(ctx context.Context, creditID string) (models.MarketplaceCredit, error)
	setVerificationFn func(ctx context.Context, tx store.Execer, creditID string, status models.VerificationStatus, verifiedAt time.Time) (int64, error)
}

func (s stubVerifiableCreditStore) GetByID(ctx context.Context, creditID string) (models.MarketplaceCredit, error) {
	return s.getByIDFn(ctx, creditID)
}

func (s stubVerifiableCreditStore) SetVerification(ctx context.Context, tx store.Execer, creditID string, status models.VerificationStatus, verifiedAt time.Time) (int64, error) {
	if s.setVerificationFn == nil {
		return 1, nil
	}
	return s.setVerificationFn(ctx, tx, creditID, status, verifiedAt)
}

func mustDecimal(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}
