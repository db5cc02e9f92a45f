package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"carbonledger/internal/db"
	"carbonledger/internal/models"
	"carbonledger/internal/store"
	"carbonledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrCreditNotFound         = errors.New("marketplace credit not found")
	ErrInsufficientSupply     = errors.New("insufficient credit supply")
	ErrCostMismatch           = errors.New("coin cost does not match batch price")
	ErrRetirementNotFound     = errors.New("retirement not found")
	ErrInvalidState           = errors.New("operation not valid in current state")
	ErrApplicationNotFound    = errors.New("source application not found")
	ErrApplicationNotApproved = errors.New("source application not approved")
	ErrAlreadyMinted          = errors.New("application already minted")
)

type WalletStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID string, seedCoins decimal.Decimal) error
	GetByUser(ctx context.Context, userID string) (models.Wallet, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, userID string, totalCoins, availableCoins decimal.Decimal) error
}

type CreditStore interface {
	Create(ctx context.Context, tx store.Execer, input store.CreditInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, creditID string) (models.MarketplaceCredit, error)
	UpdateSupply(ctx context.Context, tx store.Execer, creditID string, remaining decimal.Decimal) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	SumPurchasedCredits(ctx context.Context, userID string) (decimal.Decimal, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type WalletHub interface {
	BroadcastWallet(userID string, update websocket.WalletUpdate)
}

type PurchaseService struct {
	txRunner  db.TxRunner
	wallets   WalletStore
	credits   CreditStore
	txStore   TransactionStore
	audit     AuditStore
	hub       WalletHub
	seedCoins decimal.Decimal
}

func NewPurchaseService(txRunner db.TxRunner, wallets WalletStore, credits CreditStore, txStore TransactionStore, audit AuditStore, hub WalletHub, seedCoins decimal.Decimal) *PurchaseService {
	return &PurchaseService{
		txRunner:  txRunner,
		wallets:   wallets,
		credits:   credits,
		txStore:   txStore,
		audit:     audit,
		hub:       hub,
		seedCoins: seedCoins,
	}
}

type PurchaseRequest struct {
	UserID            string
	CreditID          string
	CreditsToPurchase decimal.Decimal
	CoinCost          decimal.Decimal
}

type PurchaseResult struct {
	TransactionID      string
	CreditsPurchased   decimal.Decimal
	CoinsSpent         decimal.Decimal
	RemainingUserCoins decimal.Decimal
	RemainingCredits   decimal.Decimal
}

// Purchase debits the buyer's wallet and decrements the batch supply in
// one transaction, with both rows locked for the duration. Either every
// effect lands or none do.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	if !req.CreditsToPurchase.IsPositive() || !req.CoinCost.IsPositive() {
		return PurchaseResult{}, ErrInvalidAmount
	}
	var result PurchaseResult
	var walletAfter models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.lockOrCreateWallet(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if wallet.AvailableCoins.LessThan(req.CoinCost) {
			return ErrInsufficientFunds
		}
		credit, err := s.credits.GetForUpdate(ctx, tx, req.CreditID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCreditNotFound
			}
			return err
		}
		if credit.CoinsIssued.LessThan(req.CreditsToPurchase) {
			return ErrInsufficientSupply
		}
		if credit.PricePerCoin != nil {
			expected := req.CreditsToPurchase.Mul(*credit.PricePerCoin)
			if !req.CoinCost.Equal(expected) {
				return ErrCostMismatch
			}
		}

		newAvailable := wallet.AvailableCoins.Sub(req.CoinCost)
		if err := s.wallets.UpdateBalance(ctx, tx, req.UserID, wallet.TotalCoins, newAvailable); err != nil {
			return err
		}
		remaining := credit.CoinsIssued.Sub(req.CreditsToPurchase)
		if err := s.credits.UpdateSupply(ctx, tx, req.CreditID, remaining); err != nil {
			return err
		}

		transactionID := uuid.NewString()
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:              transactionID,
			UserID:          req.UserID,
			CreditID:        &req.CreditID,
			CreditsAmount:   req.CreditsToPurchase,
			CoinsAmount:     req.CoinCost,
			TransactionType: models.TransactionPurchase,
			Status:          models.TransactionStatusCompleted,
			Metadata:        "{}",
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"transaction_id": transactionID,
			"credit_id":      req.CreditID,
		})
		if err := s.audit.Log(ctx, tx, req.UserID, "purchase", "credit_transaction", transactionID, string(data)); err != nil {
			return err
		}

		walletAfter = wallet
		walletAfter.AvailableCoins = newAvailable
		result = PurchaseResult{
			TransactionID:      transactionID,
			CreditsPurchased:   req.CreditsToPurchase,
			CoinsSpent:         req.CoinCost,
			RemainingUserCoins: newAvailable,
			RemainingCredits:   remaining,
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	s.hub.BroadcastWallet(req.UserID, websocket.WalletUpdate{
		UserID:         req.UserID,
		TotalCoins:     walletAfter.TotalCoins.String(),
		AvailableCoins: walletAfter.AvailableCoins.String(),
	})
	return result, nil
}

// GetOrCreateWallet returns the user's wallet, seeding a new one with the
// configured starting balance on first access.
func (s *PurchaseService) GetOrCreateWallet(ctx context.Context, userID string) (models.Wallet, error) {
	wallet, err := s.wallets.GetByUser(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Wallet{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		created, err := s.lockOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		wallet = created
		return nil
	})
	if err != nil {
		return models.Wallet{}, err
	}
	return wallet, nil
}

// lockOrCreateWallet takes the wallet row lock, creating the wallet with
// the seed balance when the user has none yet.
func (s *PurchaseService) lockOrCreateWallet(ctx context.Context, tx *sqlx.Tx, userID string) (models.Wallet, error) {
	wallet, err := s.wallets.GetForUpdate(ctx, tx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Wallet{}, err
	}
	if err := s.wallets.Create(ctx, tx, uuid.NewString(), userID, s.seedCoins); err != nil {
		return models.Wallet{}, err
	}
	return s.wallets.GetForUpdate(ctx, tx, userID)
}
