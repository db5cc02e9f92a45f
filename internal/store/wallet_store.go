package store

import (
	"context"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

type WalletStore struct {
	db DB
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, id, userID string, seedCoins decimal.Decimal) error {
	query := `
		INSERT INTO wallets (id, user_id, total_coins, available_coins)
		VALUES ($1, $2, $3, $3)
	`
	_, err := tx.ExecContext(ctx, query, id, userID, seedCoins)
	return err
}

func (s *WalletStore) GetByUser(ctx context.Context, userID string) (models.Wallet, error) {
	var row models.Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, total_coins, available_coins, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.Wallet, error) {
	var row models.Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, total_coins, available_coins, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, userID string, totalCoins, availableCoins decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET total_coins = $1, available_coins = $2, updated_at = NOW()
		WHERE user_id = $3
	`, totalCoins, availableCoins, userID)
	return err
}
