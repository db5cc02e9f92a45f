package store

import (
	"context"
	"fmt"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID              string
	UserID          string
	CreditID        *string
	RetirementID    *string
	CreditsAmount   decimal.Decimal
	CoinsAmount     decimal.Decimal
	TransactionType models.TransactionType
	Status          models.TransactionStatus
	Description     *string
	Metadata        string
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO credit_transactions
			(id, user_id, credit_id, retirement_id, credits_amount, coins_amount, transaction_type, status, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.CreditID, input.RetirementID,
		input.CreditsAmount, input.CoinsAmount, input.TransactionType,
		input.Status, input.Description, input.Metadata,
	)
	return err
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, tx Execer, transactionID string, status models.TransactionStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE credit_transactions SET status = $1 WHERE id = $2`, status, transactionID)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID string, txType string, limit, offset int) ([]models.CreditTransaction, error) {
	query := `
		SELECT id, user_id, credit_id, retirement_id, credits_amount, coins_amount,
		       transaction_type, status, description, metadata, created_at
		FROM credit_transactions
		WHERE user_id = $1
	`
	args := []any{userID}
	param := 2
	if txType != "" {
		query += fmt.Sprintf(" AND transaction_type = $%d", param)
		args = append(args, txType)
		param++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", param, param+1)
	args = append(args, limit, offset)

	var rows []models.CreditTransaction
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// SumPurchasedCredits totals the credits a user has acquired through
// completed purchases, the denominator of the net-zero progress figure.
func (s *TransactionStore) SumPurchasedCredits(ctx context.Context, userID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(credits_amount), 0)
		FROM credit_transactions
		WHERE user_id = $1 AND transaction_type = 'purchase' AND status = 'completed'
	`, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumPurchasedFromCredit totals the credits sold out of one batch,
// for reconciling a batch's remaining supply against its ledger.
func (s *TransactionStore) SumPurchasedFromCredit(ctx context.Context, creditID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(credits_amount), 0)
		FROM credit_transactions
		WHERE credit_id = $1 AND transaction_type = 'purchase' AND status = 'completed'
	`, creditID)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
