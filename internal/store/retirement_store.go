package store

import (
	"context"
	"time"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

type RetirementStore struct {
	db DB
}

func NewRetirementStore(db DB) *RetirementStore {
	return &RetirementStore{db: db}
}

type RetirementInput struct {
	ID                string
	UserID            string
	CoinsRetired      decimal.Decimal
	CO2OffsetTons     decimal.Decimal
	Status            models.RetirementStatus
	Reason            string
	CertificateNumber *string
	CompletedAt       *time.Time
}

type RetirementStats struct {
	TotalRetired   decimal.Decimal `db:"total_retired"`
	PendingCount   int             `db:"pending_count"`
	CompletedCount int             `db:"completed_count"`
}

func (s *RetirementStore) Create(ctx context.Context, tx Execer, input RetirementInput) error {
	query := `
		INSERT INTO credit_retirements
			(id, user_id, coins_retired, co2_offset_tons, status, reason, certificate_number, certificate_issued, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.CoinsRetired, input.CO2OffsetTons,
		input.Status, input.Reason, input.CertificateNumber,
		input.CertificateNumber != nil, input.CompletedAt,
	)
	return err
}

func (s *RetirementStore) GetByID(ctx context.Context, retirementID, userID string) (models.CreditRetirement, error) {
	var row models.CreditRetirement
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, coins_retired, co2_offset_tons, status, reason,
		       certificate_number, certificate_issued, completed_at, created_at, updated_at
		FROM credit_retirements
		WHERE id = $1 AND user_id = $2
	`, retirementID, userID)
	if err != nil {
		return models.CreditRetirement{}, err
	}
	return row, nil
}

func (s *RetirementStore) GetForUpdate(ctx context.Context, tx Getter, retirementID, userID string) (models.CreditRetirement, error) {
	var row models.CreditRetirement
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, coins_retired, co2_offset_tons, status, reason,
		       certificate_number, certificate_issued, completed_at, created_at, updated_at
		FROM credit_retirements
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, retirementID, userID)
	if err != nil {
		return models.CreditRetirement{}, err
	}
	return row, nil
}

func (s *RetirementStore) MarkCompleted(ctx context.Context, tx Execer, retirementID, certificateNumber string, completedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE credit_retirements
		SET status = 'completed', certificate_number = $1, certificate_issued = TRUE,
		    completed_at = $2, updated_at = NOW()
		WHERE id = $3
	`, certificateNumber, completedAt, retirementID)
	return err
}

func (s *RetirementStore) MarkCancelled(ctx context.Context, tx Execer, retirementID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE credit_retirements
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
	`, retirementID)
	return err
}

func (s *RetirementStore) UpdatePending(ctx context.Context, tx Execer, retirementID string, coins, co2Tons decimal.Decimal, reason string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE credit_retirements
		SET coins_retired = $1, co2_offset_tons = $2, reason = $3, updated_at = NOW()
		WHERE id = $4
	`, coins, co2Tons, reason, retirementID)
	return err
}

func (s *RetirementStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditRetirement, error) {
	var rows []models.CreditRetirement
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, coins_retired, co2_offset_tons, status, reason,
		       certificate_number, certificate_issued, completed_at, created_at, updated_at
		FROM credit_retirements
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RetirementStore) ListPending(ctx context.Context, userID string) ([]models.CreditRetirement, error) {
	var rows []models.CreditRetirement
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, coins_retired, co2_offset_tons, status, reason,
		       certificate_number, certificate_issued, completed_at, created_at, updated_at
		FROM credit_retirements
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RetirementStore) StatsByUser(ctx context.Context, userID string) (RetirementStats, error) {
	var row RetirementStats
	err := s.db.GetContext(ctx, &row, `
		SELECT COALESCE(SUM(coins_retired) FILTER (WHERE status = 'completed'), 0) AS total_retired,
		       COUNT(*) FILTER (WHERE status = 'pending') AS pending_count,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed_count
		FROM credit_retirements
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return RetirementStats{}, err
	}
	return row, nil
}
