package store

import (
	"context"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

type IssuanceStore struct {
	db DB
}

func NewIssuanceStore(db DB) *IssuanceStore {
	return &IssuanceStore{db: db}
}

type IssuanceInput struct {
	ID                  string
	UserID              string
	IssuerName          string
	CoinsIssued         decimal.Decimal
	SourceType          models.SourceType
	SourceApplicationID string
	Description         *string
	CalculationMethod   *string
}

type IssuanceStats struct {
	TotalCoins       decimal.Decimal `db:"total_coins"`
	SolarCoins       decimal.Decimal `db:"solar_coins"`
	ForestationCoins decimal.Decimal `db:"forestation_coins"`
	TotalIssuances   int             `db:"total_issuances"`
}

func (s *IssuanceStore) Create(ctx context.Context, tx Execer, input IssuanceInput) error {
	query := `
		INSERT INTO issuances
			(id, user_id, issuer_name, coins_issued, source_type, source_application_id, description, calculation_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.IssuerName, input.CoinsIssued,
		input.SourceType, input.SourceApplicationID, input.Description, input.CalculationMethod,
	)
	return err
}

func (s *IssuanceStore) ListByUser(ctx context.Context, userID string, sourceType *models.SourceType, limit, offset int) ([]models.Issuance, error) {
	query := `
		SELECT id, user_id, issuer_name, coins_issued, source_type, source_application_id,
		       description, calculation_method, created_at
		FROM issuances
		WHERE user_id = $1
	`
	args := []any{userID}
	if sourceType != nil {
		query += " AND source_type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4"
		args = append(args, *sourceType, limit, offset)
	} else {
		query += " ORDER BY created_at DESC LIMIT $2 OFFSET $3"
		args = append(args, limit, offset)
	}
	var rows []models.Issuance
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *IssuanceStore) StatsByUser(ctx context.Context, userID string) (IssuanceStats, error) {
	var row IssuanceStats
	err := s.db.GetContext(ctx, &row, `
		SELECT COALESCE(SUM(coins_issued), 0) AS total_coins,
		       COALESCE(SUM(coins_issued) FILTER (WHERE source_type = 'solar_panel'), 0) AS solar_coins,
		       COALESCE(SUM(coins_issued) FILTER (WHERE source_type = 'forestation'), 0) AS forestation_coins,
		       COUNT(*) AS total_issuances
		FROM issuances
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return IssuanceStats{}, err
	}
	return row, nil
}
