package store

import (
	"context"
	"fmt"
	"time"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

type CreditStore struct {
	db DB
}

func NewCreditStore(db DB) *CreditStore {
	return &CreditStore{db: db}
}

type CreditInput struct {
	ID              string
	IssuanceID      string
	IssuerID        string
	IssuerName      string
	CoinsIssued     decimal.Decimal
	SourceType      models.SourceType
	SourceProjectID *string
	Description     *string
	PricePerCoin    *decimal.Decimal
}

type CreditFilter struct {
	VerificationStatus *models.VerificationStatus
	SourceType         *models.SourceType
	IssuerID           *string
	Limit              int
	Offset             int
}

type IssuerStats struct {
	TotalBatches     int             `db:"total_batches"`
	VerifiedBatches  int             `db:"verified_batches"`
	CoinsOutstanding decimal.Decimal `db:"coins_outstanding"`
}

func (s *CreditStore) Create(ctx context.Context, tx Execer, input CreditInput) error {
	query := `
		INSERT INTO marketplace_credits
			(id, issuance_id, issuer_id, issuer_name, coins_issued, source_type, source_project_id, verification_status, description, price_per_coin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.IssuanceID, input.IssuerID, input.IssuerName, input.CoinsIssued,
		input.SourceType, input.SourceProjectID, input.Description, input.PricePerCoin,
	)
	return err
}

func (s *CreditStore) GetByID(ctx context.Context, creditID string) (models.MarketplaceCredit, error) {
	var row models.MarketplaceCredit
	err := s.db.GetContext(ctx, &row, `
		SELECT id, issuance_id, issuer_id, issuer_name, coins_issued, source_type, source_project_id,
		       verification_status, verified_at, description, price_per_coin, created_at, updated_at
		FROM marketplace_credits
		WHERE id = $1
	`, creditID)
	if err != nil {
		return models.MarketplaceCredit{}, err
	}
	return row, nil
}

func (s *CreditStore) GetForUpdate(ctx context.Context, tx Getter, creditID string) (models.MarketplaceCredit, error) {
	var row models.MarketplaceCredit
	err := tx.GetContext(ctx, &row, `
		SELECT id, issuance_id, issuer_id, issuer_name, coins_issued, source_type, source_project_id,
		       verification_status, verified_at, description, price_per_coin, created_at, updated_at
		FROM marketplace_credits
		WHERE id = $1
		FOR UPDATE
	`, creditID)
	if err != nil {
		return models.MarketplaceCredit{}, err
	}
	return row, nil
}

// UpdateSupply sets the remaining coins of a batch. Callers hold the row
// lock and have already checked the requested decrement fits.
func (s *CreditStore) UpdateSupply(ctx context.Context, tx Execer, creditID string, remaining decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE marketplace_credits
		SET coins_issued = $1, updated_at = NOW()
		WHERE id = $2
	`, remaining, creditID)
	return err
}

// SetVerification transitions a pending batch to verified or rejected.
// Returns the number of rows moved; zero means the batch was not pending.
func (s *CreditStore) SetVerification(ctx context.Context, tx Execer, creditID string, status models.VerificationStatus, verifiedAt time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE marketplace_credits
		SET verification_status = $1, verified_at = $2, updated_at = NOW()
		WHERE id = $3 AND verification_status = 'pending'
	`, status, verifiedAt, creditID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CreditStore) List(ctx context.Context, filter CreditFilter) ([]models.MarketplaceCredit, int, error) {
	where := " WHERE TRUE"
	args := []any{}
	param := 1
	if filter.VerificationStatus != nil {
		where += fmt.Sprintf(" AND verification_status = $%d", param)
		args = append(args, *filter.VerificationStatus)
		param++
	}
	if filter.SourceType != nil {
		where += fmt.Sprintf(" AND source_type = $%d", param)
		args = append(args, *filter.SourceType)
		param++
	}
	if filter.IssuerID != nil {
		where += fmt.Sprintf(" AND issuer_id = $%d", param)
		args = append(args, *filter.IssuerID)
		param++
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM marketplace_credits"+where, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, issuance_id, issuer_id, issuer_name, coins_issued, source_type, source_project_id,
		       verification_status, verified_at, description, price_per_coin, created_at, updated_at
		FROM marketplace_credits` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", param, param+1)
	args = append(args, filter.Limit, filter.Offset)

	var rows []models.MarketplaceCredit
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *CreditStore) StatsByIssuer(ctx context.Context, issuerID string) (IssuerStats, error) {
	var row IssuerStats
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total_batches,
		       COUNT(*) FILTER (WHERE verification_status = 'verified') AS verified_batches,
		       COALESCE(SUM(coins_issued), 0) AS coins_outstanding
		FROM marketplace_credits
		WHERE issuer_id = $1
	`, issuerID)
	if err != nil {
		return IssuerStats{}, err
	}
	return row, nil
}
