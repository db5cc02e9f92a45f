package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"carbonledger/internal/db"
	"carbonledger/internal/models"
	"carbonledger/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type IssuanceStore interface {
	Create(ctx context.Context, tx store.Execer, input store.IssuanceInput) error
}

type ApplicationStore interface {
	GetByIDAndUser(ctx context.Context, applicationID, userID string) (models.ProjectApplication, error)
}

// CoinCalculator turns an approved project application into a coin amount
// and a label describing how it was computed.
type CoinCalculator interface {
	CoinAmount(app models.ProjectApplication) (decimal.Decimal, string, error)
}

type MintingService struct {
	txRunner     db.TxRunner
	issuances    IssuanceStore
	credits      CreditStore
	applications ApplicationStore
	txStore      TransactionStore
	audit        AuditStore
	calculator   CoinCalculator
}

func NewMintingService(txRunner db.TxRunner, issuances IssuanceStore, credits CreditStore, applications ApplicationStore, txStore TransactionStore, audit AuditStore, calculator CoinCalculator) *MintingService {
	return &MintingService{
		txRunner:     txRunner,
		issuances:    issuances,
		credits:      credits,
		applications: applications,
		txStore:      txStore,
		audit:        audit,
		calculator:   calculator,
	}
}

type MintRequest struct {
	UserID              string
	CoinsToIssue        decimal.Decimal
	SourceApplicationID string
	IssuerName          string
	Description         *string
	CalculationMethod   *string
	PricePerCoin        *decimal.Decimal
}

type MintResult struct {
	IssuanceID  string
	CreditID    string
	CoinsIssued decimal.Decimal
	SourceType  models.SourceType
	IssuerName  string
}

// Mint records one issuance and lists the batch on the marketplace in the
// same transaction. The issuance row is the single source of truth; the
// marketplace batch references it. A unique constraint enforces one mint
// per application.
func (s *MintingService) Mint(ctx context.Context, req MintRequest) (MintResult, error) {
	if !req.CoinsToIssue.IsPositive() {
		return MintResult{}, ErrInvalidAmount
	}
	app, err := s.applications.GetByIDAndUser(ctx, req.SourceApplicationID, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MintResult{}, ErrApplicationNotFound
		}
		return MintResult{}, err
	}
	if app.Status != models.ApplicationApproved {
		return MintResult{}, ErrApplicationNotApproved
	}

	issuerName := req.IssuerName
	if issuerName == "" {
		issuerName = app.FullName
	}

	var result MintResult
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		issuanceID := uuid.NewString()
		creditID := uuid.NewString()
		if err := s.issuances.Create(ctx, tx, store.IssuanceInput{
			ID:                  issuanceID,
			UserID:              req.UserID,
			IssuerName:          issuerName,
			CoinsIssued:         req.CoinsToIssue,
			SourceType:          app.ProjectType,
			SourceApplicationID: app.ID,
			Description:         req.Description,
			CalculationMethod:   req.CalculationMethod,
		}); err != nil {
			return err
		}
		if err := s.credits.Create(ctx, tx, store.CreditInput{
			ID:              creditID,
			IssuanceID:      issuanceID,
			IssuerID:        req.UserID,
			IssuerName:      issuerName,
			CoinsIssued:     req.CoinsToIssue,
			SourceType:      app.ProjectType,
			SourceProjectID: &app.ID,
			Description:     req.Description,
			PricePerCoin:    req.PricePerCoin,
		}); err != nil {
			return err
		}
		transactionID := uuid.NewString()
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:              transactionID,
			UserID:          req.UserID,
			CreditID:        &creditID,
			CreditsAmount:   req.CoinsToIssue,
			CoinsAmount:     req.CoinsToIssue,
			TransactionType: models.TransactionMint,
			Status:          models.TransactionStatusCompleted,
			Metadata:        "{}",
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"issuance_id":           issuanceID,
			"credit_id":             creditID,
			"source_application_id": app.ID,
		})
		if err := s.audit.Log(ctx, tx, req.UserID, "mint", "issuance", issuanceID, string(data)); err != nil {
			return err
		}
		result = MintResult{
			IssuanceID:  issuanceID,
			CreditID:    creditID,
			CoinsIssued: req.CoinsToIssue,
			SourceType:  app.ProjectType,
			IssuerName:  issuerName,
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return MintResult{}, ErrAlreadyMinted
		}
		return MintResult{}, err
	}
	return result, nil
}

// MintFromApplication computes the coin amount with the pluggable
// calculator before minting.
func (s *MintingService) MintFromApplication(ctx context.Context, userID, applicationID, issuerName string, description *string, pricePerCoin *decimal.Decimal) (MintResult, error) {
	app, err := s.applications.GetByIDAndUser(ctx, applicationID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MintResult{}, ErrApplicationNotFound
		}
		return MintResult{}, err
	}
	if app.Status != models.ApplicationApproved {
		return MintResult{}, ErrApplicationNotApproved
	}
	coins, method, err := s.calculator.CoinAmount(app)
	if err != nil {
		return MintResult{}, err
	}
	return s.Mint(ctx, MintRequest{
		UserID:              userID,
		CoinsToIssue:        coins,
		SourceApplicationID: applicationID,
		IssuerName:          issuerName,
		Description:         description,
		CalculationMethod:   &method,
		PricePerCoin:        pricePerCoin,
	})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
