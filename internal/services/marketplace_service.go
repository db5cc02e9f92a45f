package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"carbonledger/internal/db"
	"carbonledger/internal/models"
	"carbonledger/internal/store"

	"github.com/jmoiron/sqlx"
)

type VerifiableCreditStore interface {
	GetByID(ctx context.Context, creditID string) (models.MarketplaceCredit, error)
	SetVerification(ctx context.Context, tx store.Execer, creditID string, status models.VerificationStatus, verifiedAt time.Time) (int64, error)
}

// MarketplaceService owns the verification state machine of credit
// batches: pending -> verified | rejected, both terminal.
type MarketplaceService struct {
	txRunner db.TxRunner
	credits  VerifiableCreditStore
	audit    AuditStore
	now      func() time.Time
}

func NewMarketplaceService(txRunner db.TxRunner, credits VerifiableCreditStore, audit AuditStore) *MarketplaceService {
	return &MarketplaceService{
		txRunner: txRunner,
		credits:  credits,
		audit:    audit,
		now:      time.Now,
	}
}

func (s *MarketplaceService) Verify(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error) {
	return s.transition(ctx, creditID, actorID, models.VerificationVerified)
}

func (s *MarketplaceService) Reject(ctx context.Context, creditID, actorID string) (models.MarketplaceCredit, error) {
	return s.transition(ctx, creditID, actorID, models.VerificationRejected)
}

func (s *MarketplaceService) transition(ctx context.Context, creditID, actorID string, status models.VerificationStatus) (models.MarketplaceCredit, error) {
	credit, err := s.credits.GetByID(ctx, creditID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MarketplaceCredit{}, ErrCreditNotFound
		}
		return models.MarketplaceCredit{}, err
	}
	if credit.VerificationStatus != models.VerificationPending {
		return models.MarketplaceCredit{}, ErrInvalidState
	}
	verifiedAt := s.now().UTC()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		moved, err := s.credits.SetVerification(ctx, tx, creditID, status, verifiedAt)
		if err != nil {
			return err
		}
		if moved == 0 {
			return ErrInvalidState
		}
		data, _ := json.Marshal(map[string]string{"status": string(status)})
		return s.audit.Log(ctx, tx, actorID, "credit_"+string(status), "marketplace_credit", creditID, string(data))
	})
	if err != nil {
		return models.MarketplaceCredit{}, err
	}
	credit.VerificationStatus = status
	credit.VerifiedAt = &verifiedAt
	return credit, nil
}
