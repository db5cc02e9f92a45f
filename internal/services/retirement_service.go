package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"carbonledger/internal/db"
	"carbonledger/internal/models"
	"carbonledger/internal/store"
	"carbonledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type RetirementStore interface {
	Create(ctx context.Context, tx store.Execer, input store.RetirementInput) error
	GetByID(ctx context.Context, retirementID, userID string) (models.CreditRetirement, error)
	GetForUpdate(ctx context.Context, tx store.Getter, retirementID, userID string) (models.CreditRetirement, error)
	MarkCompleted(ctx context.Context, tx store.Execer, retirementID, certificateNumber string, completedAt time.Time) error
	MarkCancelled(ctx context.Context, tx store.Execer, retirementID string) error
	UpdatePending(ctx context.Context, tx store.Execer, retirementID string, coins, co2Tons decimal.Decimal, reason string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditRetirement, error)
	ListPending(ctx context.Context, userID string) ([]models.CreditRetirement, error)
	StatsByUser(ctx context.Context, userID string) (store.RetirementStats, error)
}

type CertificateRenderer interface {
	Render(retirement models.CreditRetirement) ([]byte, error)
}

type RetirementService struct {
	txRunner    db.TxRunner
	wallets     WalletStore
	retirements RetirementStore
	txStore     TransactionStore
	audit       AuditStore
	hub         WalletHub
	renderer    CertificateRenderer
	certPrefix  string
	seedCoins   decimal.Decimal
	now         func() time.Time
}

func NewRetirementService(txRunner db.TxRunner, wallets WalletStore, retirements RetirementStore, txStore TransactionStore, audit AuditStore, hub WalletHub, renderer CertificateRenderer, certPrefix string, seedCoins decimal.Decimal) *RetirementService {
	return &RetirementService{
		txRunner:    txRunner,
		wallets:     wallets,
		retirements: retirements,
		txStore:     txStore,
		audit:       audit,
		hub:         hub,
		renderer:    renderer,
		certPrefix:  certPrefix,
		seedCoins:   seedCoins,
		now:         time.Now,
	}
}

type RetireRequest struct {
	UserID        string
	CoinsToRetire decimal.Decimal
	Reason        string
	AutoConfirm   bool
}

type RetirementResult struct {
	RetirementID       string
	Status             models.RetirementStatus
	CoinsRetired       decimal.Decimal
	CO2OffsetTons      decimal.Decimal
	CertificateNumber  *string
	RemainingUserCoins decimal.Decimal
}

// Retire creates a retirement and escrows the coins immediately: the
// wallet's available balance drops when the request is created, not when
// it is confirmed, so stacked pending requests can never overcommit.
// Cancel credits the escrow back.
func (s *RetirementService) Retire(ctx context.Context, req RetireRequest) (RetirementResult, error) {
	if !req.CoinsToRetire.IsPositive() {
		return RetirementResult{}, ErrInvalidAmount
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Carbon Offset"
	}
	var result RetirementResult
	var walletAfter models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.lockOrCreateWallet(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if wallet.AvailableCoins.LessThan(req.CoinsToRetire) {
			return ErrInsufficientFunds
		}

		retirementID := uuid.NewString()
		newAvailable := wallet.AvailableCoins.Sub(req.CoinsToRetire)
		if err := s.wallets.UpdateBalance(ctx, tx, req.UserID, wallet.TotalCoins, newAvailable); err != nil {
			return err
		}

		input := store.RetirementInput{
			ID:            retirementID,
			UserID:        req.UserID,
			CoinsRetired:  req.CoinsToRetire,
			CO2OffsetTons: req.CoinsToRetire, // 1 coin = 1 ton CO2
			Status:        models.RetirementPending,
			Reason:        reason,
		}
		var certNumber *string
		if req.AutoConfirm {
			cert := s.certificateNumber(retirementID)
			completedAt := s.now().UTC()
			input.Status = models.RetirementCompleted
			input.CertificateNumber = &cert
			input.CompletedAt = &completedAt
			certNumber = &cert
		}
		if err := s.retirements.Create(ctx, tx, input); err != nil {
			return err
		}

		if req.AutoConfirm {
			if err := s.appendRetirementTransaction(ctx, tx, req.UserID, retirementID, req.CoinsToRetire); err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]string{
			"retirement_id": retirementID,
			"status":        string(input.Status),
		})
		if err := s.audit.Log(ctx, tx, req.UserID, "retire", "credit_retirement", retirementID, string(data)); err != nil {
			return err
		}

		walletAfter = wallet
		walletAfter.AvailableCoins = newAvailable
		result = RetirementResult{
			RetirementID:       retirementID,
			Status:             input.Status,
			CoinsRetired:       req.CoinsToRetire,
			CO2OffsetTons:      req.CoinsToRetire,
			CertificateNumber:  certNumber,
			RemainingUserCoins: newAvailable,
		}
		return nil
	})
	if err != nil {
		return RetirementResult{}, err
	}
	s.broadcastWallet(walletAfter)
	return result, nil
}

// Confirm completes a pending retirement and issues its certificate.
// The coins were escrowed at creation, so no further wallet debit happens.
func (s *RetirementService) Confirm(ctx context.Context, retirementID, userID string) (RetirementResult, error) {
	var result RetirementResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		retirement, err := s.retirements.GetForUpdate(ctx, tx, retirementID, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRetirementNotFound
			}
			return err
		}
		if retirement.Status != models.RetirementPending {
			return ErrInvalidState
		}

		cert := s.certificateNumber(retirementID)
		completedAt := s.now().UTC()
		if err := s.retirements.MarkCompleted(ctx, tx, retirementID, cert, completedAt); err != nil {
			return err
		}
		if err := s.appendRetirementTransaction(ctx, tx, userID, retirementID, retirement.CoinsRetired); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"retirement_id":      retirementID,
			"certificate_number": cert,
		})
		if err := s.audit.Log(ctx, tx, userID, "retirement_confirm", "credit_retirement", retirementID, string(data)); err != nil {
			return err
		}

		wallet, err := s.lockOrCreateWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		result = RetirementResult{
			RetirementID:       retirementID,
			Status:             models.RetirementCompleted,
			CoinsRetired:       retirement.CoinsRetired,
			CO2OffsetTons:      retirement.CO2OffsetTons,
			CertificateNumber:  &cert,
			RemainingUserCoins: wallet.AvailableCoins,
		}
		return nil
	})
	if err != nil {
		return RetirementResult{}, err
	}
	return result, nil
}

type RetirementUpdateRequest struct {
	RetirementID  string
	UserID        string
	CoinsToRetire *decimal.Decimal
	Reason        *string
}

// Update adjusts a pending retirement. An amount change moves the escrow
// delta through the wallet under the same locks as Retire.
func (s *RetirementService) Update(ctx context.Context, req RetirementUpdateRequest) (models.CreditRetirement, error) {
	if req.CoinsToRetire != nil && !req.CoinsToRetire.IsPositive() {
		return models.CreditRetirement{}, ErrInvalidAmount
	}
	var updated models.CreditRetirement
	var walletAfter *models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		retirement, err := s.retirements.GetForUpdate(ctx, tx, req.RetirementID, req.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRetirementNotFound
			}
			return err
		}
		if retirement.Status != models.RetirementPending {
			return ErrInvalidState
		}

		coins := retirement.CoinsRetired
		reason := retirement.Reason
		if req.Reason != nil && strings.TrimSpace(*req.Reason) != "" {
			reason = strings.TrimSpace(*req.Reason)
		}
		if req.CoinsToRetire != nil && !req.CoinsToRetire.Equal(retirement.CoinsRetired) {
			wallet, err := s.wallets.GetForUpdate(ctx, tx, req.UserID)
			if err != nil {
				return err
			}
			delta := req.CoinsToRetire.Sub(retirement.CoinsRetired)
			newAvailable := wallet.AvailableCoins.Sub(delta)
			if newAvailable.IsNegative() {
				return ErrInsufficientFunds
			}
			if err := s.wallets.UpdateBalance(ctx, tx, req.UserID, wallet.TotalCoins, newAvailable); err != nil {
				return err
			}
			after := wallet
			after.AvailableCoins = newAvailable
			walletAfter = &after
			coins = *req.CoinsToRetire
		}

		if err := s.retirements.UpdatePending(ctx, tx, req.RetirementID, coins, coins, reason); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"retirement_id": req.RetirementID})
		if err := s.audit.Log(ctx, tx, req.UserID, "retirement_update", "credit_retirement", req.RetirementID, string(data)); err != nil {
			return err
		}

		updated = retirement
		updated.CoinsRetired = coins
		updated.CO2OffsetTons = coins
		updated.Reason = reason
		return nil
	})
	if err != nil {
		return models.CreditRetirement{}, err
	}
	if walletAfter != nil {
		s.broadcastWallet(*walletAfter)
	}
	return updated, nil
}

// Cancel moves a pending retirement to its terminal cancelled state and
// credits the escrowed coins back to the wallet.
func (s *RetirementService) Cancel(ctx context.Context, retirementID, userID string) error {
	var walletAfter models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		retirement, err := s.retirements.GetForUpdate(ctx, tx, retirementID, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRetirementNotFound
			}
			return err
		}
		if retirement.Status != models.RetirementPending {
			return ErrInvalidState
		}

		wallet, err := s.wallets.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		newAvailable := wallet.AvailableCoins.Add(retirement.CoinsRetired)
		if err := s.wallets.UpdateBalance(ctx, tx, userID, wallet.TotalCoins, newAvailable); err != nil {
			return err
		}
		if err := s.retirements.MarkCancelled(ctx, tx, retirementID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"retirement_id": retirementID})
		if err := s.audit.Log(ctx, tx, userID, "retirement_cancel", "credit_retirement", retirementID, string(data)); err != nil {
			return err
		}

		walletAfter = wallet
		walletAfter.AvailableCoins = newAvailable
		return nil
	})
	if err != nil {
		return err
	}
	s.broadcastWallet(walletAfter)
	return nil
}

type DashboardStats struct {
	TotalRetired           decimal.Decimal `json:"total_retired"`
	AvailableForRetirement decimal.Decimal `json:"available_for_retirement"`
	CO2OffsetTons          decimal.Decimal `json:"co2_offset_tons"`
	ProgressPercentage     decimal.Decimal `json:"progress_percentage"`
	PendingCount           int             `json:"pending_count"`
	CompletedCount         int             `json:"completed_count"`
}

func (s *RetirementService) DashboardStats(ctx context.Context, userID string) (DashboardStats, error) {
	stats, err := s.retirements.StatsByUser(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	available := decimal.Zero
	wallet, err := s.wallets.GetByUser(ctx, userID)
	if err == nil {
		available = wallet.AvailableCoins
	} else if !errors.Is(err, sql.ErrNoRows) {
		return DashboardStats{}, err
	}
	purchased, err := s.txStore.SumPurchasedCredits(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	progress := decimal.Zero
	if purchased.IsPositive() {
		progress = stats.TotalRetired.Div(purchased).Mul(decimal.NewFromInt(100)).Round(2)
		if progress.GreaterThan(decimal.NewFromInt(100)) {
			progress = decimal.NewFromInt(100)
		}
	}
	return DashboardStats{
		TotalRetired:           stats.TotalRetired,
		AvailableForRetirement: available,
		CO2OffsetTons:          stats.TotalRetired,
		ProgressPercentage:     progress,
		PendingCount:           stats.PendingCount,
		CompletedCount:         stats.CompletedCount,
	}, nil
}

func (s *RetirementService) History(ctx context.Context, userID string, limit int) ([]models.CreditRetirement, error) {
	return s.retirements.ListByUser(ctx, userID, limit)
}

func (s *RetirementService) Pending(ctx context.Context, userID string) ([]models.CreditRetirement, error) {
	return s.retirements.ListPending(ctx, userID)
}

// Certificate renders the offset certificate PDF for a completed
// retirement.
func (s *RetirementService) Certificate(ctx context.Context, retirementID, userID string) ([]byte, error) {
	retirement, err := s.retirements.GetByID(ctx, retirementID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRetirementNotFound
		}
		return nil, err
	}
	if retirement.Status != models.RetirementCompleted || retirement.CertificateNumber == nil {
		return nil, ErrInvalidState
	}
	return s.renderer.Render(retirement)
}

func (s *RetirementService) certificateNumber(retirementID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(retirementID, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%s-%s", s.certPrefix, s.now().Format("20060102"), suffix)
}

func (s *RetirementService) appendRetirementTransaction(ctx context.Context, tx *sqlx.Tx, userID, retirementID string, coins decimal.Decimal) error {
	return s.txStore.Create(ctx, tx, store.TransactionInput{
		ID:              uuid.NewString(),
		UserID:          userID,
		RetirementID:    &retirementID,
		CreditsAmount:   coins,
		CoinsAmount:     coins,
		TransactionType: models.TransactionRetirement,
		Status:          models.TransactionStatusCompleted,
		Metadata:        "{}",
	})
}

func (s *RetirementService) lockOrCreateWallet(ctx context.Context, tx *sqlx.Tx, userID string) (models.Wallet, error) {
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

func (s *RetirementService) broadcastWallet(wallet models.Wallet) {
	s.hub.BroadcastWallet(wallet.UserID, websocket.WalletUpdate{
		UserID:         wallet.UserID,
		TotalCoins:     wallet.TotalCoins.String(),
		AvailableCoins: wallet.AvailableCoins.String(),
	})
}
