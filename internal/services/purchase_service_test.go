package services

import (
	"context"
	"database/sql"
	"testing"

	"carbonledger/internal/models"
	"carbonledger/internal/store"

	"github.com/shopspring/decimal"
)

func seededWallet(available string) models.Wallet {
	return models.Wallet{
		ID:             "wallet-1",
		UserID:         "user-1",
		TotalCoins:     mustDecimal("2500.0"),
		AvailableCoins: mustDecimal(available),
	}
}

func TestPurchaseInvalidAmount(t *testing.T) {
	service := NewPurchaseService(fakeTxRunner{}, stubWalletStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Wallet, error) {
			t.Fatal("unexpected store call")
			return models.Wallet{}, nil
		},
	}, stubCreditStore{}, stubTransactionStore{}, stubAuditStore{}, &stubHub{}, mustDecimal("2500.0"))
	_, err := service.Purchase(context.Background(), PurchaseRequest{
		UserID: "user-1", CreditID: "credit-1",
		CreditsToPurchase: decimal.Zero, CoinCost: mustDecimal("10"),
	})
	if err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPurchaseInsufficientFundsLeavesStateUntouched(t *testing.T) {
	service := NewPurchaseService(fakeTxRunner{}, stubWalletStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Wallet, error) {
			return seededWallet("50"), nil
		},
		updateBalanceFn: func(context.Context, store.Execer, string, decimal.Decimal, decimal.Decimal) error {
			t.Fatal("wallet must not be touched")
			return nil
		},
	}, stubCreditStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.MarketplaceCredit, error) {
			t.Fatal("credit must not be locked after funds check fails")
			return models.MarketplaceCredit{}, nil
		},
	}, stubTransactionStore{}, stubAuditStore{}, &stubHub{}, mustDecimal("2500.0"))
	_, err := service.Purchase(context.Background(), PurchaseRequest{
		UserID: "user-1", CreditID: "credit-1",
		CreditsToPurchase: mustDecimal("10"), CoinCost: mustDecimal("100"),
	})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestPurchaseCreditNotFound(t *testing.T) {
	service := NewPurchaseService(fakeTxRunner{}, stubWalletStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Wallet, error) {
			return seededWallet("2500.0"), nil
		},
	}, stubCreditStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.MarketplaceCredit, error) {
			return models.MarketplaceCredit{}, sql.ErrNoRows
		},
	}, stubTransactionStore{}, stubAuditStore{}, &stubHub{}, mustDecimal("2500.0"))
	_, err := service.Purchase(context.Background(), PurchaseRequest{
		UserID: "user-1", CreditID: "missing",
		CreditsToPurchase: mustDecimal("10"), CoinCost: mustDecimal("100"),
	})
	if err != ErrCreditNotFound {
		t.Fatalf("expected ErrCreditNotFound, got %v", err)
	}
}

func TestPurchaseInsufficientSupply(t *testing.T) {
	service := NewPurchaseService(fakeTxRunner{}, stubWalletStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Wallet, error) {
			return seededWallet("2500.0"), nil
		},
	}, stubCreditStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.MarketplaceCredit, error) {
			return models.MarketplaceCredit{ID: "credit-1", CoinsIssued: mustDecimal("5")}, nil
		},
	}, stubTransactionStore{}, stubAuditStore{}, &stubHub{}, mustDecimal("2500.0"))
	_, err := service.Purchase(context.Background(), PurchaseRequest{
		UserID: "user-1", CreditID: "credit-1",
		CreditsToPurchase: mustDecimal("10"), CoinCost: mustDecimal("100"),
	})
	if err != ErrInsufficientSupply {
		t.Fatalf("expected ErrInsufficientSupply, got %v", err)
	}
}

func TestPurchaseCostMismatch(t *testing.T) {
	price := mustDecimal("12")
	service := NewPurchaseService(fakeTxRunner{}, stubWalletStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Wallet, error) {
			return seededWallet("2500.0"), nil
		},
	}, stubCreditStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.MarketplaceCredit, error) {
			return models.MarketplaceCredit{ID: "credit-1", CoinsIssued: mustDecimal("100"), PricePerCoin: &price}, nil
		},
	}, stubTransactionStore{}, stubAuditStore{}, &stubHub{}, mustDecimal("2500.0"))
	_, err := service.Purchase(context.Background(), PurchaseRequest{
		UserID: "user-1", CreditID: "credit-1",
		CreditsToPurchase: mustDecimal("10"), CoinCost: mustDecimal("100"),
	})
	if err != ErrCostMismatch {
		t.Fatalf("expected ErrCostMismatch, got %v", err)
	}
}

func TestPurchaseSuccess(t *testing.T) {
	var newAvailable decimal.Decimal
	var remaining decimal.Decimal
	var createdTx store.TransactionInput
	var auditAction string
	hub := &stubHub{}
	service := NewPurchaseService(fakeTxRunner{}, stubWalletStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Wallet, error) {
			return seededWallet("2500.0"), nil
		},
		updateBalanceFn: func(_ context.Context, _ store.Execer, _ string, total, available decimal.Decimal) error {
			if !total.Equal(mustDecimal("2500.0")) {
				t.Fatalf("total coins must not move on purchase, got %s", total)
			}
			newAvailable = available
			return nil
		},
	}, stubCreditStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.MarketplaceCredit, error) {
			return models.MarketplaceCredit{ID: "credit-1", CoinsIssued: mustDecimal("100")}, nil
		},
		updateSupplyFn: func(_ context.Context, _ store.Execer, _ string, r decimal.Decimal) error {
			remaining = r
			return nil
		},
	}, stubTransactionStore{
		createFn: func(_ context.Context, _ store.Execer, input store.TransactionInput) error {
			createdTx = input
			return nil
		},
	}, stubAuditStore{
		logFn: func(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
			auditAction = action
			return nil
		},
	}, hub, mustDecimal("2500.0"))

	result, err := service.Purchase(context.Background(), PurchaseRequest{
		UserID: "user-1", CreditID: "credit-1",
		CreditsToPurchase: mustDecimal("10"), CoinCost: mustDecimal("100"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !newAvailable.Equal(mustDecimal("2400.0")) {
		t.Fatalf("expected available 2400.0, got %s", newAvailable)
	}
	if !remaining.Equal(mustDecimal("90")) {
		t.Fatalf("expected remaining supply 90, got %s", remaining)
	}
	if createdTx.TransactionType != models.TransactionPurchase || createdTx.Status != models.TransactionStatusCompleted {
		t.Fatalf("unexpected transaction row: %#v", createdTx)
	}
	if auditAction != "purchase" {
		t.Fatalf("expected purchase audit entry, got %q", auditAction)
	}
	if !result.RemainingUserCoins.Equal(mustDecimal("2400.0")) || !result.RemainingCredits.Equal(mustDecimal("90")) {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(hub.calls) != 1 {
		t.Fatalf("expected one wallet broadcast, got %#v", hub.calls)
	}
	if broadcast := mustDecimal(hub.calls[0].AvailableCoins); !broadcast.Equal(mustDecimal("2400.0")) {
		t.Fatalf("unexpected broadcast balance: %s", hub.calls[0].AvailableCoins)
	}
}

func TestPurchaseSeedsWalletOnFirstUse(t *testing.T) {
	created := false
	calls := 0
	service := NewPurchaseService(fakeTxRunner{}, stubWalletStore{
		createFn: func(_ context.Context, _ store.Execer, _, userID string, seedCoins decimal.Decimal) error {
			created = true
			if userID != "user-1" || !seedCoins.Equal(mustDecimal("2500.0")) {
				t.Fatalf("unexpected seed: user=%s coins=%s", userID, seedCoins)
			}
			return nil
		},
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Wallet, error) {
			calls++
			if calls == 1 {
				return models.Wallet{}, sql.ErrNoRows
			}
			return seededWallet("2500.0"), nil
		},
	}, stubCreditStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.MarketplaceCredit, error) {
			return models.MarketplaceCredit{ID: "credit-1", CoinsIssued: mustDecimal("100")}, nil
		},
	}, stubTransactionStore{}, stubAuditStore{}, &stubHub{}, mustDecimal("2500.0"))

	_, err := service.Purchase(context.Background(), PurchaseRequest{
		UserID: "user-1", CreditID: "credit-1",
		CreditsToPurchase: mustDecimal("10"), CoinCost: mustDecimal("100"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected wallet to be created with the seed balance")
	}
}
