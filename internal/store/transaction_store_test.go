package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

func TestTransactionStoreCreate(t *testing.T) {
	ctx := context.Background()
	creditID := "credit-1"
	tx := stubTx{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO credit_transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 10 {
				t.Fatalf("expected 10 args, got %d", len(args))
			}
			if args[0] != "tx-1" || args[1] != "user-1" || args[6] != models.TransactionPurchase || args[7] != models.TransactionStatusCompleted {
				t.Fatalf("unexpected args: %#v", args)
			}
			ptr, ok := args[2].(*string)
			if !ok || ptr == nil || *ptr != creditID {
				t.Fatalf("unexpected credit id arg: %#v", args[2])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	err := store.Create(ctx, tx, TransactionInput{
		ID:              "tx-1",
		UserID:          "user-1",
		CreditID:        &creditID,
		CreditsAmount:   decimal.RequireFromString("10"),
		CoinsAmount:     decimal.RequireFromString("100"),
		TransactionType: models.TransactionPurchase,
		Status:          models.TransactionStatusCompleted,
		Metadata:        "{}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreListByUserWithTypeFilter(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "AND transaction_type = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "LIMIT $3 OFFSET $4") {
				t.Fatalf("paging params misnumbered: %s", query)
			}
			if len(args) != 4 || args[0] != "user-1" || args[1] != "purchase" || args[2] != 25 || args[3] != 50 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.CreditTransaction) = []models.CreditTransaction{{ID: "tx-1"}}
			return nil
		},
	})
	rows, err := store.ListByUser(ctx, "user-1", "purchase", 25, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "tx-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestTransactionStoreListByUserWithoutType(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if strings.Contains(query, "transaction_type = ") {
				t.Fatalf("no type filter expected: %s", query)
			}
			if !strings.Contains(query, "LIMIT $2 OFFSET $3") {
				t.Fatalf("paging params misnumbered: %s", query)
			}
			if len(args) != 3 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListByUser(ctx, "user-1", "", 25, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreSumPurchasedCredits(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "transaction_type = 'purchase'") || !strings.Contains(query, "status = 'completed'") {
				t.Fatalf("sum must count only completed purchases: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*decimal.Decimal) = decimal.RequireFromString("300")
			return nil
		},
	})
	sum, err := store.SumPurchasedCredits(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("unexpected sum: %s", sum)
	}
}
