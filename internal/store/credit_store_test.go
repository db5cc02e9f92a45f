package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

func TestCreditStoreCreateDefaultsPending(t *testing.T) {
	ctx := context.Background()
	tx := stubTx{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO marketplace_credits") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "'pending'") {
				t.Fatalf("new batch must start pending: %s", query)
			}
			if len(args) != 9 || args[0] != "credit-1" || args[1] != "iss-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewCreditStore(stubDB{})
	err := store.Create(ctx, tx, CreditInput{
		ID:          "credit-1",
		IssuanceID:  "iss-1",
		IssuerID:    "user-1",
		IssuerName:  "Solar Co",
		CoinsIssued: decimal.RequireFromString("100"),
		SourceType:  models.SourceSolarPanel,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreditStoreGetForUpdateLocksRow(t *testing.T) {
	ctx := context.Background()
	tx := stubTx{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock: %s", query)
			}
			if len(args) != 1 || args[0] != "credit-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			credit := dest.(*models.MarketplaceCredit)
			credit.ID = "credit-1"
			return nil
		},
	}
	store := NewCreditStore(stubDB{})
	row, err := store.GetForUpdate(ctx, tx, "credit-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "credit-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestCreditStoreUpdateSupply(t *testing.T) {
	ctx := context.Background()
	remaining := decimal.RequireFromString("40")
	tx := stubTx{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET coins_issued = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[1] != "credit-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			if !args[0].(decimal.Decimal).Equal(remaining) {
				t.Fatalf("unexpected remaining: %#v", args[0])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewCreditStore(stubDB{})
	if err := store.UpdateSupply(ctx, tx, "credit-1", remaining); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreditStoreSetVerificationOnlyMovesPending(t *testing.T) {
	ctx := context.Background()
	verifiedAt := time.Now()
	tx := stubTx{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "verification_status = 'pending'") {
				t.Fatalf("transition must be guarded on pending: %s", query)
			}
			if len(args) != 3 || args[0] != models.VerificationVerified || args[2] != "credit-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 0}, nil
		},
	}
	store := NewCreditStore(stubDB{})
	moved, err := store.SetVerification(ctx, tx, "credit-1", models.VerificationVerified, verifiedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved != 0 {
		t.Fatalf("expected 0 rows moved, got %d", moved)
	}
}

func TestCreditStoreListAppliesFilters(t *testing.T) {
	ctx := context.Background()
	status := models.VerificationVerified
	sourceType := models.SourceForestation
	var countQuery, listQuery string
	store := NewCreditStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			countQuery = query
			*dest.(*int) = 7
			return nil
		},
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			listQuery = query
			if len(args) != 4 {
				t.Fatalf("expected filter + paging args, got %#v", args)
			}
			if args[0] != status || args[1] != sourceType {
				t.Fatalf("unexpected filter args: %#v", args)
			}
			if args[2] != 10 || args[3] != 20 {
				t.Fatalf("unexpected paging args: %#v", args)
			}
			*dest.(*[]models.MarketplaceCredit) = []models.MarketplaceCredit{{ID: "credit-1"}}
			return nil
		},
	})
	rows, total, err := store.List(ctx, CreditFilter{
		VerificationStatus: &status,
		SourceType:         &sourceType,
		Limit:              10,
		Offset:             20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7 || len(rows) != 1 {
		t.Fatalf("unexpected result: total=%d rows=%#v", total, rows)
	}
	if !strings.Contains(countQuery, "verification_status = $1") || !strings.Contains(countQuery, "source_type = $2") {
		t.Fatalf("count query missing filters: %s", countQuery)
	}
	if !strings.Contains(listQuery, "LIMIT $3 OFFSET $4") {
		t.Fatalf("list query missing paging: %s", listQuery)
	}
}

func TestCreditStoreStatsByIssuer(t *testing.T) {
	ctx := context.Background()
	store := NewCreditStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FILTER (WHERE verification_status = 'verified')") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			stats := dest.(*IssuerStats)
			stats.TotalBatches = 3
			stats.VerifiedBatches = 2
			return nil
		},
	})
	stats, err := store.StatsByIssuer(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalBatches != 3 || stats.VerifiedBatches != 2 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}
