package core_test

import (
	"context"
	"testing"

	"inventory-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// appendEntry writes one journal row in its own committed transaction.
func appendEntry(t *testing.T, ctx context.Context, pool *pgxpool.Pool, ledger *core.Ledger, e core.LedgerEntry) error {
	t.Helper()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := ledger.AppendTx(ctx, tx, e); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return nil
}

func TestLedger_RejectsMalformedEntries(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	ledger := core.NewLedger(pool)

	base := core.LedgerEntry{
		RefType:     core.RefTypeAdjustment,
		WarehouseID: 1,
		ProductID:   1,
		Actor:       "tester",
	}

	e := base
	e.RefType = "SHRINKAGE"
	e.QuantityIn = decimal.NewFromInt(1)
	if err := appendEntry(t, ctx, pool, ledger, e); err == nil {
		t.Error("Expected error for unknown ref type")
	}

	// Both directions at once.
	e = base
	e.QuantityIn = decimal.NewFromInt(1)
	e.QuantityOut = decimal.NewFromInt(1)
	if err := appendEntry(t, ctx, pool, ledger, e); err == nil {
		t.Error("Expected error for entry moving quantity both ways")
	}

	// Neither direction.
	e = base
	if err := appendEntry(t, ctx, pool, ledger, e); err == nil {
		t.Error("Expected error for entry moving no quantity")
	}

	e = base
	e.QuantityIn = decimal.NewFromInt(-3)
	if err := appendEntry(t, ctx, pool, ledger, e); err == nil {
		t.Error("Expected error for negative quantity")
	}
}

func TestLedger_HistoryFilters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	ledger := core.NewLedger(pool)

	seed := []core.LedgerEntry{
		{RefType: core.RefTypeOpening, WarehouseID: 1, ProductID: 1, QuantityIn: decimal.NewFromInt(10), Actor: "tester"},
		{RefType: core.RefTypeAdjustment, WarehouseID: 1, ProductID: 1, QuantityOut: decimal.NewFromInt(2), Actor: "tester"},
		{RefType: core.RefTypeAdjustment, WarehouseID: 1, ProductID: 2, QuantityIn: decimal.NewFromInt(4), Actor: "tester"},
	}
	for i, e := range seed {
		if err := appendEntry(t, ctx, pool, ledger, e); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	adjustments, err := ledger.History(ctx, core.LedgerFilter{RefType: core.RefTypeAdjustment})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(adjustments) != 2 {
		t.Errorf("Expected 2 adjustments, got %d", len(adjustments))
	}

	product1, err := ledger.History(ctx, core.LedgerFilter{ProductID: 1})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(product1) != 2 {
		t.Errorf("Expected 2 entries for product 1, got %d", len(product1))
	}
	// Newest first.
	if product1[0].RefType != core.RefTypeAdjustment || product1[1].RefType != core.RefTypeOpening {
		t.Errorf("Expected [ADJUSTMENT, OPENING], got [%s, %s]", product1[0].RefType, product1[1].RefType)
	}

	limited, err := ledger.History(ctx, core.LedgerFilter{Limit: 1})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit respected, got %d entries", len(limited))
	}
}

func TestSequence_NumbersArePerTypeAndGapless(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	seq := core.NewSequenceService(pool)

	next := func(typeCode string, commit bool) string {
		tx, err := pool.Begin(ctx)
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		defer tx.Rollback(ctx)

		refNo, err := seq.NextRefNoTx(ctx, tx, typeCode)
		if err != nil {
			t.Fatalf("NextRefNoTx failed: %v", err)
		}
		if commit {
			if err := tx.Commit(ctx); err != nil {
				t.Fatalf("Commit failed: %v", err)
			}
		}
		return refNo
	}

	if got := next("PUR", true); got != "PUR-00001" {
		t.Errorf("Expected PUR-00001, got %s", got)
	}
	if got := next("PUR", true); got != "PUR-00002" {
		t.Errorf("Expected PUR-00002, got %s", got)
	}
	// Counters are independent per type code.
	if got := next("SAL", true); got != "SAL-00001" {
		t.Errorf("Expected SAL-00001, got %s", got)
	}
	// A rolled-back transaction does not burn a number.
	next("PUR", false)
	if got := next("PUR", true); got != "PUR-00003" {
		t.Errorf("Expected PUR-00003 after rollback, got %s", got)
	}
}
