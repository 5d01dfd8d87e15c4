package core_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"inventory-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_ledger, sale_status_history, sale_items, sales,
			purchase_items, purchases, stock_batches, stock_records, ref_sequences,
			product_variants, products, sellers, users, warehouses
		RESTART IDENTITY CASCADE;

		INSERT INTO warehouses (name, location) VALUES ('Main Warehouse', 'Mumbai');

		INSERT INTO sellers (name, email) VALUES ('Direct Store', 'store@example.com');

		INSERT INTO products (sku, name, unit) VALUES
		('TEA-250',  'Assam Tea 250g',   'pcs'),
		('HONEY-1L', 'Wild Honey 1L',    'pcs'),
		('RICE-5KG', 'Basmati Rice 5kg', 'bag');

		INSERT INTO product_variants (product_id, sku, name) VALUES
		(1, 'TEA-250-GRN', 'Green'),
		(1, 'TEA-250-BLK', 'Black');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// dateOf parses a YYYY-MM-DD string into a *time.Time for batch expiries.
func dateOf(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return &d
}

func strPtr(s string) *string { return &s }

// applyMovement runs one movement in its own committed transaction.
func applyMovement(t *testing.T, ctx context.Context, pool *pgxpool.Pool, stock core.StockService, m core.Movement) error {
	t.Helper()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := stock.ApplyMovementTx(ctx, tx, m); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return nil
}

// fifoConsume runs one FIFO consumption in its own committed transaction.
func fifoConsume(t *testing.T, ctx context.Context, pool *pgxpool.Pool, stock core.StockService, warehouseID, productID int, variantID *int, qty decimal.Decimal) ([]core.BatchTake, error) {
	t.Helper()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	takes, err := stock.FIFOConsumeTx(ctx, tx, warehouseID, productID, variantID, qty)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return takes, nil
}

// reserve and release run reservation ops in their own committed transactions.
func reserve(t *testing.T, ctx context.Context, pool *pgxpool.Pool, stock core.StockService, warehouseID, productID int, variantID *int, qty decimal.Decimal) error {
	t.Helper()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := stock.ReserveTx(ctx, tx, warehouseID, productID, variantID, qty); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return nil
}

func release(t *testing.T, ctx context.Context, pool *pgxpool.Pool, stock core.StockService, warehouseID, productID int, variantID *int, qty decimal.Decimal) error {
	t.Helper()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := stock.ReleaseTx(ctx, tx, warehouseID, productID, variantID, qty); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return nil
}

// ── Movement engine ───────────────────────────────────────────────────────────

func TestMovement_FirstInboundCreatesRecord(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), ExpiryDate: dateOf(t, "2027-01-01"),
		Qty: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("ApplyMovementTx failed: %v", err)
	}

	rec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected quantity=10, got %s", rec.Quantity)
	}
	if !rec.Reserved.IsZero() {
		t.Errorf("Expected reserved=0, got %s", rec.Reserved)
	}
	if len(rec.Batches) != 1 || rec.Batches[0].BatchNo != "B1" {
		t.Fatalf("Expected single batch B1, got %+v", rec.Batches)
	}
	if !rec.Batches[0].Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected batch quantity=10, got %s", rec.Batches[0].Quantity)
	}
}

func TestMovement_OutboundWithoutRecord(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, Qty: decimal.NewFromInt(-5),
	})
	if !errors.Is(err, core.ErrStockRecordNotFound) {
		t.Errorf("Expected ErrStockRecordNotFound, got %v", err)
	}
}

func TestMovement_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, Qty: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("Inbound failed: %v", err)
	}

	err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, Qty: decimal.NewFromInt(-8),
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}

	// Nothing changed.
	rec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected quantity=5 after failed outbound, got %s", rec.Quantity)
	}
}

func TestMovement_BatchShortfall(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	// 5 in B1, 5 in B2: total covers the outbound, the named batch does not.
	for _, batch := range []string{"B1", "B2"} {
		if err := applyMovement(t, ctx, pool, stock, core.Movement{
			WarehouseID: 1, ProductID: 1,
			BatchNo: strPtr(batch), Qty: decimal.NewFromInt(5),
		}); err != nil {
			t.Fatalf("Inbound %s failed: %v", batch, err)
		}
	}

	err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), Qty: decimal.NewFromInt(-6),
	})
	if !errors.Is(err, core.ErrBatchShortfall) {
		t.Errorf("Expected ErrBatchShortfall, got %v", err)
	}

	// Unknown batch on outbound is also a shortfall.
	err = applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B9"), Qty: decimal.NewFromInt(-1),
	})
	if !errors.Is(err, core.ErrBatchShortfall) {
		t.Errorf("Expected ErrBatchShortfall for unknown batch, got %v", err)
	}
}

func TestMovement_BatchPrunedAtZero(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), Qty: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("Inbound failed: %v", err)
	}
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), Qty: decimal.NewFromInt(-5),
	}); err != nil {
		t.Fatalf("Outbound failed: %v", err)
	}

	rec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.IsZero() {
		t.Errorf("Expected quantity=0, got %s", rec.Quantity)
	}
	if len(rec.Batches) != 0 {
		t.Errorf("Expected batch row pruned at zero, got %+v", rec.Batches)
	}
}

func TestMovement_NullSafeBatchMatching(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	// Same batch number with and without expiry are distinct lots.
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), ExpiryDate: dateOf(t, "2027-01-01"),
		Qty: decimal.NewFromInt(4),
	}); err != nil {
		t.Fatalf("Inbound with expiry failed: %v", err)
	}
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), Qty: decimal.NewFromInt(6),
	}); err != nil {
		t.Fatalf("Inbound without expiry failed: %v", err)
	}

	rec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if len(rec.Batches) != 2 {
		t.Fatalf("Expected 2 distinct lots, got %+v", rec.Batches)
	}

	// Outbound with nil expiry must hit only the no-expiry lot.
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), Qty: decimal.NewFromInt(-6),
	}); err != nil {
		t.Fatalf("Outbound from no-expiry lot failed: %v", err)
	}

	rec, _ = stock.GetStockRecord(ctx, 1, 1, nil)
	if len(rec.Batches) != 1 || rec.Batches[0].ExpiryDate == nil {
		t.Fatalf("Expected only the dated lot to remain, got %+v", rec.Batches)
	}
	if !rec.Batches[0].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected dated lot untouched at 4, got %s", rec.Batches[0].Quantity)
	}
}

func TestMovement_VariantRecordsAreSeparate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	variantID := 1
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, VariantID: &variantID, Qty: decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("Variant inbound failed: %v", err)
	}
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, Qty: decimal.NewFromInt(7),
	}); err != nil {
		t.Fatalf("Variant-less inbound failed: %v", err)
	}

	variantRec, err := stock.GetStockRecord(ctx, 1, 1, &variantID)
	if err != nil {
		t.Fatalf("GetStockRecord variant failed: %v", err)
	}
	plainRec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord plain failed: %v", err)
	}
	if !variantRec.Quantity.Equal(decimal.NewFromInt(3)) || !plainRec.Quantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected variant=3 plain=7, got variant=%s plain=%s", variantRec.Quantity, plainRec.Quantity)
	}
}

// ── FIFO consumption ──────────────────────────────────────────────────────────

func TestFIFO_ConsumesByExpiryOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	// B1: 5 units expiring 2025-01-01; B2: 10 units expiring 2025-06-01.
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), ExpiryDate: dateOf(t, "2025-01-01"),
		Qty: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("Inbound B1 failed: %v", err)
	}
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B2"), ExpiryDate: dateOf(t, "2025-06-01"),
		Qty: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("Inbound B2 failed: %v", err)
	}

	// Consuming 8 drains B1 (5) and takes 3 from B2.
	takes, err := fifoConsume(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(8))
	if err != nil {
		t.Fatalf("FIFOConsumeTx failed: %v", err)
	}
	if len(takes) != 2 {
		t.Fatalf("Expected 2 takes, got %+v", takes)
	}
	if takes[0].BatchNo != "B1" || !takes[0].Qty.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected first take B1×5, got %s×%s", takes[0].BatchNo, takes[0].Qty)
	}
	if takes[1].BatchNo != "B2" || !takes[1].Qty.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected second take B2×3, got %s×%s", takes[1].BatchNo, takes[1].Qty)
	}

	rec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected quantity=7 after consume, got %s", rec.Quantity)
	}
	if len(rec.Batches) != 1 || rec.Batches[0].BatchNo != "B2" {
		t.Fatalf("Expected B1 pruned and only B2 left, got %+v", rec.Batches)
	}
	if !rec.Batches[0].Quantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected B2 left with 7, got %s", rec.Batches[0].Quantity)
	}
}

func TestFIFO_NoExpirySortsLast(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("KEEP"), Qty: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("Inbound KEEP failed: %v", err)
	}
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("EXP"), ExpiryDate: dateOf(t, "2026-03-01"),
		Qty: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("Inbound EXP failed: %v", err)
	}

	takes, err := fifoConsume(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(6))
	if err != nil {
		t.Fatalf("FIFOConsumeTx failed: %v", err)
	}
	if takes[0].BatchNo != "EXP" || !takes[0].Qty.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected the expiring lot consumed first, got %+v", takes)
	}
	if takes[1].BatchNo != "KEEP" || !takes[1].Qty.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected 1 unit from the no-expiry lot, got %+v", takes)
	}
}

func TestFIFO_BatchNoTiebreakOnEqualExpiry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	// Same expiry on both lots; insertion order deliberately reversed so only
	// the batch number can decide who goes first.
	for _, batch := range []string{"L2", "L1"} {
		if err := applyMovement(t, ctx, pool, stock, core.Movement{
			WarehouseID: 1, ProductID: 1,
			BatchNo: strPtr(batch), ExpiryDate: dateOf(t, "2026-01-01"),
			Qty: decimal.NewFromInt(5),
		}); err != nil {
			t.Fatalf("Inbound %s failed: %v", batch, err)
		}
	}

	takes, err := fifoConsume(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(7))
	if err != nil {
		t.Fatalf("FIFOConsumeTx failed: %v", err)
	}
	if len(takes) != 2 {
		t.Fatalf("Expected 2 takes, got %+v", takes)
	}
	if takes[0].BatchNo != "L1" || !takes[0].Qty.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected first take L1×5, got %s×%s", takes[0].BatchNo, takes[0].Qty)
	}
	if takes[1].BatchNo != "L2" || !takes[1].Qty.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected second take L2×2, got %s×%s", takes[1].BatchNo, takes[1].Qty)
	}
}

func TestFIFO_MissingRecord(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	_, err := fifoConsume(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(1))
	if !errors.Is(err, core.ErrStockRecordNotFound) {
		t.Errorf("Expected ErrStockRecordNotFound, got %v", err)
	}
}

func TestFIFO_ReservedReducesAvailable(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), Qty: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("Inbound failed: %v", err)
	}
	if err := reserve(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("ReserveTx failed: %v", err)
	}

	// 10 on hand minus 5 reserved leaves 6 unavailable.
	_, err := fifoConsume(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(6))
	if !errors.Is(err, core.ErrInsufficientAvailableStock) {
		t.Errorf("Expected ErrInsufficientAvailableStock, got %v", err)
	}

	// 5 fits exactly.
	if _, err := fifoConsume(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("FIFOConsumeTx within available failed: %v", err)
	}
}

func TestFIFO_BatchIntegrity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	// Record carries quantity without any batch rows: consumption cannot be
	// attributed and must fail rather than silently shorting the journal.
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, Qty: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("Inbound failed: %v", err)
	}

	_, err := fifoConsume(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(6))
	if !errors.Is(err, core.ErrBatchIntegrity) {
		t.Errorf("Expected ErrBatchIntegrity, got %v", err)
	}

	// The failed transaction left everything untouched.
	rec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected quantity=10 after rollback, got %s", rec.Quantity)
	}
}

// ── Reservations ──────────────────────────────────────────────────────────────

func TestReservation_ReserveAndRelease(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, Qty: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("Inbound failed: %v", err)
	}

	if err := reserve(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(7)); err != nil {
		t.Fatalf("ReserveTx failed: %v", err)
	}

	// Only 3 remain available.
	err := reserve(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(4))
	if !errors.Is(err, core.ErrInsufficientAvailableStock) {
		t.Errorf("Expected ErrInsufficientAvailableStock, got %v", err)
	}

	// Over-release floors at zero instead of going negative.
	if err := release(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("ReleaseTx failed: %v", err)
	}
	rec, err := stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Reserved.IsZero() {
		t.Errorf("Expected reserved floored at 0, got %s", rec.Reserved)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Reservations must not touch quantity, got %s", rec.Quantity)
	}
}

func TestReservation_MissingRecord(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	err := reserve(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(1))
	if !errors.Is(err, core.ErrStockRecordNotFound) {
		t.Errorf("Expected ErrStockRecordNotFound on reserve, got %v", err)
	}
	err = release(t, ctx, pool, stock, 1, 1, nil, decimal.NewFromInt(1))
	if !errors.Is(err, core.ErrStockRecordNotFound) {
		t.Errorf("Expected ErrStockRecordNotFound on release, got %v", err)
	}
}

// ── Adjustments and read views ────────────────────────────────────────────────

func TestStock_AdjustStockJournals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)
	ledger := core.NewLedger(pool)

	err := stock.AdjustStock(ctx, core.Movement{
		WarehouseID: 1, ProductID: 2,
		BatchNo: strPtr("ADJ-1"), Qty: decimal.NewFromInt(12),
	}, "tester", "opening count", ledger)
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}

	entries, err := ledger.History(ctx, core.LedgerFilter{ProductID: 2})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 ledger entry, got %d", len(entries))
	}
	e := entries[0]
	if e.RefType != core.RefTypeAdjustment {
		t.Errorf("Expected ADJUSTMENT, got %s", e.RefType)
	}
	if !e.QuantityIn.Equal(decimal.NewFromInt(12)) || !e.QuantityOut.IsZero() {
		t.Errorf("Expected in=12 out=0, got in=%s out=%s", e.QuantityIn, e.QuantityOut)
	}
	if e.Actor != "tester" {
		t.Errorf("Expected actor tester, got %q", e.Actor)
	}

	// Negative adjustment journals the other way.
	if err := stock.AdjustStock(ctx, core.Movement{
		WarehouseID: 1, ProductID: 2,
		BatchNo: strPtr("ADJ-1"), Qty: decimal.NewFromInt(-2),
	}, "tester", "damage write-off", ledger); err != nil {
		t.Fatalf("Negative AdjustStock failed: %v", err)
	}

	entries, _ = ledger.History(ctx, core.LedgerFilter{ProductID: 2})
	if len(entries) != 2 {
		t.Fatalf("Expected 2 ledger entries, got %d", len(entries))
	}
	// History is newest first.
	if !entries[0].QuantityOut.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected newest entry out=2, got %s", entries[0].QuantityOut)
	}
}

func TestStock_LowStockView(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	stock := core.NewStockService(pool)

	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 1, Qty: decimal.NewFromInt(20),
	}); err != nil {
		t.Fatalf("Inbound product 1 failed: %v", err)
	}
	if err := applyMovement(t, ctx, pool, stock, core.Movement{
		WarehouseID: 1, ProductID: 2, Qty: decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("Inbound product 2 failed: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"UPDATE stock_records SET reorder_level = 5 WHERE product_id = 2",
	); err != nil {
		t.Fatalf("Failed to set reorder level: %v", err)
	}

	low, err := stock.GetLowStock(ctx, 1)
	if err != nil {
		t.Fatalf("GetLowStock failed: %v", err)
	}
	if len(low) != 1 || low[0].ProductID != 2 {
		t.Fatalf("Expected only product 2 below reorder level, got %+v", low)
	}

	levels, err := stock.GetStockLevels(ctx, 1)
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("Expected 2 stock levels, got %d", len(levels))
	}
}
