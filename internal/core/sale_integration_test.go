package core_test

import (
	"context"
	"errors"
	"testing"

	"inventory-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type saleEnv struct {
	pool   *pgxpool.Pool
	stock  core.StockService
	sales  core.SaleService
	ledger *core.Ledger
	seq    core.SequenceService
}

func setupSaleEnv(t *testing.T) *saleEnv {
	t.Helper()
	pool := setupTestDB(t)
	return &saleEnv{
		pool:   pool,
		stock:  core.NewStockService(pool),
		sales:  core.NewSaleService(pool),
		ledger: core.NewLedger(pool),
		seq:    core.NewSequenceService(pool),
	}
}

// stockBatches loads product 1 with the two-lot layout most tests use:
// B1 5 units expiring first, B2 10 units expiring later.
func (env *saleEnv) stockBatches(t *testing.T, ctx context.Context) {
	t.Helper()
	if err := applyMovement(t, ctx, env.pool, env.stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B1"), ExpiryDate: dateOf(t, "2025-01-01"),
		Qty: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("Inbound B1 failed: %v", err)
	}
	if err := applyMovement(t, ctx, env.pool, env.stock, core.Movement{
		WarehouseID: 1, ProductID: 1,
		BatchNo: strPtr("B2"), ExpiryDate: dateOf(t, "2025-06-01"),
		Qty: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("Inbound B2 failed: %v", err)
	}
}

func createTestSale(t *testing.T, ctx context.Context, env *saleEnv, qty int64) *core.Sale {
	t.Helper()
	s, err := env.sales.CreateSale(ctx, core.SaleInput{
		SellerID:     1,
		WarehouseID:  1,
		CustomerName: "Asha",
		PaymentMode:  core.PaymentModeCOD,
	}, []core.SaleItemInput{
		{ProductID: 1, Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.RequireFromString("2.00")},
	}, "tester", env.seq)
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	return s
}

func TestSale_CreateDraft(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()

	s := createTestSale(t, ctx, env, 10)

	if s.Status != core.SaleStatusDraft {
		t.Errorf("Expected status draft, got %s", s.Status)
	}
	if s.RefNo != "SAL-00001" {
		t.Errorf("Expected ref SAL-00001, got %s", s.RefNo)
	}
	// 10 units at 2.00 each.
	if !s.SubTotal.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("Expected subtotal 20.00, got %s", s.SubTotal)
	}
	if s.DraftAt == nil {
		t.Error("Expected draftAt set on creation")
	}
	if len(s.History) != 1 || s.History[0].Status != core.SaleStatusDraft {
		t.Errorf("Expected single draft history row, got %+v", s.History)
	}
	if s.PaymentStatus != core.PaymentStatusUnpaid {
		t.Errorf("Expected unpaid, got %s", s.PaymentStatus)
	}
}

func TestSale_ConfirmReserves(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	s := createTestSale(t, ctx, env, 8)
	if err := env.sales.ConfirmSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}

	rec, err := env.stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Reserved.Equal(decimal.NewFromInt(8)) {
		t.Errorf("Expected reserved=8, got %s", rec.Reserved)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Confirm must not move quantity, got %s", rec.Quantity)
	}

	got, _ := env.sales.GetSale(ctx, s.ID)
	if got.Status != core.SaleStatusConfirmed {
		t.Errorf("Expected status confirmed, got %s", got.Status)
	}
	if got.ConfirmedAt == nil {
		t.Error("Expected confirmedAt set")
	}
}

func TestSale_ConfirmInsufficientAvailable(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx) // 15 on hand

	first := createTestSale(t, ctx, env, 10)
	if err := env.sales.ConfirmSale(ctx, first.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}

	// Only 5 remain available for the second sale.
	second := createTestSale(t, ctx, env, 6)
	err := env.sales.ConfirmSale(ctx, second.ID, "tester", env.stock)
	if !errors.Is(err, core.ErrInsufficientAvailableStock) {
		t.Errorf("Expected ErrInsufficientAvailableStock, got %v", err)
	}

	// Failed confirmation changed nothing.
	got, _ := env.sales.GetSale(ctx, second.ID)
	if got.Status != core.SaleStatusDraft {
		t.Errorf("Expected second sale still draft, got %s", got.Status)
	}
	rec, _ := env.stock.GetStockRecord(ctx, 1, 1, nil)
	if !rec.Reserved.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected reserved unchanged at 10, got %s", rec.Reserved)
	}
}

func TestSale_FullLifecycle(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	s := createTestSale(t, ctx, env, 8)
	if err := env.sales.ConfirmSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}
	if err := env.sales.MarkOutForDelivery(ctx, s.ID, "BlueDart", "TRK-100", "tester"); err != nil {
		t.Fatalf("MarkOutForDelivery failed: %v", err)
	}
	if err := env.sales.MarkDelivered(ctx, s.ID, "tester", env.stock, env.ledger); err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}

	// Delivery released the reservation and consumed FIFO across the lots.
	rec, err := env.stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected quantity=7 after delivery, got %s", rec.Quantity)
	}
	if !rec.Reserved.IsZero() {
		t.Errorf("Expected reserved=0 after delivery, got %s", rec.Reserved)
	}
	if len(rec.Batches) != 1 || rec.Batches[0].BatchNo != "B2" {
		t.Fatalf("Expected B1 drained and pruned, got %+v", rec.Batches)
	}

	// One SALE journal row per consumed batch, linked by the sale FK.
	entries, err := env.ledger.History(ctx, core.LedgerFilter{RefType: core.RefTypeSale})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 SALE rows, got %d", len(entries))
	}
	for _, e := range entries {
		if e.SaleID == nil || *e.SaleID != s.ID {
			t.Errorf("Expected sale FK %d, got %v", s.ID, e.SaleID)
		}
	}
	// History is newest first: B2 row then B1 row.
	if entries[0].BatchNo == nil || *entries[0].BatchNo != "B2" || !entries[0].QuantityOut.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected B2×3 out, got %+v", entries[0])
	}
	if entries[1].BatchNo == nil || *entries[1].BatchNo != "B1" || !entries[1].QuantityOut.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected B1×5 out, got %+v", entries[1])
	}

	got, _ := env.sales.GetSale(ctx, s.ID)
	if got.Status != core.SaleStatusDelivered {
		t.Errorf("Expected status delivered, got %s", got.Status)
	}
	if got.CourierName == nil || *got.CourierName != "BlueDart" {
		t.Errorf("Expected courier BlueDart, got %v", got.CourierName)
	}
	if got.ConfirmedAt == nil || got.OutForDeliveryAt == nil || got.DeliveredAt == nil {
		t.Error("Expected all transition timestamps set")
	}
	if len(got.History) != 4 {
		t.Errorf("Expected 4 history rows, got %d", len(got.History))
	}
}

func TestSale_DeliverFromConfirmed(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	// Self-fulfilled orders deliver straight from confirmed, skipping dispatch.
	s := createTestSale(t, ctx, env, 4)
	if err := env.sales.ConfirmSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}
	if err := env.sales.MarkDelivered(ctx, s.ID, "tester", env.stock, env.ledger); err != nil {
		t.Fatalf("MarkDelivered from confirmed failed: %v", err)
	}

	got, err := env.sales.GetSale(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if got.Status != core.SaleStatusDelivered {
		t.Errorf("Expected status delivered, got %s", got.Status)
	}
	if got.OutForDeliveryAt != nil {
		t.Errorf("Expected no dispatch timestamp, got %v", got.OutForDeliveryAt)
	}

	rec, err := env.stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(11)) {
		t.Errorf("Expected quantity=11 after delivery, got %s", rec.Quantity)
	}
	if !rec.Reserved.IsZero() {
		t.Errorf("Expected reserved=0 after delivery, got %s", rec.Reserved)
	}

	entries, err := env.ledger.History(ctx, core.LedgerFilter{RefType: core.RefTypeSale})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].QuantityOut.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected one SALE row with out=4, got %+v", entries)
	}

	// Draft sales still cannot be delivered.
	other := createTestSale(t, ctx, env, 1)
	err = env.sales.MarkDelivered(ctx, other.ID, "tester", env.stock, env.ledger)
	if !errors.Is(err, core.ErrInvalidStatusTransition) {
		t.Errorf("Expected ErrInvalidStatusTransition delivering a draft, got %v", err)
	}
}

func TestSale_LineTotalsRoundedPerLine(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()

	s, err := env.sales.CreateSale(ctx, core.SaleInput{
		SellerID: 1, WarehouseID: 1, CustomerName: "Asha", PaymentMode: core.PaymentModeCOD,
	}, []core.SaleItemInput{
		{ProductID: 1, Quantity: decimal.RequireFromString("1.333"), UnitPrice: decimal.RequireFromString("0.75")},
		{ProductID: 2, Quantity: decimal.RequireFromString("0.005"), UnitPrice: decimal.NewFromInt(1)},
	}, "tester", env.seq)
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	// 1.333 × 0.75 = 0.99975 → 1.00; 0.005 × 1 → 0.01.
	if !s.Items[0].LineTotal.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("Expected line total 1.00, got %s", s.Items[0].LineTotal)
	}
	if !s.Items[1].LineTotal.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("Expected line total 0.01, got %s", s.Items[1].LineTotal)
	}
	if !s.SubTotal.Equal(decimal.RequireFromString("1.01")) {
		t.Errorf("Expected subtotal to equal sum of rounded lines (1.01), got %s", s.SubTotal)
	}
}

func TestSale_ReturnRestocksFromLedger(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	s := createTestSale(t, ctx, env, 8)
	if err := env.sales.ConfirmSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}
	if err := env.sales.MarkOutForDelivery(ctx, s.ID, "BlueDart", "TRK-200", "tester"); err != nil {
		t.Fatalf("MarkOutForDelivery failed: %v", err)
	}
	if err := env.sales.MarkDelivered(ctx, s.ID, "tester", env.stock, env.ledger); err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}

	if err := env.sales.ReturnSale(ctx, s.ID, "tester", env.stock, env.ledger, env.seq); err != nil {
		t.Fatalf("ReturnSale failed: %v", err)
	}

	// Every delivered unit is back in its original lot.
	rec, err := env.stock.GetStockRecord(ctx, 1, 1, nil)
	if err != nil {
		t.Fatalf("GetStockRecord failed: %v", err)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected quantity back to 15, got %s", rec.Quantity)
	}
	if len(rec.Batches) != 2 {
		t.Fatalf("Expected both lots restored, got %+v", rec.Batches)
	}
	for _, b := range rec.Batches {
		switch b.BatchNo {
		case "B1":
			if !b.Quantity.Equal(decimal.NewFromInt(5)) {
				t.Errorf("Expected B1 restored to 5, got %s", b.Quantity)
			}
		case "B2":
			if !b.Quantity.Equal(decimal.NewFromInt(10)) {
				t.Errorf("Expected B2 back to 10, got %s", b.Quantity)
			}
		default:
			t.Errorf("Unexpected batch %s", b.BatchNo)
		}
	}

	// Return rows mirror the SALE rows and carry their own reference number.
	returns, err := env.ledger.History(ctx, core.LedgerFilter{RefType: core.RefTypeSaleReturn})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(returns) != 2 {
		t.Fatalf("Expected 2 SALE_RETURN rows, got %d", len(returns))
	}
	for _, e := range returns {
		if e.RefNo != "RET-00001" {
			t.Errorf("Expected ref RET-00001, got %s", e.RefNo)
		}
		if e.SaleID == nil || *e.SaleID != s.ID {
			t.Errorf("Expected sale FK %d, got %v", s.ID, e.SaleID)
		}
		if !e.QuantityOut.IsZero() {
			t.Errorf("Return must journal inbound only, got out=%s", e.QuantityOut)
		}
	}

	got, _ := env.sales.GetSale(ctx, s.ID)
	if got.Status != core.SaleStatusReturned {
		t.Errorf("Expected status returned, got %s", got.Status)
	}
	if got.ReturnedAt == nil {
		t.Error("Expected returnedAt set")
	}
}

func TestSale_ReturnWithoutLedgerRows(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()

	s := createTestSale(t, ctx, env, 2)

	// Force the status past the workflow so no SALE rows were ever written.
	if _, err := env.pool.Exec(ctx,
		"UPDATE sales SET status = 'delivered' WHERE id = $1", s.ID,
	); err != nil {
		t.Fatalf("Failed to force status: %v", err)
	}

	err := env.sales.ReturnSale(ctx, s.ID, "tester", env.stock, env.ledger, env.seq)
	if !errors.Is(err, core.ErrLedgerNotFound) {
		t.Errorf("Expected ErrLedgerNotFound, got %v", err)
	}
}

func TestSale_ReturnRequiresDelivered(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	s := createTestSale(t, ctx, env, 2)
	err := env.sales.ReturnSale(ctx, s.ID, "tester", env.stock, env.ledger, env.seq)
	if !errors.Is(err, core.ErrInvalidStatusTransition) {
		t.Errorf("Expected ErrInvalidStatusTransition returning a draft, got %v", err)
	}
}

func TestSale_CancelIdempotent(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()

	s := createTestSale(t, ctx, env, 2)

	cancelled, err := env.sales.CancelSale(ctx, s.ID, "tester", env.stock)
	if err != nil || !cancelled {
		t.Fatalf("Expected first cancel (true, nil), got (%v, %v)", cancelled, err)
	}
	cancelled, err = env.sales.CancelSale(ctx, s.ID, "tester", env.stock)
	if err != nil || !cancelled {
		t.Errorf("Expected repeat cancel (true, nil), got (%v, %v)", cancelled, err)
	}

	// A missing sale cancels successfully too: the caller's goal state holds.
	cancelled, err = env.sales.CancelSale(ctx, 99999, "tester", env.stock)
	if err != nil || !cancelled {
		t.Errorf("Expected cancel of missing sale (true, nil), got (%v, %v)", cancelled, err)
	}

	// Same for a soft-deleted sale.
	if err := env.sales.DeleteSale(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSale failed: %v", err)
	}
	cancelled, err = env.sales.CancelSale(ctx, s.ID, "tester", env.stock)
	if err != nil || !cancelled {
		t.Errorf("Expected cancel of deleted sale (true, nil), got (%v, %v)", cancelled, err)
	}
}

func TestSale_CancelReleasesReservation(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	s := createTestSale(t, ctx, env, 8)
	if err := env.sales.ConfirmSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}

	cancelled, err := env.sales.CancelSale(ctx, s.ID, "tester", env.stock)
	if err != nil || !cancelled {
		t.Fatalf("CancelSale failed: (%v, %v)", cancelled, err)
	}

	rec, _ := env.stock.GetStockRecord(ctx, 1, 1, nil)
	if !rec.Reserved.IsZero() {
		t.Errorf("Expected reservation released, got %s", rec.Reserved)
	}
	if !rec.Quantity.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Cancel must not move quantity, got %s", rec.Quantity)
	}
}

func TestSale_CancelDeliveredFails(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	s := createTestSale(t, ctx, env, 3)
	if err := env.sales.ConfirmSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}
	if err := env.sales.MarkOutForDelivery(ctx, s.ID, "BlueDart", "TRK-300", "tester"); err != nil {
		t.Fatalf("MarkOutForDelivery failed: %v", err)
	}
	if err := env.sales.MarkDelivered(ctx, s.ID, "tester", env.stock, env.ledger); err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}

	_, err := env.sales.CancelSale(ctx, s.ID, "tester", env.stock)
	if !errors.Is(err, core.ErrInvalidStatusTransition) {
		t.Errorf("Expected ErrInvalidStatusTransition cancelling delivered sale, got %v", err)
	}
}

func TestSale_TrackingNoConflict(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	first := createTestSale(t, ctx, env, 2)
	second := createTestSale(t, ctx, env, 2)
	if err := env.sales.ConfirmSale(ctx, first.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}
	if err := env.sales.ConfirmSale(ctx, second.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}

	if err := env.sales.MarkOutForDelivery(ctx, first.ID, "BlueDart", "TRK-SAME", "tester"); err != nil {
		t.Fatalf("MarkOutForDelivery failed: %v", err)
	}
	err := env.sales.MarkOutForDelivery(ctx, second.ID, "BlueDart", "TRK-SAME", "tester")
	if !errors.Is(err, core.ErrTrackingNoConflict) {
		t.Errorf("Expected ErrTrackingNoConflict, got %v", err)
	}
}

func TestSale_RecordPayment(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()

	s := createTestSale(t, ctx, env, 2)

	// ONLINE payments must name a bank account.
	if err := env.sales.RecordPayment(ctx, s.ID, core.PaymentModeOnline, nil); err == nil {
		t.Error("Expected error for ONLINE payment without bank account")
	}

	if err := env.sales.RecordPayment(ctx, s.ID, core.PaymentModeOnline, strPtr("HDFC-01")); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	got, _ := env.sales.GetSale(ctx, s.ID)
	if got.PaymentStatus != core.PaymentStatusPaid {
		t.Errorf("Expected paid, got %s", got.PaymentStatus)
	}
	if got.PaymentMode != core.PaymentModeOnline {
		t.Errorf("Expected ONLINE, got %s", got.PaymentMode)
	}
	if got.BankAccount == nil || *got.BankAccount != "HDFC-01" {
		t.Errorf("Expected bank account HDFC-01, got %v", got.BankAccount)
	}

	// Cancelled sales do not take payments.
	if _, err := env.pool.Exec(ctx, "UPDATE sales SET status = 'cancelled' WHERE id = $1", s.ID); err != nil {
		t.Fatalf("Failed to force status: %v", err)
	}
	err := env.sales.RecordPayment(ctx, s.ID, core.PaymentModeCOD, nil)
	if !errors.Is(err, core.ErrInvalidStatusTransition) {
		t.Errorf("Expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestSale_DeleteRequiresDraftOrCancelled(t *testing.T) {
	env := setupSaleEnv(t)
	defer env.pool.Close()
	ctx := context.Background()
	env.stockBatches(t, ctx)

	s := createTestSale(t, ctx, env, 2)
	if err := env.sales.ConfirmSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("ConfirmSale failed: %v", err)
	}

	err := env.sales.DeleteSale(ctx, s.ID)
	if !errors.Is(err, core.ErrInvalidStatusTransition) {
		t.Errorf("Expected ErrInvalidStatusTransition deleting confirmed sale, got %v", err)
	}

	if _, err := env.sales.CancelSale(ctx, s.ID, "tester", env.stock); err != nil {
		t.Fatalf("CancelSale failed: %v", err)
	}
	if err := env.sales.DeleteSale(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSale after cancel failed: %v", err)
	}
	if _, err := env.sales.GetSale(ctx, s.ID); err == nil {
		t.Error("Expected GetSale to fail after delete")
	}
}
