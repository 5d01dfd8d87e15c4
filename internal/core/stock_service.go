package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService manages stock records, batches, reservations, and goods
// movements. Concurrent workflows serialize per aggregate through the
// FOR UPDATE lock on the stock record row.
type StockService interface {
	// Standalone operations (manage their own transactions).
	GetStockLevels(ctx context.Context, warehouseID int) ([]StockLevel, error)
	// GetLowStock returns records whose available quantity is at or below the
	// reorder level.
	GetLowStock(ctx context.Context, warehouseID int) ([]StockLevel, error)
	GetStockRecord(ctx context.Context, warehouseID, productID int, variantID *int) (*StockRecord, error)
	// AdjustStock applies a manual correction and appends an ADJUSTMENT row to
	// the stock ledger, atomically.
	AdjustStock(ctx context.Context, m Movement, actor, note string, ledger *Ledger) error

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by the purchase and sale workflows to keep stock changes atomic
	// with document state transitions.

	// ApplyMovementTx applies one quantity delta to a stock record and, when a
	// batch is named, to the matching batch row. It creates the record on a
	// first inbound movement, prunes batches that reach zero, and never
	// touches reservations or the ledger.
	ApplyMovementTx(ctx context.Context, tx pgx.Tx, m Movement) error
	// FIFOConsumeTx removes qty from the record's batches in expiry order
	// (soonest first, no-expiry last, batch number as tiebreak) and returns
	// the per-batch takes.
	FIFOConsumeTx(ctx context.Context, tx pgx.Tx, warehouseID, productID int, variantID *int, qty decimal.Decimal) ([]BatchTake, error)
	// ReserveTx soft-locks qty against the record's available quantity.
	ReserveTx(ctx context.Context, tx pgx.Tx, warehouseID, productID int, variantID *int, qty decimal.Decimal) error
	// ReleaseTx undoes a reservation, flooring reserved at zero.
	ReleaseTx(ctx context.Context, tx pgx.Tx, warehouseID, productID int, variantID *int, qty decimal.Decimal) error
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *stockService) GetStockLevels(ctx context.Context, warehouseID int) ([]StockLevel, error) {
	return s.queryLevels(ctx, `
		SELECT w.id, w.name, p.id, p.sku, p.name, v.id, v.name,
		       sr.quantity, sr.reserved,
		       sr.quantity - sr.reserved AS available,
		       sr.reorder_level
		FROM stock_records sr
		JOIN warehouses w ON w.id = sr.warehouse_id
		JOIN products p   ON p.id = sr.product_id
		LEFT JOIN product_variants v ON v.id = sr.variant_id
		WHERE sr.warehouse_id = $1
		ORDER BY p.sku, v.sku NULLS FIRST
	`, warehouseID)
}

func (s *stockService) GetLowStock(ctx context.Context, warehouseID int) ([]StockLevel, error) {
	return s.queryLevels(ctx, `
		SELECT w.id, w.name, p.id, p.sku, p.name, v.id, v.name,
		       sr.quantity, sr.reserved,
		       sr.quantity - sr.reserved AS available,
		       sr.reorder_level
		FROM stock_records sr
		JOIN warehouses w ON w.id = sr.warehouse_id
		JOIN products p   ON p.id = sr.product_id
		LEFT JOIN product_variants v ON v.id = sr.variant_id
		WHERE sr.warehouse_id = $1
		  AND sr.quantity - sr.reserved <= sr.reorder_level
		ORDER BY p.sku, v.sku NULLS FIRST
	`, warehouseID)
}

func (s *stockService) queryLevels(ctx context.Context, query string, warehouseID int) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(
			&sl.WarehouseID, &sl.WarehouseName,
			&sl.ProductID, &sl.ProductSKU, &sl.ProductName,
			&sl.VariantID, &sl.VariantName,
			&sl.Quantity, &sl.Reserved, &sl.Available, &sl.ReorderLevel,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

func (s *stockService) GetStockRecord(ctx context.Context, warehouseID, productID int, variantID *int) (*StockRecord, error) {
	rec := &StockRecord{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, warehouse_id, product_id, variant_id, quantity, reserved, reorder_level, updated_at
		FROM stock_records
		WHERE warehouse_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
	`, warehouseID, productID, variantID).Scan(
		&rec.ID, &rec.WarehouseID, &rec.ProductID, &rec.VariantID,
		&rec.Quantity, &rec.Reserved, &rec.ReorderLevel, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("warehouse %d product %d: %w", warehouseID, productID, ErrStockRecordNotFound)
		}
		return nil, fmt.Errorf("failed to fetch stock record: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, batch_no, expiry_date, quantity
		FROM stock_batches
		WHERE stock_record_id = $1
		ORDER BY expiry_date ASC NULLS LAST, batch_no ASC
	`, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b StockBatch
		if err := rows.Scan(&b.ID, &b.BatchNo, &b.ExpiryDate, &b.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		rec.Batches = append(rec.Batches, b)
	}
	return rec, rows.Err()
}

func (s *stockService) AdjustStock(ctx context.Context, m Movement, actor, note string, ledger *Ledger) error {
	if m.Qty.IsZero() {
		return fmt.Errorf("adjustment quantity must be non-zero")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.ApplyMovementTx(ctx, tx, m); err != nil {
		return err
	}

	entry := LedgerEntry{
		RefType:     RefTypeAdjustment,
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		BatchNo:     m.BatchNo,
		ExpiryDate:  m.ExpiryDate,
		Note:        note,
		Actor:       actor,
	}
	if m.Qty.IsPositive() {
		entry.QuantityIn = m.Qty
	} else {
		entry.QuantityOut = m.Qty.Neg()
	}
	if err := ledger.AppendTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to append adjustment ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit adjustment: %w", err)
	}
	return nil
}

// ── Movement engine ───────────────────────────────────────────────────────────

func (s *stockService) ApplyMovementTx(ctx context.Context, tx pgx.Tx, m Movement) error {
	if m.Qty.IsZero() {
		return nil
	}

	recordID, onHand, err := lockStockRecordTx(ctx, tx, m.WarehouseID, m.ProductID, m.VariantID)
	if errors.Is(err, pgx.ErrNoRows) {
		if m.Qty.IsNegative() {
			return fmt.Errorf("warehouse %d product %d: %w", m.WarehouseID, m.ProductID, ErrStockRecordNotFound)
		}
		// First inbound movement creates the record.
		err = tx.QueryRow(ctx, `
			INSERT INTO stock_records (warehouse_id, product_id, variant_id, quantity, reserved)
			VALUES ($1, $2, $3, 0, 0)
			RETURNING id
		`, m.WarehouseID, m.ProductID, m.VariantID).Scan(&recordID)
		if err != nil {
			return fmt.Errorf("failed to create stock record: %w", err)
		}
		onHand = decimal.Zero
	} else if err != nil {
		return fmt.Errorf("failed to lock stock record: %w", err)
	}

	newQty := onHand.Add(m.Qty)
	if newQty.IsNegative() {
		return fmt.Errorf("product %d: on hand %s, requested %s: %w",
			m.ProductID, onHand.String(), m.Qty.Neg().String(), ErrInsufficientStock)
	}

	if m.BatchNo != nil {
		if err := applyBatchDeltaTx(ctx, tx, recordID, *m.BatchNo, m.ExpiryDate, m.Qty); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE stock_records SET quantity = $1, updated_at = NOW() WHERE id = $2
	`, newQty, recordID)
	if err != nil {
		return fmt.Errorf("failed to update stock record: %w", err)
	}
	return nil
}

// applyBatchDeltaTx adjusts the batch row matched by (batchNo, expiry) with
// NULL-safe expiry equality. Inbound creates the row; a batch reaching zero
// is deleted.
func applyBatchDeltaTx(ctx context.Context, tx pgx.Tx, recordID int, batchNo string, expiry *time.Time, qty decimal.Decimal) error {
	var batchID int
	var batchQty decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT id, quantity FROM stock_batches
		WHERE stock_record_id = $1 AND batch_no = $2 AND expiry_date IS NOT DISTINCT FROM $3
		FOR UPDATE
	`, recordID, batchNo, expiry).Scan(&batchID, &batchQty)

	if errors.Is(err, pgx.ErrNoRows) {
		if qty.IsNegative() {
			return fmt.Errorf("batch %s not found: %w", batchNo, ErrBatchShortfall)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO stock_batches (stock_record_id, batch_no, expiry_date, quantity)
			VALUES ($1, $2, $3, $4)
		`, recordID, batchNo, expiry, qty)
		if err != nil {
			return fmt.Errorf("failed to create batch %s: %w", batchNo, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lock batch %s: %w", batchNo, err)
	}

	newQty := batchQty.Add(qty)
	if newQty.IsNegative() {
		return fmt.Errorf("batch %s: holds %s, requested %s: %w",
			batchNo, batchQty.String(), qty.Neg().String(), ErrBatchShortfall)
	}
	if newQty.IsZero() {
		if _, err := tx.Exec(ctx, "DELETE FROM stock_batches WHERE id = $1", batchID); err != nil {
			return fmt.Errorf("failed to prune batch %s: %w", batchNo, err)
		}
		return nil
	}
	if _, err := tx.Exec(ctx, "UPDATE stock_batches SET quantity = $1 WHERE id = $2", newQty, batchID); err != nil {
		return fmt.Errorf("failed to update batch %s: %w", batchNo, err)
	}
	return nil
}

// lockStockRecordTx locks the aggregate row for the caller's transaction.
// Returns pgx.ErrNoRows unwrapped so callers can branch on record absence.
func lockStockRecordTx(ctx context.Context, tx pgx.Tx, warehouseID, productID int, variantID *int) (int, decimal.Decimal, error) {
	var id int
	var qty decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT id, quantity FROM stock_records
		WHERE warehouse_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
		FOR UPDATE
	`, warehouseID, productID, variantID).Scan(&id, &qty)
	return id, qty, err
}
