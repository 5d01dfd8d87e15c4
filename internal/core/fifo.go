package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FIFOConsumeTx walks the record's batches in consumption order and removes
// qty in total. Order: soonest expiry first, batches without an expiry date
// last, batch number as tiebreak. Batches emptied by the walk are deleted.
func (s *stockService) FIFOConsumeTx(ctx context.Context, tx pgx.Tx, warehouseID, productID int, variantID *int, qty decimal.Decimal) ([]BatchTake, error) {
	if qty.IsNegative() || qty.IsZero() {
		return nil, fmt.Errorf("consume quantity must be positive, got %s", qty)
	}

	recordID, onHand, err := lockStockRecordTx(ctx, tx, warehouseID, productID, variantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("warehouse %d product %d: %w", warehouseID, productID, ErrStockRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock record: %w", err)
	}

	var reserved decimal.Decimal
	if err := tx.QueryRow(ctx, "SELECT reserved FROM stock_records WHERE id = $1", recordID).Scan(&reserved); err != nil {
		return nil, fmt.Errorf("failed to read reservation: %w", err)
	}
	available := onHand.Sub(reserved)
	if available.LessThan(qty) {
		return nil, fmt.Errorf("product %d: available %s, requested %s: %w",
			productID, available.String(), qty.String(), ErrInsufficientAvailableStock)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, batch_no, expiry_date, quantity
		FROM stock_batches
		WHERE stock_record_id = $1
		ORDER BY expiry_date ASC NULLS LAST, batch_no ASC
		FOR UPDATE
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}

	var batches []StockBatch
	for rows.Next() {
		var b StockBatch
		if err := rows.Scan(&b.ID, &b.BatchNo, &b.ExpiryDate, &b.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}

	remaining := qty
	var takes []BatchTake
	for _, b := range batches {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(b.Quantity, remaining)
		remaining = remaining.Sub(take)
		takes = append(takes, BatchTake{BatchNo: b.BatchNo, ExpiryDate: b.ExpiryDate, Qty: take})

		left := b.Quantity.Sub(take)
		if left.IsZero() {
			if _, err := tx.Exec(ctx, "DELETE FROM stock_batches WHERE id = $1", b.ID); err != nil {
				return nil, fmt.Errorf("failed to prune batch %s: %w", b.BatchNo, err)
			}
		} else {
			if _, err := tx.Exec(ctx, "UPDATE stock_batches SET quantity = $1 WHERE id = $2", left, b.ID); err != nil {
				return nil, fmt.Errorf("failed to update batch %s: %w", b.BatchNo, err)
			}
		}
	}

	if remaining.IsPositive() {
		return nil, fmt.Errorf("product %d: %s uncovered after batch walk: %w",
			productID, remaining.String(), ErrBatchIntegrity)
	}

	_, err = tx.Exec(ctx, `
		UPDATE stock_records SET quantity = quantity - $1, updated_at = NOW() WHERE id = $2
	`, qty, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct stock record: %w", err)
	}
	return takes, nil
}
