package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ReserveTx soft-locks qty on the aggregate within the caller's TX. Fails when
// available quantity (on hand minus already reserved) cannot cover qty.
func (s *stockService) ReserveTx(ctx context.Context, tx pgx.Tx, warehouseID, productID int, variantID *int, qty decimal.Decimal) error {
	if qty.IsNegative() || qty.IsZero() {
		return fmt.Errorf("reserve quantity must be positive, got %s", qty)
	}

	var recordID int
	var onHand, reserved decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT id, quantity, reserved FROM stock_records
		WHERE warehouse_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
		FOR UPDATE
	`, warehouseID, productID, variantID).Scan(&recordID, &onHand, &reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("warehouse %d product %d: %w", warehouseID, productID, ErrStockRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock stock record: %w", err)
	}

	available := onHand.Sub(reserved)
	if available.LessThan(qty) {
		return fmt.Errorf("product %d: available %s, requested %s: %w",
			productID, available.String(), qty.String(), ErrInsufficientAvailableStock)
	}

	_, err = tx.Exec(ctx, `
		UPDATE stock_records SET reserved = reserved + $1, updated_at = NOW() WHERE id = $2
	`, qty, recordID)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	return nil
}

// ReleaseTx undoes a reservation within the caller's TX. Reserved is floored
// at zero so repeated releases cannot drive it negative.
func (s *stockService) ReleaseTx(ctx context.Context, tx pgx.Tx, warehouseID, productID int, variantID *int, qty decimal.Decimal) error {
	if qty.IsNegative() || qty.IsZero() {
		return fmt.Errorf("release quantity must be positive, got %s", qty)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE stock_records
		SET reserved = GREATEST(reserved - $1, 0), updated_at = NOW()
		WHERE warehouse_id = $2 AND product_id = $3 AND variant_id IS NOT DISTINCT FROM $4
	`, qty, warehouseID, productID, variantID)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("warehouse %d product %d: %w", warehouseID, productID, ErrStockRecordNotFound)
	}
	return nil
}
