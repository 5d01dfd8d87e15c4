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

type purchaseService struct {
	pool *pgxpool.Pool
}

// NewPurchaseService constructs a PurchaseService backed by PostgreSQL.
func NewPurchaseService(pool *pgxpool.Pool) PurchaseService {
	return &purchaseService{pool: pool}
}

// CreatePurchase creates a draft purchase with computed line totals.
func (s *purchaseService) CreatePurchase(ctx context.Context, input PurchaseInput, items []PurchaseItemInput, actor string, seq SequenceService) (*Purchase, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("purchase must have at least one item")
	}
	if input.SupplierName == "" {
		return nil, fmt.Errorf("supplier name cannot be empty")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var warehouseExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)",
		input.WarehouseID,
	).Scan(&warehouseExists); err != nil {
		return nil, fmt.Errorf("validate warehouse: %w", err)
	}
	if !warehouseExists {
		return nil, fmt.Errorf("warehouse %d not found", input.WarehouseID)
	}

	// Resolve lines and compute totals
	type resolvedItem struct {
		productID  int
		variantID  *int
		batchNo    *string
		expiryDate *time.Time
		quantity   decimal.Decimal
		unitPrice  decimal.Decimal
		lineTotal  decimal.Decimal
	}

	var resolved []resolvedItem
	var subTotal decimal.Decimal

	for i, item := range items {
		if item.Quantity.IsZero() || item.Quantity.IsNegative() {
			return nil, fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if err := validateCatalogRefTx(ctx, tx, item.ProductID, item.VariantID); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}

		// Round per line so sub_total always equals the sum of stored lines.
		lineTotal := item.Quantity.Mul(item.UnitPrice).Round(2)
		subTotal = subTotal.Add(lineTotal)
		resolved = append(resolved, resolvedItem{
			productID:  item.ProductID,
			variantID:  item.VariantID,
			batchNo:    item.BatchNo,
			expiryDate: item.ExpiryDate,
			quantity:   item.Quantity,
			unitPrice:  item.UnitPrice,
			lineTotal:  lineTotal,
		})
	}

	totalAmount := subTotal.Add(input.TaxAmount)

	refNo, err := seq.NextRefNoTx(ctx, tx, "PUR")
	if err != nil {
		return nil, err
	}

	var purchaseID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchases (ref_no, supplier_name, invoice_no, warehouse_id, purchase_date,
		                       status, sub_total, tax_amount, total_amount, note, created_by)
		VALUES ($1, $2, $3, $4, $5, 'draft', $6, $7, $8, $9, $10)
		RETURNING id`,
		refNo, input.SupplierName, input.InvoiceNo, input.WarehouseID, input.PurchaseDate.Format("2006-01-02"),
		subTotal, input.TaxAmount, totalAmount, input.Note, actor,
	).Scan(&purchaseID); err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	for i, ri := range resolved {
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, variant_id, batch_no, expiry_date,
			                            quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			purchaseID, ri.productID, ri.variantID, ri.batchNo, ri.expiryDate,
			ri.quantity, ri.unitPrice, ri.lineTotal,
		); err != nil {
			return nil, fmt.Errorf("insert purchase item %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}

	return s.GetPurchase(ctx, purchaseID)
}

// UpdatePurchase edits a purchase that has not been posted to stock. Header
// fields are overwritten; a non-empty items slice replaces every line and
// totals are recomputed from scratch.
func (s *purchaseService) UpdatePurchase(ctx context.Context, purchaseID int, input PurchaseInput, items []PurchaseItemInput) (*Purchase, error) {
	if input.SupplierName == "" {
		return nil, fmt.Errorf("supplier name cannot be empty")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var postedToStock, isDeleted bool
	err = tx.QueryRow(ctx,
		"SELECT status, posted_to_stock, is_deleted FROM purchases WHERE id = $1 FOR UPDATE",
		purchaseID,
	).Scan(&status, &postedToStock, &isDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d not found", purchaseID)
		}
		return nil, fmt.Errorf("fetch purchase %d: %w", purchaseID, err)
	}
	if isDeleted {
		return nil, fmt.Errorf("purchase %d not found", purchaseID)
	}
	if postedToStock || (status != PurchaseStatusDraft && status != PurchaseStatusConfirmed) {
		return nil, fmt.Errorf("purchase %d cannot be edited: status is %s: %w",
			purchaseID, status, ErrInvalidStatusTransition)
	}

	var warehouseExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)",
		input.WarehouseID,
	).Scan(&warehouseExists); err != nil {
		return nil, fmt.Errorf("validate warehouse: %w", err)
	}
	if !warehouseExists {
		return nil, fmt.Errorf("warehouse %d not found", input.WarehouseID)
	}

	var subTotal decimal.Decimal
	if len(items) > 0 {
		if _, err := tx.Exec(ctx,
			"DELETE FROM purchase_items WHERE purchase_id = $1", purchaseID,
		); err != nil {
			return nil, fmt.Errorf("replace items for purchase %d: %w", purchaseID, err)
		}
		for i, item := range items {
			if item.Quantity.IsZero() || item.Quantity.IsNegative() {
				return nil, fmt.Errorf("item %d: quantity must be positive", i+1)
			}
			if err := validateCatalogRefTx(ctx, tx, item.ProductID, item.VariantID); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
			lineTotal := item.Quantity.Mul(item.UnitPrice).Round(2)
			subTotal = subTotal.Add(lineTotal)
			if _, err := tx.Exec(ctx, `
				INSERT INTO purchase_items (purchase_id, product_id, variant_id, batch_no, expiry_date,
				                            quantity, unit_price, line_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				purchaseID, item.ProductID, item.VariantID, item.BatchNo, item.ExpiryDate,
				item.Quantity, item.UnitPrice, lineTotal,
			); err != nil {
				return nil, fmt.Errorf("insert purchase item %d: %w", i+1, err)
			}
		}
	} else {
		if err := tx.QueryRow(ctx,
			"SELECT COALESCE(SUM(line_total), 0) FROM purchase_items WHERE purchase_id = $1",
			purchaseID,
		).Scan(&subTotal); err != nil {
			return nil, fmt.Errorf("sum items for purchase %d: %w", purchaseID, err)
		}
	}
	totalAmount := subTotal.Add(input.TaxAmount)

	if _, err := tx.Exec(ctx, `
		UPDATE purchases
		SET supplier_name = $1, invoice_no = $2, warehouse_id = $3, purchase_date = $4,
		    sub_total = $5, tax_amount = $6, total_amount = $7, note = $8, updated_at = NOW()
		WHERE id = $9`,
		input.SupplierName, input.InvoiceNo, input.WarehouseID, input.PurchaseDate.Format("2006-01-02"),
		subTotal, input.TaxAmount, totalAmount, input.Note, purchaseID,
	); err != nil {
		return nil, fmt.Errorf("update purchase %d: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase update: %w", err)
	}

	return s.GetPurchase(ctx, purchaseID)
}

// ConfirmPurchase transitions draft → confirmed.
func (s *purchaseService) ConfirmPurchase(ctx context.Context, purchaseID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockPurchaseStatusTx(ctx, tx, purchaseID)
	if err != nil {
		return err
	}
	if status != PurchaseStatusDraft {
		return fmt.Errorf("purchase %d cannot be confirmed: status is %s (must be draft): %w",
			purchaseID, status, ErrInvalidStatusTransition)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchases SET status = 'confirmed', updated_at = NOW() WHERE id = $1",
		purchaseID,
	); err != nil {
		return fmt.Errorf("confirm purchase %d: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit purchase confirmation: %w", err)
	}
	return nil
}

// ReceivePurchase posts a confirmed purchase to stock. Every item lands as an
// inbound movement plus a PURCHASE ledger row, and postedToStock flips, all in
// one transaction. Any item failure rolls back the whole receipt.
func (s *purchaseService) ReceivePurchase(ctx context.Context, purchaseID int, actor string, stock StockService, ledger *Ledger) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockPurchaseStatusTx(ctx, tx, purchaseID)
	if err != nil {
		return err
	}
	if status != PurchaseStatusConfirmed {
		return fmt.Errorf("purchase %d cannot be received: status is %s (must be confirmed): %w",
			purchaseID, status, ErrInvalidStatusTransition)
	}

	var refNo string
	var warehouseID int
	if err := tx.QueryRow(ctx,
		"SELECT ref_no, warehouse_id FROM purchases WHERE id = $1",
		purchaseID,
	).Scan(&refNo, &warehouseID); err != nil {
		return fmt.Errorf("fetch purchase %d header: %w", purchaseID, err)
	}

	items, err := fetchPurchaseItemsQ(ctx, tx, purchaseID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := stock.ApplyMovementTx(ctx, tx, Movement{
			WarehouseID: warehouseID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			BatchNo:     item.BatchNo,
			ExpiryDate:  item.ExpiryDate,
			Qty:         item.Quantity,
		}); err != nil {
			return fmt.Errorf("post purchase %d item %d to stock: %w", purchaseID, item.ID, err)
		}

		pid := purchaseID
		if err := ledger.AppendTx(ctx, tx, LedgerEntry{
			RefType:     RefTypePurchase,
			PurchaseID:  &pid,
			RefNo:       refNo,
			WarehouseID: warehouseID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			BatchNo:     item.BatchNo,
			ExpiryDate:  item.ExpiryDate,
			QuantityIn:  item.Quantity,
			Note:        fmt.Sprintf("goods receipt for %s", refNo),
			Actor:       actor,
		}); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchases
		SET status = 'received', posted_to_stock = true, updated_at = NOW()
		WHERE id = $1`,
		purchaseID,
	); err != nil {
		return fmt.Errorf("update purchase %d to received: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit purchase receipt: %w", err)
	}
	return nil
}

// CancelPurchase cancels a draft or confirmed purchase. Already-cancelled is
// a no-op returning true.
func (s *purchaseService) CancelPurchase(ctx context.Context, purchaseID int) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockPurchaseStatusTx(ctx, tx, purchaseID)
	if err != nil {
		return false, err
	}

	if status == PurchaseStatusCancelled {
		return true, nil
	}
	if status != PurchaseStatusDraft && status != PurchaseStatusConfirmed {
		return false, fmt.Errorf("purchase %d cannot be cancelled: status is %s: %w",
			purchaseID, status, ErrInvalidStatusTransition)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchases SET status = 'cancelled', updated_at = NOW() WHERE id = $1",
		purchaseID,
	); err != nil {
		return false, fmt.Errorf("cancel purchase %d: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit purchase cancellation: %w", err)
	}
	return true, nil
}

// DeletePurchase soft-deletes a purchase. When the purchase was posted to
// stock, every item is reversed first; a shortfall anywhere aborts the whole
// operation and nothing changes.
func (s *purchaseService) DeletePurchase(ctx context.Context, purchaseID int, actor string, stock StockService, ledger *Ledger) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status, refNo string
	var warehouseID int
	var postedToStock, isDeleted bool
	err = tx.QueryRow(ctx, `
		SELECT status, ref_no, warehouse_id, posted_to_stock, is_deleted
		FROM purchases WHERE id = $1
		FOR UPDATE`,
		purchaseID,
	).Scan(&status, &refNo, &warehouseID, &postedToStock, &isDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("purchase %d not found", purchaseID)
		}
		return fmt.Errorf("fetch purchase %d: %w", purchaseID, err)
	}
	if isDeleted {
		return nil
	}

	if postedToStock {
		items, err := fetchPurchaseItemsQ(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		for _, item := range items {
			err := stock.ApplyMovementTx(ctx, tx, Movement{
				WarehouseID: warehouseID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				BatchNo:     item.BatchNo,
				ExpiryDate:  item.ExpiryDate,
				Qty:         item.Quantity.Neg(),
			})
			if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrBatchShortfall) || errors.Is(err, ErrStockRecordNotFound) {
				return fmt.Errorf("purchase %d item %d: %w: %w", purchaseID, item.ID, ErrRollbackInsufficientStock, err)
			}
			if err != nil {
				return fmt.Errorf("reverse purchase %d item %d: %w", purchaseID, item.ID, err)
			}

			pid := purchaseID
			if err := ledger.AppendTx(ctx, tx, LedgerEntry{
				RefType:     RefTypePurchaseReversal,
				PurchaseID:  &pid,
				RefNo:       refNo,
				WarehouseID: warehouseID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				BatchNo:     item.BatchNo,
				ExpiryDate:  item.ExpiryDate,
				QuantityOut: item.Quantity,
				Note:        fmt.Sprintf("reversal on delete of %s", refNo),
				Actor:       actor,
			}); err != nil {
				return err
			}
		}
	}

	// The persisted row reads as a cancelled, unposted document.
	if _, err := tx.Exec(ctx, `
		UPDATE purchases
		SET is_deleted = true, deleted_at = NOW(),
		    status = 'cancelled', posted_to_stock = false, updated_at = NOW()
		WHERE id = $1`,
		purchaseID,
	); err != nil {
		return fmt.Errorf("delete purchase %d: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit purchase deletion: %w", err)
	}
	return nil
}

// GetPurchase returns a purchase by ID, including items. Soft-deleted
// purchases are not found.
func (s *purchaseService) GetPurchase(ctx context.Context, purchaseID int) (*Purchase, error) {
	p := &Purchase{}
	err := s.pool.QueryRow(ctx, selectPurchase+" WHERE id = $1 AND is_deleted = false", purchaseID).Scan(
		&p.ID, &p.RefNo, &p.SupplierName, &p.InvoiceNo, &p.WarehouseID, &p.PurchaseDate,
		&p.Status, &p.SubTotal, &p.TaxAmount, &p.TotalAmount, &p.Note,
		&p.PostedToStock, &p.CreatedBy, &p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d not found", purchaseID)
		}
		return nil, fmt.Errorf("get purchase %d: %w", purchaseID, err)
	}

	items, err := fetchPurchaseItemsQ(ctx, s.pool, purchaseID)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}

// GetPurchases lists purchases newest first, narrowed by the filter and
// excluding soft-deleted documents.
func (s *purchaseService) GetPurchases(ctx context.Context, f PurchaseFilter) ([]Purchase, error) {
	query := selectPurchase + " WHERE is_deleted = false"
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}
	if f.Status != "" {
		add(" AND status = $%d", f.Status)
	}
	if f.WarehouseID != 0 {
		add(" AND warehouse_id = $%d", f.WarehouseID)
	}
	if f.From != nil {
		add(" AND purchase_date >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND purchase_date <= $%d", *f.To)
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	add(" LIMIT $%d", limit)
	if f.Offset > 0 {
		add(" OFFSET $%d", f.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(
			&p.ID, &p.RefNo, &p.SupplierName, &p.InvoiceNo, &p.WarehouseID, &p.PurchaseDate,
			&p.Status, &p.SubTotal, &p.TaxAmount, &p.TotalAmount, &p.Note,
			&p.PostedToStock, &p.CreatedBy, &p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

const selectPurchase = `
	SELECT id, ref_no, supplier_name, invoice_no, warehouse_id, purchase_date,
	       status, sub_total, tax_amount, total_amount, note,
	       posted_to_stock, created_by, is_deleted, deleted_at, created_at, updated_at
	FROM purchases`

// lockPurchaseStatusTx locks the purchase header row and returns its status.
// Soft-deleted purchases report not found.
func lockPurchaseStatusTx(ctx context.Context, tx pgx.Tx, purchaseID int) (string, error) {
	var status string
	var isDeleted bool
	err := tx.QueryRow(ctx,
		"SELECT status, is_deleted FROM purchases WHERE id = $1 FOR UPDATE",
		purchaseID,
	).Scan(&status, &isDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("purchase %d not found", purchaseID)
		}
		return "", fmt.Errorf("fetch purchase %d: %w", purchaseID, err)
	}
	if isDeleted {
		return "", fmt.Errorf("purchase %d not found", purchaseID)
	}
	return status, nil
}

// pgxQuerier is the subset of pgxpool.Pool and pgx.Tx used by shared fetch
// helpers, so one query path serves both standalone and TX-scoped callers.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// fetchPurchaseItemsQ works against both the pool and a transaction.
func fetchPurchaseItemsQ(ctx context.Context, q pgxQuerier, purchaseID int) ([]PurchaseItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, purchase_id, product_id, variant_id, batch_no, expiry_date,
		       quantity, unit_price, line_total
		FROM purchase_items
		WHERE purchase_id = $1
		ORDER BY id`,
		purchaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch items for purchase %d: %w", purchaseID, err)
	}
	defer rows.Close()

	var items []PurchaseItem
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(
			&it.ID, &it.PurchaseID, &it.ProductID, &it.VariantID, &it.BatchNo, &it.ExpiryDate,
			&it.Quantity, &it.UnitPrice, &it.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan purchase item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// validateCatalogRefTx checks that the product, and the variant when given,
// exist and belong together.
func validateCatalogRefTx(ctx context.Context, tx pgx.Tx, productID int, variantID *int) error {
	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", productID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("validate product: %w", err)
	}
	if !exists {
		return fmt.Errorf("product %d not found", productID)
	}
	if variantID != nil {
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM product_variants WHERE id = $1 AND product_id = $2)",
			*variantID, productID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("validate variant: %w", err)
		}
		if !exists {
			return fmt.Errorf("variant %d not found for product %d", *variantID, productID)
		}
	}
	return nil
}
