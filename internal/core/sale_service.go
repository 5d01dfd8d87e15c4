package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type saleService struct {
	pool *pgxpool.Pool
}

// NewSaleService constructs a SaleService backed by PostgreSQL.
func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

// statusTimestampColumn maps each status to its first-occurrence timestamp
// column. Used to build UPDATEs; never derived from user input directly.
var statusTimestampColumn = map[string]string{
	SaleStatusDraft:          "draft_at",
	SaleStatusConfirmed:      "confirmed_at",
	SaleStatusOutForDelivery: "out_for_delivery_at",
	SaleStatusDelivered:      "delivered_at",
	SaleStatusCancelled:      "cancelled_at",
	SaleStatusReturned:       "returned_at",
}

// CreateSale creates a draft sale with computed line totals.
func (s *saleService) CreateSale(ctx context.Context, input SaleInput, items []SaleItemInput, actor string, seq SequenceService) (*Sale, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("sale must have at least one item")
	}
	paymentMode := input.PaymentMode
	if paymentMode == "" {
		paymentMode = PaymentModeCOD
	}
	if paymentMode != PaymentModeCOD && paymentMode != PaymentModeOnline {
		return nil, fmt.Errorf("unknown payment mode %q", paymentMode)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM sellers WHERE id = $1)", input.SellerID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("validate seller: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("seller %d not found", input.SellerID)
	}
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)", input.WarehouseID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("validate warehouse: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("warehouse %d not found", input.WarehouseID)
	}

	var subTotal decimal.Decimal
	type resolvedItem struct {
		input     SaleItemInput
		lineTotal decimal.Decimal
	}
	var resolved []resolvedItem
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
		resolved = append(resolved, resolvedItem{input: item, lineTotal: lineTotal})
	}
	totalAmount := subTotal.Add(input.TaxAmount)

	refNo, err := seq.NextRefNoTx(ctx, tx, "SAL")
	if err != nil {
		return nil, err
	}

	var saleID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO sales (ref_no, seller_id, warehouse_id, customer_name, customer_phone,
		                   status, sub_total, tax_amount, total_amount, payment_mode,
		                   draft_at, created_by)
		VALUES ($1, $2, $3, $4, $5, 'draft', $6, $7, $8, $9, NOW(), $10)
		RETURNING id`,
		refNo, input.SellerID, input.WarehouseID, input.CustomerName, input.CustomerPhone,
		subTotal, input.TaxAmount, totalAmount, paymentMode, actor,
	).Scan(&saleID); err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	for i, ri := range resolved {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, product_id, variant_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			saleID, ri.input.ProductID, ri.input.VariantID, ri.input.Quantity, ri.input.UnitPrice, ri.lineTotal,
		); err != nil {
			return nil, fmt.Errorf("insert sale item %d: %w", i+1, err)
		}
	}

	if err := pushStatusHistoryTx(ctx, tx, saleID, SaleStatusDraft, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

// ConfirmSale reserves stock for every item and transitions draft → confirmed.
func (s *saleService) ConfirmSale(ctx context.Context, saleID int, actor string, stock StockService) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockActiveSaleTx(ctx, tx, saleID)
	if err != nil {
		return err
	}
	if hdr.status != SaleStatusDraft {
		return fmt.Errorf("sale %d cannot be confirmed: status is %s (must be draft): %w",
			saleID, hdr.status, ErrInvalidStatusTransition)
	}

	items, err := fetchSaleItemsQ(ctx, tx, saleID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := stock.ReserveTx(ctx, tx, hdr.warehouseID, item.ProductID, item.VariantID, item.Quantity); err != nil {
			return fmt.Errorf("reserve stock for sale %d item %d: %w", saleID, item.ID, err)
		}
	}

	if err := transitionSaleTx(ctx, tx, saleID, SaleStatusConfirmed, actor); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sale confirmation: %w", err)
	}
	return nil
}

// MarkOutForDelivery records courier details and transitions
// confirmed → out_for_delivery.
func (s *saleService) MarkOutForDelivery(ctx context.Context, saleID int, courierName, trackingNo, actor string) error {
	if courierName == "" || trackingNo == "" {
		return fmt.Errorf("courier name and tracking number are required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockActiveSaleTx(ctx, tx, saleID)
	if err != nil {
		return err
	}
	if hdr.status != SaleStatusConfirmed {
		return fmt.Errorf("sale %d cannot go out for delivery: status is %s (must be confirmed): %w",
			saleID, hdr.status, ErrInvalidStatusTransition)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sales SET courier_name = $1, tracking_no = $2, updated_at = NOW() WHERE id = $3`,
		courierName, trackingNo, saleID,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("sale %d: %w", saleID, ErrTrackingNoConflict)
		}
		return fmt.Errorf("set courier details for sale %d: %w", saleID, err)
	}

	if err := transitionSaleTx(ctx, tx, saleID, SaleStatusOutForDelivery, actor); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit out-for-delivery: %w", err)
	}
	return nil
}

// MarkDelivered releases each item's reservation, consumes stock FIFO, and
// appends one SALE ledger row per consumed batch, then transitions the sale
// to delivered. Both confirmed and out_for_delivery sales can be delivered;
// self-fulfilled orders skip the dispatch step. All of it lands in one
// transaction.
func (s *saleService) MarkDelivered(ctx context.Context, saleID int, actor string, stock StockService, ledger *Ledger) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockActiveSaleTx(ctx, tx, saleID)
	if err != nil {
		return err
	}
	if hdr.status != SaleStatusConfirmed && hdr.status != SaleStatusOutForDelivery {
		return fmt.Errorf("sale %d cannot be delivered: status is %s (must be confirmed or out_for_delivery): %w",
			saleID, hdr.status, ErrInvalidStatusTransition)
	}

	items, err := fetchSaleItemsQ(ctx, tx, saleID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := stock.ReleaseTx(ctx, tx, hdr.warehouseID, item.ProductID, item.VariantID, item.Quantity); err != nil {
			return fmt.Errorf("release reservation for sale %d item %d: %w", saleID, item.ID, err)
		}

		takes, err := stock.FIFOConsumeTx(ctx, tx, hdr.warehouseID, item.ProductID, item.VariantID, item.Quantity)
		if err != nil {
			return fmt.Errorf("consume stock for sale %d item %d: %w", saleID, item.ID, err)
		}

		sid := saleID
		for _, take := range takes {
			batchNo := take.BatchNo
			if err := ledger.AppendTx(ctx, tx, LedgerEntry{
				RefType:     RefTypeSale,
				SaleID:      &sid,
				RefNo:       hdr.refNo,
				WarehouseID: hdr.warehouseID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				BatchNo:     &batchNo,
				ExpiryDate:  take.ExpiryDate,
				QuantityOut: take.Qty,
				Note:        fmt.Sprintf("delivery of %s", hdr.refNo),
				Actor:       actor,
			}); err != nil {
				return err
			}
		}
	}

	if err := transitionSaleTx(ctx, tx, saleID, SaleStatusDelivered, actor); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delivery: %w", err)
	}
	return nil
}

// CancelSale cancels a sale that has not been delivered, releasing any
// reservations taken at confirmation. Repeat cancellations are no-ops.
func (s *saleService) CancelSale(ctx context.Context, saleID int, actor string, stock StockService) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockSaleTx(ctx, tx, saleID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && hdr.isDeleted) {
		// Gone already counts as cancelled.
		return true, nil
	}
	if err != nil {
		return false, err
	}

	switch hdr.status {
	case SaleStatusCancelled:
		return true, nil
	case SaleStatusDelivered, SaleStatusReturned:
		return false, fmt.Errorf("sale %d cannot be cancelled: status is %s: %w",
			saleID, hdr.status, ErrInvalidStatusTransition)
	}

	// Reservations exist from confirmation onward.
	if hdr.status == SaleStatusConfirmed || hdr.status == SaleStatusOutForDelivery {
		items, err := fetchSaleItemsQ(ctx, tx, saleID)
		if err != nil {
			return false, err
		}
		for _, item := range items {
			if err := stock.ReleaseTx(ctx, tx, hdr.warehouseID, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return false, fmt.Errorf("release reservation for sale %d item %d: %w", saleID, item.ID, err)
			}
		}
	}

	if err := transitionSaleTx(ctx, tx, saleID, SaleStatusCancelled, actor); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit sale cancellation: %w", err)
	}
	return true, nil
}

// ReturnSale re-derives the delivered batches from the sale's SALE ledger
// rows, puts every quantity back into its batch, appends SALE_RETURN rows,
// and transitions delivered → returned.
func (s *saleService) ReturnSale(ctx context.Context, saleID int, actor string, stock StockService, ledger *Ledger, seq SequenceService) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockActiveSaleTx(ctx, tx, saleID)
	if err != nil {
		return err
	}
	if hdr.status != SaleStatusDelivered {
		return fmt.Errorf("sale %d cannot be returned: status is %s (must be delivered): %w",
			saleID, hdr.status, ErrInvalidStatusTransition)
	}

	entries, err := ledger.EntriesForSaleTx(ctx, tx, saleID, RefTypeSale)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("sale %d: %w", saleID, ErrLedgerNotFound)
	}

	returnRefNo, err := seq.NextRefNoTx(ctx, tx, "RET")
	if err != nil {
		return err
	}

	sid := saleID
	for _, e := range entries {
		if err := stock.ApplyMovementTx(ctx, tx, Movement{
			WarehouseID: e.WarehouseID,
			ProductID:   e.ProductID,
			VariantID:   e.VariantID,
			BatchNo:     e.BatchNo,
			ExpiryDate:  e.ExpiryDate,
			Qty:         e.QuantityOut,
		}); err != nil {
			return fmt.Errorf("restock from ledger entry %d: %w", e.ID, err)
		}

		if err := ledger.AppendTx(ctx, tx, LedgerEntry{
			RefType:     RefTypeSaleReturn,
			SaleID:      &sid,
			RefNo:       returnRefNo,
			WarehouseID: e.WarehouseID,
			ProductID:   e.ProductID,
			VariantID:   e.VariantID,
			BatchNo:     e.BatchNo,
			ExpiryDate:  e.ExpiryDate,
			QuantityIn:  e.QuantityOut,
			Note:        fmt.Sprintf("return of %s", hdr.refNo),
			Actor:       actor,
		}); err != nil {
			return err
		}
	}

	if err := transitionSaleTx(ctx, tx, saleID, SaleStatusReturned, actor); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sale return: %w", err)
	}
	return nil
}

// RecordPayment marks the sale paid. ONLINE payments require a bank account.
func (s *saleService) RecordPayment(ctx context.Context, saleID int, mode string, bankAccount *string) error {
	if mode != PaymentModeCOD && mode != PaymentModeOnline {
		return fmt.Errorf("unknown payment mode %q", mode)
	}
	if mode == PaymentModeOnline && (bankAccount == nil || *bankAccount == "") {
		return fmt.Errorf("bank account is required for ONLINE payment")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockActiveSaleTx(ctx, tx, saleID)
	if err != nil {
		return err
	}
	if hdr.status == SaleStatusCancelled {
		return fmt.Errorf("sale %d is cancelled, payment cannot be recorded: %w", saleID, ErrInvalidStatusTransition)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sales
		SET payment_status = 'paid', payment_mode = $1, bank_account = $2, updated_at = NOW()
		WHERE id = $3`,
		mode, bankAccount, saleID,
	); err != nil {
		return fmt.Errorf("record payment for sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit payment: %w", err)
	}
	return nil
}

// DeleteSale soft-deletes a draft or cancelled sale.
func (s *saleService) DeleteSale(ctx context.Context, saleID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockActiveSaleTx(ctx, tx, saleID)
	if err != nil {
		return err
	}
	if hdr.status != SaleStatusDraft && hdr.status != SaleStatusCancelled {
		return fmt.Errorf("sale %d cannot be deleted: status is %s (must be draft or cancelled): %w",
			saleID, hdr.status, ErrInvalidStatusTransition)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE sales SET is_deleted = true, deleted_at = NOW(), updated_at = NOW() WHERE id = $1",
		saleID,
	); err != nil {
		return fmt.Errorf("delete sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sale deletion: %w", err)
	}
	return nil
}

// GetSale returns a sale by ID with items and status history. Soft-deleted
// sales are not found.
func (s *saleService) GetSale(ctx context.Context, saleID int) (*Sale, error) {
	sale := &Sale{}
	err := s.pool.QueryRow(ctx, selectSale+" WHERE id = $1 AND is_deleted = false", saleID).Scan(saleScanDest(sale)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d not found", saleID)
		}
		return nil, fmt.Errorf("get sale %d: %w", saleID, err)
	}

	items, err := fetchSaleItemsQ(ctx, s.pool, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, status, actor, changed_at
		FROM sale_status_history
		WHERE sale_id = $1
		ORDER BY id`,
		saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch status history for sale %d: %w", saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var h SaleStatusChange
		if err := rows.Scan(&h.ID, &h.SaleID, &h.Status, &h.Actor, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		sale.History = append(sale.History, h)
	}
	return sale, rows.Err()
}

// GetSales lists sales newest first, narrowed by the filter and excluding
// soft-deleted documents.
func (s *saleService) GetSales(ctx context.Context, f SaleFilter) ([]Sale, error) {
	query := selectSale + " WHERE is_deleted = false"
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}
	if f.Status != "" {
		add(" AND status = $%d", f.Status)
	}
	if f.SellerID != 0 {
		add(" AND seller_id = $%d", f.SellerID)
	}
	if f.WarehouseID != 0 {
		add(" AND warehouse_id = $%d", f.WarehouseID)
	}
	if f.PaymentStatus != "" {
		add(" AND payment_status = $%d", f.PaymentStatus)
	}
	if f.From != nil {
		add(" AND created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND created_at < $%d", *f.To)
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
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(saleScanDest(&sale)...); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

const selectSale = `
	SELECT id, ref_no, seller_id, warehouse_id, customer_name, customer_phone,
	       status, sub_total, tax_amount, total_amount,
	       courier_name, tracking_no, payment_status, payment_mode, bank_account,
	       draft_at, confirmed_at, out_for_delivery_at, delivered_at, cancelled_at, returned_at,
	       created_by, is_deleted, deleted_at, created_at, updated_at
	FROM sales`

func saleScanDest(sale *Sale) []interface{} {
	return []interface{}{
		&sale.ID, &sale.RefNo, &sale.SellerID, &sale.WarehouseID, &sale.CustomerName, &sale.CustomerPhone,
		&sale.Status, &sale.SubTotal, &sale.TaxAmount, &sale.TotalAmount,
		&sale.CourierName, &sale.TrackingNo, &sale.PaymentStatus, &sale.PaymentMode, &sale.BankAccount,
		&sale.DraftAt, &sale.ConfirmedAt, &sale.OutForDeliveryAt, &sale.DeliveredAt, &sale.CancelledAt, &sale.ReturnedAt,
		&sale.CreatedBy, &sale.IsDeleted, &sale.DeletedAt, &sale.CreatedAt, &sale.UpdatedAt,
	}
}

// saleHeader is the locked view workflow transitions operate on.
type saleHeader struct {
	refNo       string
	warehouseID int
	status      string
	isDeleted   bool
}

// lockSaleTx locks the sale header row for the caller's transaction. Returns
// pgx.ErrNoRows wrapped for missing sales; soft-deleted sales come back with
// isDeleted set so cancellation can treat them as already gone.
func lockSaleTx(ctx context.Context, tx pgx.Tx, saleID int) (saleHeader, error) {
	var hdr saleHeader
	err := tx.QueryRow(ctx,
		"SELECT ref_no, warehouse_id, status, is_deleted FROM sales WHERE id = $1 FOR UPDATE",
		saleID,
	).Scan(&hdr.refNo, &hdr.warehouseID, &hdr.status, &hdr.isDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hdr, fmt.Errorf("sale %d not found: %w", saleID, pgx.ErrNoRows)
		}
		return hdr, fmt.Errorf("fetch sale %d: %w", saleID, err)
	}
	return hdr, nil
}

// lockActiveSaleTx is lockSaleTx for every transition except cancellation:
// soft-deleted sales report not found.
func lockActiveSaleTx(ctx context.Context, tx pgx.Tx, saleID int) (saleHeader, error) {
	hdr, err := lockSaleTx(ctx, tx, saleID)
	if err != nil {
		return hdr, err
	}
	if hdr.isDeleted {
		return hdr, fmt.Errorf("sale %d not found: %w", saleID, pgx.ErrNoRows)
	}
	return hdr, nil
}

// transitionSaleTx moves the sale to status, stamps the status timestamp on
// first occurrence only, and appends a history row.
func transitionSaleTx(ctx context.Context, tx pgx.Tx, saleID int, status, actor string) error {
	col, ok := statusTimestampColumn[status]
	if !ok {
		return fmt.Errorf("unknown sale status %q", status)
	}
	query := fmt.Sprintf(
		"UPDATE sales SET status = $1, %s = COALESCE(%s, NOW()), updated_at = NOW() WHERE id = $2",
		col, col,
	)
	if _, err := tx.Exec(ctx, query, status, saleID); err != nil {
		return fmt.Errorf("transition sale %d to %s: %w", saleID, status, err)
	}
	return pushStatusHistoryTx(ctx, tx, saleID, status, actor)
}

// pushStatusHistoryTx appends one row to the append-only status history.
func pushStatusHistoryTx(ctx context.Context, tx pgx.Tx, saleID int, status, actor string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO sale_status_history (sale_id, status, actor)
		VALUES ($1, $2, $3)`,
		saleID, status, actor,
	); err != nil {
		return fmt.Errorf("append status history for sale %d: %w", saleID, err)
	}
	return nil
}

// fetchSaleItemsQ works against both the pool and a transaction.
func fetchSaleItemsQ(ctx context.Context, q pgxQuerier, saleID int) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, sale_id, product_id, variant_id, quantity, unit_price, line_total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id`,
		saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch items for sale %d: %w", saleID, err)
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.ProductID, &it.VariantID,
			&it.Quantity, &it.UnitPrice, &it.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
