package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ledger ref types.
const (
	RefTypePurchase         = "PURCHASE"
	RefTypeSale             = "SALE"
	RefTypeSaleReturn       = "SALE_RETURN"
	RefTypePurchaseReversal = "PURCHASE_REVERSAL"
	RefTypeAdjustment       = "ADJUSTMENT"
	RefTypeOpening          = "OPENING"
)

// LedgerEntry is one append-only row of the stock journal. Exactly one of
// QuantityIn / QuantityOut is positive. PurchaseID and SaleID carry the
// direct link to the source document; RefNo is display metadata only.
type LedgerEntry struct {
	ID          int
	RefType     string
	PurchaseID  *int
	SaleID      *int
	RefNo       string
	WarehouseID int
	ProductID   int
	VariantID   *int
	BatchNo     *string
	ExpiryDate  *time.Time
	QuantityIn  decimal.Decimal
	QuantityOut decimal.Decimal
	Note        string
	Actor       string
	CreatedAt   time.Time
}

// LedgerFilter narrows History listings. Zero values mean "no filter".
type LedgerFilter struct {
	WarehouseID int
	ProductID   int
	RefType     string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// Ledger is the append-only stock journal. Workflows append rows inside their
// own transactions; nothing ever updates or deletes a row.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// AppendTx validates and inserts one journal row within the caller's TX.
func (l *Ledger) AppendTx(ctx context.Context, tx pgx.Tx, e LedgerEntry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_ledger
			(ref_type, purchase_id, sale_id, ref_no, warehouse_id, product_id, variant_id,
			 batch_no, expiry_date, quantity_in, quantity_out, note, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.RefType, e.PurchaseID, e.SaleID, e.RefNo, e.WarehouseID, e.ProductID, e.VariantID,
		e.BatchNo, e.ExpiryDate, e.QuantityIn, e.QuantityOut, e.Note, e.Actor)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func validateEntry(e LedgerEntry) error {
	switch e.RefType {
	case RefTypePurchase, RefTypeSale, RefTypeSaleReturn, RefTypePurchaseReversal, RefTypeAdjustment, RefTypeOpening:
	default:
		return fmt.Errorf("unknown ledger ref type %q", e.RefType)
	}
	if e.QuantityIn.IsNegative() || e.QuantityOut.IsNegative() {
		return fmt.Errorf("ledger quantities cannot be negative")
	}
	if e.QuantityIn.IsPositive() == e.QuantityOut.IsPositive() {
		return fmt.Errorf("ledger entry must move quantity exactly one way (in=%s, out=%s)",
			e.QuantityIn.String(), e.QuantityOut.String())
	}
	return nil
}

// EntriesForSaleTx returns the sale's journal rows of one ref type, linked by
// the sale foreign key, within the caller's TX. Oldest first.
func (l *Ledger) EntriesForSaleTx(ctx context.Context, tx pgx.Tx, saleID int, refType string) ([]LedgerEntry, error) {
	rows, err := tx.Query(ctx, selectLedger+`
		WHERE sale_id = $1 AND ref_type = $2
		ORDER BY id
	`, saleID, refType)
	return scanLedgerRows(rows, err)
}

// EntriesForPurchase returns all journal rows linked to a purchase.
func (l *Ledger) EntriesForPurchase(ctx context.Context, purchaseID int) ([]LedgerEntry, error) {
	rows, err := l.pool.Query(ctx, selectLedger+`
		WHERE purchase_id = $1
		ORDER BY id
	`, purchaseID)
	return scanLedgerRows(rows, err)
}

// History lists journal rows newest first, narrowed by the filter.
func (l *Ledger) History(ctx context.Context, f LedgerFilter) ([]LedgerEntry, error) {
	query := selectLedger + " WHERE 1=1"
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}
	if f.WarehouseID != 0 {
		add(" AND warehouse_id = $%d", f.WarehouseID)
	}
	if f.ProductID != 0 {
		add(" AND product_id = $%d", f.ProductID)
	}
	if f.RefType != "" {
		add(" AND ref_type = $%d", f.RefType)
	}
	if f.From != nil {
		add(" AND created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND created_at < $%d", *f.To)
	}
	query += " ORDER BY id DESC"

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	add(" LIMIT $%d", limit)
	if f.Offset > 0 {
		add(" OFFSET $%d", f.Offset)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	return scanLedgerRows(rows, err)
}

const selectLedger = `
	SELECT id, ref_type, purchase_id, sale_id, ref_no, warehouse_id, product_id, variant_id,
	       batch_no, expiry_date, quantity_in, quantity_out, note, actor, created_at
	FROM stock_ledger`

func scanLedgerRows(rows pgx.Rows, err error) ([]LedgerEntry, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.RefType, &e.PurchaseID, &e.SaleID, &e.RefNo,
			&e.WarehouseID, &e.ProductID, &e.VariantID,
			&e.BatchNo, &e.ExpiryDate, &e.QuantityIn, &e.QuantityOut,
			&e.Note, &e.Actor, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}
