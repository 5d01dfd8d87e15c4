package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord is the per-(warehouse, product, variant) stock aggregate.
// VariantID is nil for variant-less products.
type StockRecord struct {
	ID           int
	WarehouseID  int
	ProductID    int
	VariantID    *int
	Quantity     decimal.Decimal
	Reserved     decimal.Decimal
	ReorderLevel decimal.Decimal
	UpdatedAt    time.Time
	Batches      []StockBatch
}

// Available is the quantity not held by reservations.
func (r *StockRecord) Available() decimal.Decimal {
	return r.Quantity.Sub(r.Reserved)
}

// StockBatch is a batch lot under a stock record. A nil ExpiryDate means the
// lot does not expire and sorts last in FIFO order. Rows never persist at
// zero quantity.
type StockBatch struct {
	ID         int
	BatchNo    string
	ExpiryDate *time.Time
	Quantity   decimal.Decimal
}

// Movement is one stock delta applied by the movement engine. Positive Qty is
// inbound, negative is outbound. BatchNo, when set, targets the batch matched
// by (BatchNo, ExpiryDate) with NULL-safe expiry equality.
type Movement struct {
	WarehouseID int
	ProductID   int
	VariantID   *int
	BatchNo     *string
	ExpiryDate  *time.Time
	Qty         decimal.Decimal
}

// BatchTake records how much FIFO consumption took from one batch.
type BatchTake struct {
	BatchNo    string
	ExpiryDate *time.Time
	Qty        decimal.Decimal
}

// StockLevel is a read view over stock records joined with catalog names.
type StockLevel struct {
	WarehouseID   int
	WarehouseName string
	ProductID     int
	ProductSKU    string
	ProductName   string
	VariantID     *int
	VariantName   *string
	Quantity      decimal.Decimal
	Reserved      decimal.Decimal
	Available     decimal.Decimal
	ReorderLevel  decimal.Decimal
}
