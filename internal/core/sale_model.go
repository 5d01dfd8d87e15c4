package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sale statuses. Transitions: draft → confirmed → out_for_delivery →
// delivered → returned; confirmed may also deliver directly, and anything
// before delivered can be cancelled. cancelled and returned are terminal.
const (
	SaleStatusDraft          = "draft"
	SaleStatusConfirmed      = "confirmed"
	SaleStatusOutForDelivery = "out_for_delivery"
	SaleStatusDelivered      = "delivered"
	SaleStatusCancelled      = "cancelled"
	SaleStatusReturned       = "returned"
)

// Payment fields.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
	PaymentModeCOD      = "COD"
	PaymentModeOnline   = "ONLINE"
)

// Sale is a fulfillment document. Status timestamps record the first time
// each status was reached and are never overwritten; the status history table
// records every transition.
type Sale struct {
	ID            int
	RefNo         string
	SellerID      int
	WarehouseID   int
	CustomerName  string
	CustomerPhone string
	Status        string
	SubTotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	CourierName   *string
	TrackingNo    *string
	PaymentStatus string
	PaymentMode   string
	BankAccount   *string

	DraftAt          *time.Time
	ConfirmedAt      *time.Time
	OutForDeliveryAt *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	ReturnedAt       *time.Time

	CreatedBy string
	IsDeleted bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []SaleItem
	History   []SaleStatusChange
}

// SaleItem is one fulfillment line. Batches are not chosen here; delivery
// resolves them by FIFO consumption.
type SaleItem struct {
	ID        int
	SaleID    int
	ProductID int
	VariantID *int
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// SaleStatusChange is one append-only status history row.
type SaleStatusChange struct {
	ID        int
	SaleID    int
	Status    string
	Actor     string
	ChangedAt time.Time
}

// SaleInput holds the header fields for creating a sale.
type SaleInput struct {
	SellerID      int
	WarehouseID   int
	CustomerName  string
	CustomerPhone string
	TaxAmount     decimal.Decimal
	PaymentMode   string
}

// SaleItemInput holds one line of a new sale.
type SaleItemInput struct {
	ProductID int
	VariantID *int
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// SaleFilter narrows listings. Zero values mean "no filter".
type SaleFilter struct {
	Status        string
	SellerID      int
	WarehouseID   int
	PaymentStatus string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// SaleService drives the fulfillment workflow. Every transition runs in a
// single transaction and serializes against concurrent stock operations via
// stock record row locks.
type SaleService interface {
	// CreateSale creates a draft sale with computed line totals and a
	// generated reference number. Stock is untouched until confirmation.
	CreateSale(ctx context.Context, input SaleInput, items []SaleItemInput, actor string, seq SequenceService) (*Sale, error)

	// ConfirmSale transitions draft → confirmed and reserves stock for every
	// item. A shortfall on any item aborts the whole confirmation.
	ConfirmSale(ctx context.Context, saleID int, actor string, stock StockService) error

	// MarkOutForDelivery transitions confirmed → out_for_delivery, recording
	// courier and tracking number. A tracking number already assigned to
	// another sale fails with ErrTrackingNoConflict.
	MarkOutForDelivery(ctx context.Context, saleID int, courierName, trackingNo, actor string) error

	// MarkDelivered transitions confirmed or out_for_delivery → delivered:
	// per item the reservation is released, stock is consumed FIFO, and one
	// SALE ledger row is appended per consumed batch.
	MarkDelivered(ctx context.Context, saleID int, actor string, stock StockService, ledger *Ledger) error

	// CancelSale cancels a sale that is not yet delivered, releasing any
	// reservations. Cancelling an already-cancelled or soft-deleted sale is a
	// no-op returning true.
	CancelSale(ctx context.Context, saleID int, actor string, stock StockService) (bool, error)

	// ReturnSale transitions delivered → returned. The returned batches are
	// re-derived from the sale's SALE ledger rows; a delivered sale with no
	// such rows fails with ErrLedgerNotFound.
	ReturnSale(ctx context.Context, saleID int, actor string, stock StockService, ledger *Ledger, seq SequenceService) error

	// RecordPayment marks the sale paid. ONLINE payments must name a bank
	// account.
	RecordPayment(ctx context.Context, saleID int, mode string, bankAccount *string) error

	GetSale(ctx context.Context, saleID int) (*Sale, error)
	GetSales(ctx context.Context, f SaleFilter) ([]Sale, error)

	// DeleteSale soft-deletes a draft or cancelled sale. Delivered and
	// returned sales are immutable history.
	DeleteSale(ctx context.Context, saleID int) error
}
