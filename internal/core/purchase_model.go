package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase statuses. Transitions: draft → confirmed → received;
// draft/confirmed → cancelled. received is terminal except soft deletion.
const (
	PurchaseStatusDraft     = "draft"
	PurchaseStatusConfirmed = "confirmed"
	PurchaseStatusReceived  = "received"
	PurchaseStatusCancelled = "cancelled"
)

// Purchase is a procurement document. PostedToStock flips exactly once, when
// the document is received and its items land in stock.
type Purchase struct {
	ID            int
	RefNo         string
	SupplierName  string
	InvoiceNo     string
	WarehouseID   int
	PurchaseDate  time.Time
	Status        string
	SubTotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	Note          string
	PostedToStock bool
	CreatedBy     string
	IsDeleted     bool
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []PurchaseItem
}

// PurchaseItem is one procurement line. BatchNo and ExpiryDate, when present,
// direct the received quantity into a batch lot.
type PurchaseItem struct {
	ID         int
	PurchaseID int
	ProductID  int
	VariantID  *int
	BatchNo    *string
	ExpiryDate *time.Time
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
}

// PurchaseInput holds the header fields for creating a purchase.
type PurchaseInput struct {
	SupplierName string
	InvoiceNo    string
	WarehouseID  int
	PurchaseDate time.Time
	TaxAmount    decimal.Decimal
	Note         string
}

// PurchaseItemInput holds one line of a new purchase.
type PurchaseItemInput struct {
	ProductID  int
	VariantID  *int
	BatchNo    *string
	ExpiryDate *time.Time
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// PurchaseFilter narrows listings. Zero values mean "no filter".
type PurchaseFilter struct {
	Status      string
	WarehouseID int
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// PurchaseService drives the procurement workflow. Every transition runs in a
// single transaction; stock and ledger collaborators are passed per call the
// same way the sale workflow receives them.
type PurchaseService interface {
	// CreatePurchase creates a draft purchase with computed line totals and a
	// generated reference number.
	CreatePurchase(ctx context.Context, input PurchaseInput, items []PurchaseItemInput, actor string, seq SequenceService) (*Purchase, error)

	// UpdatePurchase edits the header of a purchase not yet posted to stock
	// and, when items are given, replaces the lines. Totals are recomputed
	// from scratch whenever the lines change.
	UpdatePurchase(ctx context.Context, purchaseID int, input PurchaseInput, items []PurchaseItemInput) (*Purchase, error)

	// ConfirmPurchase transitions draft → confirmed.
	ConfirmPurchase(ctx context.Context, purchaseID int) error

	// ReceivePurchase transitions confirmed → received: posts every item to
	// stock, appends PURCHASE ledger rows, and flips postedToStock, all
	// atomically.
	ReceivePurchase(ctx context.Context, purchaseID int, actor string, stock StockService, ledger *Ledger) error

	// CancelPurchase cancels a draft or confirmed purchase. Cancelling an
	// already-cancelled purchase is a no-op returning true.
	CancelPurchase(ctx context.Context, purchaseID int) (bool, error)

	// DeletePurchase soft-deletes. A purchase posted to stock is first
	// reversed; if any item's stock cannot cover the reversal the whole
	// operation fails with ErrRollbackInsufficientStock.
	DeletePurchase(ctx context.Context, purchaseID int, actor string, stock StockService, ledger *Ledger) error

	GetPurchase(ctx context.Context, purchaseID int) (*Purchase, error)
	GetPurchases(ctx context.Context, f PurchaseFilter) ([]Purchase, error)
}
