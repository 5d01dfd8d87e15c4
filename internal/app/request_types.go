package app

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest is the input for creating a new draft purchase.
type CreatePurchaseRequest struct {
	SupplierName string
	InvoiceNo    string
	WarehouseID  int
	PurchaseDate string // YYYY-MM-DD; empty means today
	TaxAmount    decimal.Decimal
	Note         string
	Actor        string
	Items        []PurchaseItemInput
}

// PurchaseItemInput is a single line within a CreatePurchaseRequest.
type PurchaseItemInput struct {
	ProductID  int
	VariantID  *int
	BatchNo    *string
	ExpiryDate *time.Time
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// UpdatePurchaseRequest edits an unposted purchase. An empty Items slice
// keeps the existing lines.
type UpdatePurchaseRequest struct {
	SupplierName string
	InvoiceNo    string
	WarehouseID  int
	PurchaseDate string // YYYY-MM-DD; empty means today
	TaxAmount    decimal.Decimal
	Note         string
	Items        []PurchaseItemInput
}

// ListPurchasesRequest narrows ListPurchases.
type ListPurchasesRequest struct {
	Status      string
	WarehouseID int
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// CreateSaleRequest is the input for creating a new draft sale.
type CreateSaleRequest struct {
	SellerID      int
	WarehouseID   int
	CustomerName  string
	CustomerPhone string
	TaxAmount     decimal.Decimal
	PaymentMode   string // COD or ONLINE; empty means COD
	Actor         string
	Items         []SaleItemInput
}

// SaleItemInput is a single line within a CreateSaleRequest.
type SaleItemInput struct {
	ProductID int
	VariantID *int
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// ListSalesRequest narrows ListSales.
type ListSalesRequest struct {
	Status        string
	SellerID      int
	WarehouseID   int
	PaymentStatus string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// RecordSalePaymentRequest marks a sale paid.
type RecordSalePaymentRequest struct {
	SaleID      int
	PaymentMode string
	BankAccount *string
}

// AdjustStockRequest applies a manual stock correction.
type AdjustStockRequest struct {
	WarehouseID int
	ProductID   int
	VariantID   *int
	BatchNo     *string
	ExpiryDate  *time.Time
	Qty         decimal.Decimal // positive adds stock, negative removes
	Note        string
	Actor       string
}

// LedgerHistoryRequest narrows GetLedgerHistory.
type LedgerHistoryRequest struct {
	WarehouseID int
	ProductID   int
	RefType     string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// CreateProductRequest is the input for creating a product with optional variants.
type CreateProductRequest struct {
	SKU      string
	Name     string
	Unit     string
	Variants []VariantInput
}

// VariantInput is a single variant within a CreateProductRequest.
type VariantInput struct {
	SKU  string
	Name string
}
