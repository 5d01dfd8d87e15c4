package app

import "inventory-backend/internal/core"

// PurchaseResult is returned by purchase lifecycle operations.
type PurchaseResult struct {
	Purchase *core.Purchase
}

// PurchaseListResult is returned by ListPurchases.
type PurchaseListResult struct {
	Purchases []core.Purchase
}

// SaleResult is returned by sale lifecycle operations.
type SaleResult struct {
	Sale *core.Sale
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.Sale
}

// CancelResult is returned by cancellation operations. Cancelled is true when
// the document is cancelled after the call, including repeat cancellations.
type CancelResult struct {
	Cancelled bool
}

// StockResult is returned by GetStockLevels and GetLowStock.
type StockResult struct {
	Levels      []core.StockLevel
	WarehouseID int
}

// LedgerResult is returned by GetLedgerHistory and GetPurchaseLedger.
type LedgerResult struct {
	Entries []core.LedgerEntry
}

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// SellerListResult is returned by ListSellers.
type SellerListResult struct {
	Sellers []core.Seller
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID   int
	Username string
	Role     string
}

// UserResult is returned by GetUser.
type UserResult struct {
	Username string
	Email    string
	Role     string
}
