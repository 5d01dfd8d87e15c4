package app

import (
	"context"

	"inventory-backend/internal/core"
)

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic. Implementations must contain no display
// logic of any kind. Operations take explicit actor and warehouse parameters;
// nothing is resolved from ambient state.
type ApplicationService interface {
	// ── Catalog ──

	// ListWarehouses returns all warehouses.
	ListWarehouses(ctx context.Context) (*WarehouseListResult, error)

	// CreateWarehouse creates a warehouse.
	CreateWarehouse(ctx context.Context, name, location string) (*core.Warehouse, error)

	// ListSellers returns all sellers.
	ListSellers(ctx context.Context) (*SellerListResult, error)

	// CreateSeller creates a seller.
	CreateSeller(ctx context.Context, input core.SellerInput) (*core.Seller, error)

	// ListProducts returns all products with their variants.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// GetProduct returns one product with its variants.
	GetProduct(ctx context.Context, productID int) (*core.Product, error)

	// CreateProduct creates a product with optional variants.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)

	// AddVariant attaches a new variant to an existing product.
	AddVariant(ctx context.Context, productID int, sku, name string) (*core.ProductVariant, error)

	// ── Stock ──

	// GetStockLevels returns current stock levels for one warehouse.
	GetStockLevels(ctx context.Context, warehouseID int) (*StockResult, error)

	// GetLowStock returns stock records at or below their reorder level.
	GetLowStock(ctx context.Context, warehouseID int) (*StockResult, error)

	// GetStockRecord returns one stock aggregate with its batches.
	GetStockRecord(ctx context.Context, warehouseID, productID int, variantID *int) (*core.StockRecord, error)

	// AdjustStock applies a manual correction and journals it as ADJUSTMENT.
	AdjustStock(ctx context.Context, req AdjustStockRequest) error

	// GetLedgerHistory lists stock journal rows, newest first.
	GetLedgerHistory(ctx context.Context, req LedgerHistoryRequest) (*LedgerResult, error)

	// GetPurchaseLedger lists the journal rows linked to one purchase.
	GetPurchaseLedger(ctx context.Context, purchaseID int) (*LedgerResult, error)

	// ── Purchases ──

	// CreatePurchase creates a draft purchase.
	CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*PurchaseResult, error)

	// GetPurchase returns a purchase with items.
	GetPurchase(ctx context.Context, purchaseID int) (*PurchaseResult, error)

	// ListPurchases lists purchases newest first.
	ListPurchases(ctx context.Context, req ListPurchasesRequest) (*PurchaseListResult, error)

	// UpdatePurchase edits a purchase that has not been posted to stock,
	// replacing its lines and recomputing totals when items are given.
	UpdatePurchase(ctx context.Context, purchaseID int, req UpdatePurchaseRequest) (*PurchaseResult, error)

	// ConfirmPurchase transitions a draft purchase to confirmed.
	ConfirmPurchase(ctx context.Context, purchaseID int) (*PurchaseResult, error)

	// ReceivePurchase posts a confirmed purchase to stock atomically.
	ReceivePurchase(ctx context.Context, purchaseID int, actor string) (*PurchaseResult, error)

	// CancelPurchase cancels a draft or confirmed purchase; repeat calls are no-ops.
	CancelPurchase(ctx context.Context, purchaseID int) (*CancelResult, error)

	// DeletePurchase soft-deletes a purchase, reversing posted stock first.
	DeletePurchase(ctx context.Context, purchaseID int, actor string) error

	// ── Sales ──

	// CreateSale creates a draft sale.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error)

	// GetSale returns a sale with items and status history.
	GetSale(ctx context.Context, saleID int) (*SaleResult, error)

	// ListSales lists sales newest first.
	ListSales(ctx context.Context, req ListSalesRequest) (*SaleListResult, error)

	// ConfirmSale reserves stock and transitions the sale to confirmed.
	ConfirmSale(ctx context.Context, saleID int, actor string) (*SaleResult, error)

	// MarkOutForDelivery records courier details and dispatches the sale.
	MarkOutForDelivery(ctx context.Context, saleID int, courierName, trackingNo, actor string) (*SaleResult, error)

	// MarkDelivered releases reservations, consumes stock FIFO, and journals
	// the delivery.
	MarkDelivered(ctx context.Context, saleID int, actor string) (*SaleResult, error)

	// CancelSale cancels an undelivered sale; repeat calls are no-ops.
	CancelSale(ctx context.Context, saleID int, actor string) (*CancelResult, error)

	// ReturnSale restocks a delivered sale from its journal rows.
	ReturnSale(ctx context.Context, saleID int, actor string) (*SaleResult, error)

	// RecordSalePayment marks a sale paid.
	RecordSalePayment(ctx context.Context, req RecordSalePaymentRequest) (*SaleResult, error)

	// DeleteSale soft-deletes a draft or cancelled sale.
	DeleteSale(ctx context.Context, saleID int) error

	// ── Auth ──

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)
}
