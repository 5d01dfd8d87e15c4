package app

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type appService struct {
	pool      *pgxpool.Pool
	ledger    *core.Ledger
	stock     core.StockService
	purchases core.PurchaseService
	sales     core.SaleService
	catalog   core.CatalogService
	users     core.UserService
	sequences core.SequenceService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	ledger *core.Ledger,
	stock core.StockService,
	purchases core.PurchaseService,
	sales core.SaleService,
	catalog core.CatalogService,
	users core.UserService,
	sequences core.SequenceService,
) ApplicationService {
	return &appService{
		pool:      pool,
		ledger:    ledger,
		stock:     stock,
		purchases: purchases,
		sales:     sales,
		catalog:   catalog,
		users:     users,
		sequences: sequences,
	}
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *appService) ListWarehouses(ctx context.Context) (*WarehouseListResult, error) {
	warehouses, err := s.catalog.GetWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	return &WarehouseListResult{Warehouses: warehouses}, nil
}

func (s *appService) CreateWarehouse(ctx context.Context, name, location string) (*core.Warehouse, error) {
	return s.catalog.CreateWarehouse(ctx, core.WarehouseInput{Name: name, Location: location})
}

func (s *appService) ListSellers(ctx context.Context) (*SellerListResult, error) {
	sellers, err := s.catalog.GetSellers(ctx)
	if err != nil {
		return nil, err
	}
	return &SellerListResult{Sellers: sellers}, nil
}

func (s *appService) CreateSeller(ctx context.Context, input core.SellerInput) (*core.Seller, error) {
	return s.catalog.CreateSeller(ctx, input)
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.catalog.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) GetProduct(ctx context.Context, productID int) (*core.Product, error) {
	return s.catalog.GetProduct(ctx, productID)
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	variants := make([]core.VariantInput, len(req.Variants))
	for i, v := range req.Variants {
		variants[i] = core.VariantInput{SKU: v.SKU, Name: v.Name}
	}
	return s.catalog.CreateProduct(ctx, core.ProductInput{
		SKU:      req.SKU,
		Name:     req.Name,
		Unit:     req.Unit,
		Variants: variants,
	})
}

func (s *appService) AddVariant(ctx context.Context, productID int, sku, name string) (*core.ProductVariant, error) {
	return s.catalog.AddVariant(ctx, productID, core.VariantInput{SKU: sku, Name: name})
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (s *appService) GetStockLevels(ctx context.Context, warehouseID int) (*StockResult, error) {
	levels, err := s.stock.GetStockLevels(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels, WarehouseID: warehouseID}, nil
}

func (s *appService) GetLowStock(ctx context.Context, warehouseID int) (*StockResult, error) {
	levels, err := s.stock.GetLowStock(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels, WarehouseID: warehouseID}, nil
}

func (s *appService) GetStockRecord(ctx context.Context, warehouseID, productID int, variantID *int) (*core.StockRecord, error) {
	return s.stock.GetStockRecord(ctx, warehouseID, productID, variantID)
}

func (s *appService) AdjustStock(ctx context.Context, req AdjustStockRequest) error {
	return s.stock.AdjustStock(ctx, core.Movement{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		VariantID:   req.VariantID,
		BatchNo:     req.BatchNo,
		ExpiryDate:  req.ExpiryDate,
		Qty:         req.Qty,
	}, req.Actor, req.Note, s.ledger)
}

func (s *appService) GetLedgerHistory(ctx context.Context, req LedgerHistoryRequest) (*LedgerResult, error) {
	entries, err := s.ledger.History(ctx, core.LedgerFilter{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		RefType:     req.RefType,
		From:        req.From,
		To:          req.To,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &LedgerResult{Entries: entries}, nil
}

func (s *appService) GetPurchaseLedger(ctx context.Context, purchaseID int) (*LedgerResult, error) {
	entries, err := s.ledger.EntriesForPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	return &LedgerResult{Entries: entries}, nil
}

// ── Purchases ─────────────────────────────────────────────────────────────────

func (s *appService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*PurchaseResult, error) {
	purchaseDate, err := parseDateOrToday(req.PurchaseDate)
	if err != nil {
		return nil, err
	}

	items := make([]core.PurchaseItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.PurchaseItemInput{
			ProductID:  it.ProductID,
			VariantID:  it.VariantID,
			BatchNo:    it.BatchNo,
			ExpiryDate: it.ExpiryDate,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		}
	}

	purchase, err := s.purchases.CreatePurchase(ctx, core.PurchaseInput{
		SupplierName: req.SupplierName,
		InvoiceNo:    req.InvoiceNo,
		WarehouseID:  req.WarehouseID,
		PurchaseDate: purchaseDate,
		TaxAmount:    req.TaxAmount,
		Note:         req.Note,
	}, items, req.Actor, s.sequences)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) GetPurchase(ctx context.Context, purchaseID int) (*PurchaseResult, error) {
	purchase, err := s.purchases.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) ListPurchases(ctx context.Context, req ListPurchasesRequest) (*PurchaseListResult, error) {
	purchases, err := s.purchases.GetPurchases(ctx, core.PurchaseFilter{
		Status:      req.Status,
		WarehouseID: req.WarehouseID,
		From:        req.From,
		To:          req.To,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseListResult{Purchases: purchases}, nil
}

func (s *appService) UpdatePurchase(ctx context.Context, purchaseID int, req UpdatePurchaseRequest) (*PurchaseResult, error) {
	purchaseDate, err := parseDateOrToday(req.PurchaseDate)
	if err != nil {
		return nil, err
	}

	items := make([]core.PurchaseItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.PurchaseItemInput{
			ProductID:  it.ProductID,
			VariantID:  it.VariantID,
			BatchNo:    it.BatchNo,
			ExpiryDate: it.ExpiryDate,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		}
	}

	purchase, err := s.purchases.UpdatePurchase(ctx, purchaseID, core.PurchaseInput{
		SupplierName: req.SupplierName,
		InvoiceNo:    req.InvoiceNo,
		WarehouseID:  req.WarehouseID,
		PurchaseDate: purchaseDate,
		TaxAmount:    req.TaxAmount,
		Note:         req.Note,
	}, items)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) ConfirmPurchase(ctx context.Context, purchaseID int) (*PurchaseResult, error) {
	if err := s.purchases.ConfirmPurchase(ctx, purchaseID); err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, purchaseID)
}

func (s *appService) ReceivePurchase(ctx context.Context, purchaseID int, actor string) (*PurchaseResult, error) {
	if err := s.purchases.ReceivePurchase(ctx, purchaseID, actor, s.stock, s.ledger); err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, purchaseID)
}

func (s *appService) CancelPurchase(ctx context.Context, purchaseID int) (*CancelResult, error) {
	cancelled, err := s.purchases.CancelPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Cancelled: cancelled}, nil
}

func (s *appService) DeletePurchase(ctx context.Context, purchaseID int, actor string) error {
	return s.purchases.DeletePurchase(ctx, purchaseID, actor, s.stock, s.ledger)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error) {
	items := make([]core.SaleItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.SaleItemInput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}

	sale, err := s.sales.CreateSale(ctx, core.SaleInput{
		SellerID:      req.SellerID,
		WarehouseID:   req.WarehouseID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		TaxAmount:     req.TaxAmount,
		PaymentMode:   req.PaymentMode,
	}, items, req.Actor, s.sequences)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) GetSale(ctx context.Context, saleID int) (*SaleResult, error) {
	sale, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) ListSales(ctx context.Context, req ListSalesRequest) (*SaleListResult, error) {
	sales, err := s.sales.GetSales(ctx, core.SaleFilter{
		Status:        req.Status,
		SellerID:      req.SellerID,
		WarehouseID:   req.WarehouseID,
		PaymentStatus: req.PaymentStatus,
		From:          req.From,
		To:            req.To,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) ConfirmSale(ctx context.Context, saleID int, actor string) (*SaleResult, error) {
	if err := s.sales.ConfirmSale(ctx, saleID, actor, s.stock); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

func (s *appService) MarkOutForDelivery(ctx context.Context, saleID int, courierName, trackingNo, actor string) (*SaleResult, error) {
	if err := s.sales.MarkOutForDelivery(ctx, saleID, courierName, trackingNo, actor); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

func (s *appService) MarkDelivered(ctx context.Context, saleID int, actor string) (*SaleResult, error) {
	if err := s.sales.MarkDelivered(ctx, saleID, actor, s.stock, s.ledger); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

func (s *appService) CancelSale(ctx context.Context, saleID int, actor string) (*CancelResult, error) {
	cancelled, err := s.sales.CancelSale(ctx, saleID, actor, s.stock)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Cancelled: cancelled}, nil
}

func (s *appService) ReturnSale(ctx context.Context, saleID int, actor string) (*SaleResult, error) {
	if err := s.sales.ReturnSale(ctx, saleID, actor, s.stock, s.ledger, s.sequences); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

func (s *appService) RecordSalePayment(ctx context.Context, req RecordSalePaymentRequest) (*SaleResult, error) {
	if err := s.sales.RecordPayment(ctx, req.SaleID, req.PaymentMode, req.BankAccount); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, req.SaleID)
}

func (s *appService) DeleteSale(ctx context.Context, saleID int) error {
	return s.sales.DeleteSale(ctx, saleID)
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("authentication failed: invalid password")
	}
	return &UserSession{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

// ── private helpers ───────────────────────────────────────────────────────────

// parseDateOrToday parses a YYYY-MM-DD date; empty means today.
func parseDateOrToday(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return d, nil
}
