package core

import (
	"context"
	"time"
)

// Warehouse is a physical stock location.
type Warehouse struct {
	ID        int
	Name      string
	Location  string
	CreatedAt time.Time
}

// Seller is a sales channel or storefront that sales are booked under.
type Seller struct {
	ID        int
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
}

// Product is catalog master data. Stock is tracked per (warehouse, product,
// variant), not here.
type Product struct {
	ID        int
	SKU       string
	Name      string
	Unit      string
	CreatedAt time.Time
	Variants  []ProductVariant
}

// ProductVariant is a sellable variation of a product with its own SKU.
type ProductVariant struct {
	ID        int
	ProductID int
	SKU       string
	Name      string
	CreatedAt time.Time
}

// WarehouseInput holds the fields required to create a warehouse.
type WarehouseInput struct {
	Name     string
	Location string
}

// SellerInput holds the fields required to create a seller.
type SellerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// ProductInput holds the fields required to create a product with optional
// variants.
type ProductInput struct {
	SKU      string
	Name     string
	Unit     string
	Variants []VariantInput
}

type VariantInput struct {
	SKU  string
	Name string
}

// CatalogService provides master data operations for warehouses, sellers,
// and products.
type CatalogService interface {
	CreateWarehouse(ctx context.Context, input WarehouseInput) (*Warehouse, error)
	GetWarehouses(ctx context.Context) ([]Warehouse, error)
	GetWarehouse(ctx context.Context, id int) (*Warehouse, error)

	CreateSeller(ctx context.Context, input SellerInput) (*Seller, error)
	GetSellers(ctx context.Context) ([]Seller, error)
	GetSeller(ctx context.Context, id int) (*Seller, error)

	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	GetProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	// AddVariant attaches a new variant to an existing product.
	AddVariant(ctx context.Context, productID int, input VariantInput) (*ProductVariant, error)
}
