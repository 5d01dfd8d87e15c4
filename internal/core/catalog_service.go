package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogService struct {
	pool *pgxpool.Pool
}

// NewCatalogService constructs a CatalogService backed by PostgreSQL.
func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

// ── Warehouses ────────────────────────────────────────────────────────────────

func (s *catalogService) CreateWarehouse(ctx context.Context, input WarehouseInput) (*Warehouse, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("warehouse name cannot be empty")
	}
	w := &Warehouse{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (name, location)
		VALUES ($1, $2)
		RETURNING id, name, location, created_at`,
		input.Name, input.Location,
	).Scan(&w.ID, &w.Name, &w.Location, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create warehouse %q: %w", input.Name, err)
	}
	return w, nil
}

func (s *catalogService) GetWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, location, created_at
		FROM warehouses
		ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("get warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Location, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (s *catalogService) GetWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	w := &Warehouse{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, location, created_at
		FROM warehouses
		WHERE id = $1`,
		id,
	).Scan(&w.ID, &w.Name, &w.Location, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("warehouse %d not found: %w", id, err)
	}
	return w, nil
}

// ── Sellers ───────────────────────────────────────────────────────────────────

func (s *catalogService) CreateSeller(ctx context.Context, input SellerInput) (*Seller, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("seller name cannot be empty")
	}
	sl := &Seller{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sellers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, phone, address, created_at`,
		input.Name, input.Email, input.Phone, input.Address,
	).Scan(&sl.ID, &sl.Name, &sl.Email, &sl.Phone, &sl.Address, &sl.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create seller %q: %w", input.Name, err)
	}
	return sl, nil
}

func (s *catalogService) GetSellers(ctx context.Context) ([]Seller, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, phone, address, created_at
		FROM sellers
		ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("get sellers: %w", err)
	}
	defer rows.Close()

	var sellers []Seller
	for rows.Next() {
		var sl Seller
		if err := rows.Scan(&sl.ID, &sl.Name, &sl.Email, &sl.Phone, &sl.Address, &sl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		sellers = append(sellers, sl)
	}
	return sellers, rows.Err()
}

func (s *catalogService) GetSeller(ctx context.Context, id int) (*Seller, error) {
	sl := &Seller{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, address, created_at
		FROM sellers
		WHERE id = $1`,
		id,
	).Scan(&sl.ID, &sl.Name, &sl.Email, &sl.Phone, &sl.Address, &sl.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("seller %d not found: %w", id, err)
	}
	return sl, nil
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if input.SKU == "" || input.Name == "" {
		return nil, fmt.Errorf("product sku and name cannot be empty")
	}
	unit := input.Unit
	if unit == "" {
		unit = "pcs"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p := &Product{}
	err = tx.QueryRow(ctx, `
		INSERT INTO products (sku, name, unit)
		VALUES ($1, $2, $3)
		RETURNING id, sku, name, unit, created_at`,
		input.SKU, input.Name, unit,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create product %q: %w", input.SKU, err)
	}

	for _, vi := range input.Variants {
		var v ProductVariant
		err = tx.QueryRow(ctx, `
			INSERT INTO product_variants (product_id, sku, name)
			VALUES ($1, $2, $3)
			RETURNING id, product_id, sku, name, created_at`,
			p.ID, vi.SKU, vi.Name,
		).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("create variant %q: %w", vi.SKU, err)
		}
		p.Variants = append(p.Variants, v)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product: %w", err)
	}
	return p, nil
}

func (s *catalogService) GetProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sku, name, unit, created_at
		FROM products
		ORDER BY sku`,
	)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	var products []Product
	index := make(map[int]int)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vrows, err := s.pool.Query(ctx, `
		SELECT id, product_id, sku, name, created_at
		FROM product_variants
		ORDER BY sku`,
	)
	if err != nil {
		return nil, fmt.Errorf("get variants: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var v ProductVariant
		if err := vrows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return products, vrows.Err()
}

func (s *catalogService) GetProduct(ctx context.Context, id int) (*Product, error) {
	p := &Product{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, sku, name, unit, created_at
		FROM products
		WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, sku, name, created_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY sku`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}

func (s *catalogService) AddVariant(ctx context.Context, productID int, input VariantInput) (*ProductVariant, error) {
	if input.SKU == "" || input.Name == "" {
		return nil, fmt.Errorf("variant sku and name cannot be empty")
	}
	v := &ProductVariant{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO product_variants (product_id, sku, name)
		VALUES ($1, $2, $3)
		RETURNING id, product_id, sku, name, created_at`,
		productID, input.SKU, input.Name,
	).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create variant %q: %w", input.SKU, err)
	}
	return v, nil
}
