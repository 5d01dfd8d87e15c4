// restore-seed is a one-shot tool to load baseline master data into a fresh
// database: the main warehouse, a default seller, a small product catalog,
// and an admin user.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"
	"os"

	"inventory-backend/internal/db"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Fatal("SEED_ADMIN_PASSWORD environment variable not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Restoring warehouses...")
	_, err = tx.Exec(ctx, `
		INSERT INTO warehouses (name, location)
		VALUES
		  ('Main Warehouse', 'Mumbai'),
		  ('North Hub',      'Delhi')
		ON CONFLICT (name) DO UPDATE
		  SET location = EXCLUDED.location;
	`)
	if err != nil {
		log.Fatalf("Failed to restore warehouses: %v", err)
	}

	log.Println("Restoring default seller...")
	_, err = tx.Exec(ctx, `
		INSERT INTO sellers (name, email, phone, address)
		SELECT 'Direct Store', 'store@example.com', '', ''
		WHERE NOT EXISTS (SELECT 1 FROM sellers WHERE name = 'Direct Store');
	`)
	if err != nil {
		log.Fatalf("Failed to restore seller: %v", err)
	}

	log.Println("Restoring product catalog...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (sku, name, unit)
		VALUES
		  ('TEA-250',  'Assam Tea 250g',      'pcs'),
		  ('TEA-500',  'Assam Tea 500g',      'pcs'),
		  ('HONEY-1L', 'Wild Honey 1L',       'pcs'),
		  ('RICE-5KG', 'Basmati Rice 5kg',    'bag')
		ON CONFLICT (sku) DO UPDATE
		  SET name = EXCLUDED.name,
		      unit = EXCLUDED.unit;
	`)
	if err != nil {
		log.Fatalf("Failed to restore products: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO product_variants (product_id, sku, name)
		SELECT p.id, v.sku, v.name
		FROM products p
		CROSS JOIN (VALUES
		    ('TEA-250-GRN', 'Green'),
		    ('TEA-250-BLK', 'Black')
		) AS v(sku, name)
		WHERE p.sku = 'TEA-250'
		ON CONFLICT (sku) DO UPDATE
		  SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to restore variants: %v", err)
	}

	log.Println("Restoring admin user...")
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, email, password_hash, role, is_active)
		VALUES ('admin', 'admin@example.com', $1, 'admin', true)
		ON CONFLICT (username) DO UPDATE
		  SET password_hash = EXCLUDED.password_hash,
		      is_active = true;
	`, string(hash))
	if err != nil {
		log.Fatalf("Failed to restore admin user: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data restored successfully.")
}
