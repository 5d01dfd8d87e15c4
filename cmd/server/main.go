package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "inventory-backend/internal/adapters/web"
	"inventory-backend/internal/app"
	"inventory-backend/internal/core"
	"inventory-backend/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	ledger := core.NewLedger(pool)
	stockService := core.NewStockService(pool)
	purchaseService := core.NewPurchaseService(pool)
	saleService := core.NewSaleService(pool)
	catalogService := core.NewCatalogService(pool)
	userService := core.NewUserService(pool)
	sequenceService := core.NewSequenceService(pool)

	svc := app.NewAppService(pool, ledger, stockService, purchaseService, saleService, catalogService, userService, sequenceService)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
