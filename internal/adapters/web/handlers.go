package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"inventory-backend/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (401 JSON if unauthenticated) ───────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// ── Catalog ───────────────────────────────────────────────────────────
		r.Get("/api/warehouses", h.apiListWarehouses)
		r.Post("/api/warehouses", h.apiCreateWarehouse)
		r.Get("/api/sellers", h.apiListSellers)
		r.Post("/api/sellers", h.apiCreateSeller)
		r.Get("/api/products", h.apiListProducts)
		r.Post("/api/products", h.apiCreateProduct)
		r.Get("/api/products/{id}", h.apiGetProduct)
		r.Post("/api/products/{id}/variants", h.apiAddVariant)

		// ── Stock ─────────────────────────────────────────────────────────────
		r.Get("/api/warehouses/{id}/stock", h.apiStockLevels)
		r.Get("/api/warehouses/{id}/stock/low", h.apiLowStock)
		r.Get("/api/warehouses/{id}/stock/record", h.apiStockRecord)
		r.Post("/api/stock/adjust", h.apiAdjustStock)
		r.Get("/api/stock/ledger", h.apiLedgerHistory)

		// ── Purchases ─────────────────────────────────────────────────────────
		r.Get("/api/purchases", h.apiListPurchases)
		r.Post("/api/purchases", h.apiCreatePurchase)
		r.Get("/api/purchases/{id}", h.apiGetPurchase)
		r.Put("/api/purchases/{id}", h.apiUpdatePurchase)
		r.Get("/api/purchases/{id}/ledger", h.apiPurchaseLedger)
		r.Post("/api/purchases/{id}/confirm", h.apiConfirmPurchase)
		r.Post("/api/purchases/{id}/receive", h.apiReceivePurchase)
		r.Post("/api/purchases/{id}/cancel", h.apiCancelPurchase)
		r.Delete("/api/purchases/{id}", h.apiDeletePurchase)

		// ── Sales ─────────────────────────────────────────────────────────────
		r.Get("/api/sales", h.apiListSales)
		r.Post("/api/sales", h.apiCreateSale)
		r.Get("/api/sales/{id}", h.apiGetSale)
		r.Post("/api/sales/{id}/confirm", h.apiConfirmSale)
		r.Post("/api/sales/{id}/dispatch", h.apiDispatchSale)
		r.Post("/api/sales/{id}/deliver", h.apiDeliverSale)
		r.Post("/api/sales/{id}/cancel", h.apiCancelSale)
		r.Post("/api/sales/{id}/return", h.apiReturnSale)
		r.Post("/api/sales/{id}/payment", h.apiRecordSalePayment)
		r.Delete("/api/sales/{id}", h.apiDeleteSale)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// urlID extracts and parses the {id} URL parameter.
func urlID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// actorOf returns the authenticated username for audit fields. Handlers are
// behind RequireAuth, so claims are present on every call.
func (h *Handler) actorOf(r *http.Request) string {
	claims := authFromContext(r.Context())
	if claims == nil {
		return ""
	}
	user, err := h.svc.GetUser(r.Context(), claims.UserID)
	if err != nil {
		return ""
	}
	return user.Username
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the size limit set by RequestBodyLimit middleware; HTTP 400 for all
// other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
