package web

import (
	"net/http"
	"strconv"
	"time"

	"inventory-backend/internal/app"

	"github.com/shopspring/decimal"
)

// queryInt parses an integer query parameter, returning 0 when absent or bad.
func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// queryDate parses a YYYY-MM-DD query parameter, returning nil when absent or bad.
func queryDate(r *http.Request, name string) *time.Time {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// queryVariantID parses the optional variant_id query parameter.
func queryVariantID(r *http.Request) *int {
	s := r.URL.Query().Get("variant_id")
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// apiStockLevels handles GET /api/warehouses/{id}/stock.
func (h *Handler) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid warehouse ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetStockLevels(r.Context(), warehouseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Levels)
}

// apiLowStock handles GET /api/warehouses/{id}/stock/low.
func (h *Handler) apiLowStock(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid warehouse ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetLowStock(r.Context(), warehouseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Levels)
}

// apiStockRecord handles GET /api/warehouses/{id}/stock/record?product_id=&variant_id=.
func (h *Handler) apiStockRecord(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid warehouse ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	productID := queryInt(r, "product_id")
	if productID == 0 {
		writeError(w, r, "product_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	record, err := h.svc.GetStockRecord(r.Context(), warehouseID, productID, queryVariantID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, record)
}

// apiAdjustStock handles POST /api/stock/adjust.
// Body: { warehouse_id, product_id, variant_id?, batch_no?, expiry_date?, qty, note? }
// qty is a decimal string; positive adds stock, negative removes.
func (h *Handler) apiAdjustStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WarehouseID int     `json:"warehouse_id"`
		ProductID   int     `json:"product_id"`
		VariantID   *int    `json:"variant_id"`
		BatchNo     *string `json:"batch_no"`
		ExpiryDate  string  `json:"expiry_date"`
		Qty         string  `json:"qty"`
		Note        string  `json:"note"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if body.WarehouseID == 0 || body.ProductID == 0 {
		writeError(w, r, "warehouse_id and product_id are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	qty, err := decimal.NewFromString(body.Qty)
	if err != nil || qty.IsZero() {
		writeError(w, r, "invalid qty", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var expiry *time.Time
	if body.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", body.ExpiryDate)
		if err != nil {
			writeError(w, r, "invalid expiry_date (expected YYYY-MM-DD)", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		expiry = &t
	}

	err = h.svc.AdjustStock(r.Context(), app.AdjustStockRequest{
		WarehouseID: body.WarehouseID,
		ProductID:   body.ProductID,
		VariantID:   body.VariantID,
		BatchNo:     body.BatchNo,
		ExpiryDate:  expiry,
		Qty:         qty,
		Note:        body.Note,
		Actor:       h.actorOf(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiLedgerHistory handles GET /api/stock/ledger.
// Query: warehouse_id?, product_id?, ref_type?, from?, to?, limit?, offset?
func (h *Handler) apiLedgerHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetLedgerHistory(r.Context(), app.LedgerHistoryRequest{
		WarehouseID: queryInt(r, "warehouse_id"),
		ProductID:   queryInt(r, "product_id"),
		RefType:     r.URL.Query().Get("ref_type"),
		From:        queryDate(r, "from"),
		To:          queryDate(r, "to"),
		Limit:       queryInt(r, "limit"),
		Offset:      queryInt(r, "offset"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}
