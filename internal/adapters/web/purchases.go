package web

import (
	"fmt"
	"net/http"
	"time"

	"inventory-backend/internal/app"

	"github.com/shopspring/decimal"
)

// apiListPurchases handles GET /api/purchases.
// Query: status?, warehouse_id?, from?, to?, limit?, offset?
func (h *Handler) apiListPurchases(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPurchases(r.Context(), app.ListPurchasesRequest{
		Status:      r.URL.Query().Get("status"),
		WarehouseID: queryInt(r, "warehouse_id"),
		From:        queryDate(r, "from"),
		To:          queryDate(r, "to"),
		Limit:       queryInt(r, "limit"),
		Offset:      queryInt(r, "offset"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchases)
}

// apiCreatePurchase handles POST /api/purchases.
// Body: { supplier_name, invoice_no?, warehouse_id, purchase_date?, tax_amount?,
// note?, items: [{product_id, variant_id?, batch_no?, expiry_date?, quantity, unit_price}] }
func (h *Handler) apiCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SupplierName string `json:"supplier_name"`
		InvoiceNo    string `json:"invoice_no"`
		WarehouseID  int    `json:"warehouse_id"`
		PurchaseDate string `json:"purchase_date"`
		TaxAmount    string `json:"tax_amount"`
		Note         string `json:"note"`
		Items        []struct {
			ProductID  int     `json:"product_id"`
			VariantID  *int    `json:"variant_id"`
			BatchNo    *string `json:"batch_no"`
			ExpiryDate string  `json:"expiry_date"`
			Quantity   string  `json:"quantity"`
			UnitPrice  string  `json:"unit_price"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if body.SupplierName == "" {
		writeError(w, r, "supplier_name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if body.WarehouseID == 0 {
		writeError(w, r, "warehouse_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if len(body.Items) == 0 {
		writeError(w, r, "at least one item is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	tax, _ := decimal.NewFromString(body.TaxAmount)

	req := app.CreatePurchaseRequest{
		SupplierName: body.SupplierName,
		InvoiceNo:    body.InvoiceNo,
		WarehouseID:  body.WarehouseID,
		PurchaseDate: body.PurchaseDate,
		TaxAmount:    tax,
		Note:         body.Note,
		Actor:        h.actorOf(r),
	}

	for i, it := range body.Items {
		qty, err := decimal.NewFromString(it.Quantity)
		if err != nil || !qty.IsPositive() {
			writeError(w, r, fmt.Sprintf("item %d: invalid quantity", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil || price.IsNegative() {
			writeError(w, r, fmt.Sprintf("item %d: invalid unit_price", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}

		var expiry *time.Time
		if it.ExpiryDate != "" {
			t, err := time.Parse("2006-01-02", it.ExpiryDate)
			if err != nil {
				writeError(w, r, fmt.Sprintf("item %d: invalid expiry_date (expected YYYY-MM-DD)", i+1), "BAD_REQUEST", http.StatusBadRequest)
				return
			}
			expiry = &t
		}

		req.Items = append(req.Items, app.PurchaseItemInput{
			ProductID:  it.ProductID,
			VariantID:  it.VariantID,
			BatchNo:    it.BatchNo,
			ExpiryDate: expiry,
			Quantity:   qty,
			UnitPrice:  price,
		})
	}

	result, err := h.svc.CreatePurchase(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Purchase)
}

// apiUpdatePurchase handles PUT /api/purchases/{id}.
// Body: same shape as create; an absent or empty items array keeps the
// existing lines.
func (h *Handler) apiUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid purchase ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		SupplierName string `json:"supplier_name"`
		InvoiceNo    string `json:"invoice_no"`
		WarehouseID  int    `json:"warehouse_id"`
		PurchaseDate string `json:"purchase_date"`
		TaxAmount    string `json:"tax_amount"`
		Note         string `json:"note"`
		Items        []struct {
			ProductID  int     `json:"product_id"`
			VariantID  *int    `json:"variant_id"`
			BatchNo    *string `json:"batch_no"`
			ExpiryDate string  `json:"expiry_date"`
			Quantity   string  `json:"quantity"`
			UnitPrice  string  `json:"unit_price"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if body.SupplierName == "" {
		writeError(w, r, "supplier_name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if body.WarehouseID == 0 {
		writeError(w, r, "warehouse_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	tax, _ := decimal.NewFromString(body.TaxAmount)

	req := app.UpdatePurchaseRequest{
		SupplierName: body.SupplierName,
		InvoiceNo:    body.InvoiceNo,
		WarehouseID:  body.WarehouseID,
		PurchaseDate: body.PurchaseDate,
		TaxAmount:    tax,
		Note:         body.Note,
	}

	for i, it := range body.Items {
		qty, err := decimal.NewFromString(it.Quantity)
		if err != nil || !qty.IsPositive() {
			writeError(w, r, fmt.Sprintf("item %d: invalid quantity", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil || price.IsNegative() {
			writeError(w, r, fmt.Sprintf("item %d: invalid unit_price", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}

		var expiry *time.Time
		if it.ExpiryDate != "" {
			t, err := time.Parse("2006-01-02", it.ExpiryDate)
			if err != nil {
				writeError(w, r, fmt.Sprintf("item %d: invalid expiry_date (expected YYYY-MM-DD)", i+1), "BAD_REQUEST", http.StatusBadRequest)
				return
			}
			expiry = &t
		}

		req.Items = append(req.Items, app.PurchaseItemInput{
			ProductID:  it.ProductID,
			VariantID:  it.VariantID,
			BatchNo:    it.BatchNo,
			ExpiryDate: expiry,
			Quantity:   qty,
			UnitPrice:  price,
		})
	}

	result, err := h.svc.UpdatePurchase(r.Context(), purchaseID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}

// apiGetPurchase handles GET /api/purchases/{id}.
func (h *Handler) apiGetPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid purchase ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetPurchase(r.Context(), purchaseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}

// apiPurchaseLedger handles GET /api/purchases/{id}/ledger.
func (h *Handler) apiPurchaseLedger(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid purchase ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetPurchaseLedger(r.Context(), purchaseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

// apiConfirmPurchase handles POST /api/purchases/{id}/confirm.
func (h *Handler) apiConfirmPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid purchase ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ConfirmPurchase(r.Context(), purchaseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}

// apiReceivePurchase handles POST /api/purchases/{id}/receive.
func (h *Handler) apiReceivePurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid purchase ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ReceivePurchase(r.Context(), purchaseID, h.actorOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}

// apiCancelPurchase handles POST /api/purchases/{id}/cancel.
func (h *Handler) apiCancelPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid purchase ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CancelPurchase(r.Context(), purchaseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Cancelled bool `json:"cancelled"`
	}
	writeJSON(w, response{Cancelled: result.Cancelled})
}

// apiDeletePurchase handles DELETE /api/purchases/{id}.
func (h *Handler) apiDeletePurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid purchase ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeletePurchase(r.Context(), purchaseID, h.actorOf(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
