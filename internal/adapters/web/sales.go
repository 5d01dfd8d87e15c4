package web

import (
	"fmt"
	"net/http"

	"inventory-backend/internal/app"

	"github.com/shopspring/decimal"
)

// apiListSales handles GET /api/sales.
// Query: status?, seller_id?, warehouse_id?, payment_status?, from?, to?, limit?, offset?
func (h *Handler) apiListSales(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSales(r.Context(), app.ListSalesRequest{
		Status:        r.URL.Query().Get("status"),
		SellerID:      queryInt(r, "seller_id"),
		WarehouseID:   queryInt(r, "warehouse_id"),
		PaymentStatus: r.URL.Query().Get("payment_status"),
		From:          queryDate(r, "from"),
		To:            queryDate(r, "to"),
		Limit:         queryInt(r, "limit"),
		Offset:        queryInt(r, "offset"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sales)
}

// apiCreateSale handles POST /api/sales.
// Body: { seller_id, warehouse_id, customer_name?, customer_phone?, tax_amount?,
// payment_mode?, items: [{product_id, variant_id?, quantity, unit_price}] }
func (h *Handler) apiCreateSale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SellerID      int    `json:"seller_id"`
		WarehouseID   int    `json:"warehouse_id"`
		CustomerName  string `json:"customer_name"`
		CustomerPhone string `json:"customer_phone"`
		TaxAmount     string `json:"tax_amount"`
		PaymentMode   string `json:"payment_mode"`
		Items         []struct {
			ProductID int    `json:"product_id"`
			VariantID *int   `json:"variant_id"`
			Quantity  string `json:"quantity"`
			UnitPrice string `json:"unit_price"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if body.SellerID == 0 {
		writeError(w, r, "seller_id is required", "BAD_REQUEST", http.StatusBadRequest)
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

	req := app.CreateSaleRequest{
		SellerID:      body.SellerID,
		WarehouseID:   body.WarehouseID,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		TaxAmount:     tax,
		PaymentMode:   body.PaymentMode,
		Actor:         h.actorOf(r),
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
		req.Items = append(req.Items, app.SaleItemInput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  qty,
			UnitPrice: price,
		})
	}

	result, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Sale)
}

// apiGetSale handles GET /api/sales/{id}.
func (h *Handler) apiGetSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetSale(r.Context(), saleID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// apiConfirmSale handles POST /api/sales/{id}/confirm. Reserves stock.
func (h *Handler) apiConfirmSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ConfirmSale(r.Context(), saleID, h.actorOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// apiDispatchSale handles POST /api/sales/{id}/dispatch.
// Body: { courier_name, tracking_no }
func (h *Handler) apiDispatchSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		CourierName string `json:"courier_name"`
		TrackingNo  string `json:"tracking_no"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CourierName == "" || body.TrackingNo == "" {
		writeError(w, r, "courier_name and tracking_no are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.MarkOutForDelivery(r.Context(), saleID, body.CourierName, body.TrackingNo, h.actorOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// apiDeliverSale handles POST /api/sales/{id}/deliver. Releases the
// reservation, consumes batches FIFO, and journals the delivery.
func (h *Handler) apiDeliverSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.MarkDelivered(r.Context(), saleID, h.actorOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// apiCancelSale handles POST /api/sales/{id}/cancel.
func (h *Handler) apiCancelSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CancelSale(r.Context(), saleID, h.actorOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Cancelled bool `json:"cancelled"`
	}
	writeJSON(w, response{Cancelled: result.Cancelled})
}

// apiReturnSale handles POST /api/sales/{id}/return.
func (h *Handler) apiReturnSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ReturnSale(r.Context(), saleID, h.actorOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// apiRecordSalePayment handles POST /api/sales/{id}/payment.
// Body: { payment_mode, bank_account? }
func (h *Handler) apiRecordSalePayment(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		PaymentMode string  `json:"payment_mode"`
		BankAccount *string `json:"bank_account"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.PaymentMode == "" {
		writeError(w, r, "payment_mode is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RecordSalePayment(r.Context(), app.RecordSalePaymentRequest{
		SaleID:      saleID,
		PaymentMode: body.PaymentMode,
		BankAccount: body.BankAccount,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// apiDeleteSale handles DELETE /api/sales/{id}.
func (h *Handler) apiDeleteSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid sale ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteSale(r.Context(), saleID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
