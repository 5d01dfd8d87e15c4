package web

import (
	"net/http"

	"inventory-backend/internal/app"
	"inventory-backend/internal/core"
)

// apiListWarehouses handles GET /api/warehouses.
func (h *Handler) apiListWarehouses(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListWarehouses(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Warehouses)
}

// apiCreateWarehouse handles POST /api/warehouses.
// Body: { name, location? }
func (h *Handler) apiCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	warehouse, err := h.svc.CreateWarehouse(r.Context(), body.Name, body.Location)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, warehouse)
}

// apiListSellers handles GET /api/sellers.
func (h *Handler) apiListSellers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSellers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sellers)
}

// apiCreateSeller handles POST /api/sellers.
// Body: { name, email?, phone?, address? }
func (h *Handler) apiCreateSeller(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	seller, err := h.svc.CreateSeller(r.Context(), core.SellerInput{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Address: body.Address,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, seller)
}

// apiListProducts handles GET /api/products.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

// apiGetProduct handles GET /api/products/{id}.
func (h *Handler) apiGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid product ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	product, err := h.svc.GetProduct(r.Context(), productID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

// apiCreateProduct handles POST /api/products.
// Body: { sku, name, unit?, variants?: [{sku, name}] }
func (h *Handler) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SKU      string `json:"sku"`
		Name     string `json:"name"`
		Unit     string `json:"unit"`
		Variants []struct {
			SKU  string `json:"sku"`
			Name string `json:"name"`
		} `json:"variants"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.SKU == "" {
		writeError(w, r, "sku is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	req := app.CreateProductRequest{
		SKU:  body.SKU,
		Name: body.Name,
		Unit: body.Unit,
	}
	for _, v := range body.Variants {
		req.Variants = append(req.Variants, app.VariantInput{SKU: v.SKU, Name: v.Name})
	}

	product, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, product)
}

// apiAddVariant handles POST /api/products/{id}/variants.
// Body: { sku, name }
func (h *Handler) apiAddVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid product ID", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		SKU  string `json:"sku"`
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.SKU == "" {
		writeError(w, r, "sku is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	variant, err := h.svc.AddVariant(r.Context(), productID, body.SKU, body.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, variant)
}
