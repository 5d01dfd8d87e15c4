package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"inventory-backend/internal/core"

	"github.com/jackc/pgx/v5"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps domain errors onto HTTP statuses: missing aggregates
// become 404, state conflicts (bad transitions, shortfalls, duplicate tracking
// numbers) become 409, everything else 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrStockRecordNotFound),
		errors.Is(err, core.ErrLedgerNotFound),
		errors.Is(err, pgx.ErrNoRows):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidStatusTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrInsufficientStock),
		errors.Is(err, core.ErrInsufficientAvailableStock),
		errors.Is(err, core.ErrBatchShortfall),
		errors.Is(err, core.ErrBatchIntegrity),
		errors.Is(err, core.ErrRollbackInsufficientStock):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.Is(err, core.ErrTrackingNoConflict):
		writeError(w, r, err.Error(), "TRACKING_NO_CONFLICT", http.StatusConflict)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
