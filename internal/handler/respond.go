package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/condition"
	"github.com/amazonas-market/checkout/internal/domain/product"
	"github.com/amazonas-market/checkout/internal/domain/purchase"
	"github.com/amazonas-market/checkout/internal/domain/reservation"
	"github.com/amazonas-market/checkout/internal/domain/store"
	"github.com/amazonas-market/checkout/internal/domain/transaction"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to HTTP statuses. Unrecognized errors are
// logged and surfaced as a bare 500 so no internal state leaks.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("internal error", zap.Error(err))
		writeJSON(w, status, errorResponse{Code: status, Message: "internal error"})
		return
	}

	// A failed purchase carries an internal cause; only the reason is
	// user-facing.
	var failed *purchase.FailedError
	if errors.As(err, &failed) {
		writeJSON(w, status, errorResponse{Code: status, Message: "purchase failed: " + failed.Reason})
		return
	}
	writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, cart.ErrProductNotInCart):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, reservation.ErrAlreadyReserved):
		return http.StatusConflict
	case errors.Is(err, condition.ErrNilLines):
		return http.StatusBadRequest
	}

	var cfgErr *condition.ConfigError
	if errors.As(err, &cfgErr) {
		return http.StatusBadRequest
	}
	var failed *purchase.FailedError
	if errors.As(err, &failed) {
		// The reason is user-facing; the wrapped cause may not be.
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
