// Package handler exposes the checkout pipeline over HTTP. It is a thin
// translation layer: decode, delegate to the domain, map errors.
package handler

import (
	"net/http"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/product"
	"github.com/amazonas-market/checkout/internal/domain/purchase"
	"github.com/amazonas-market/checkout/internal/domain/transaction"
)

// Handler holds the domain dependencies for all HTTP endpoints.
type Handler struct {
	carts    cart.Repository
	orch     *purchase.Orchestrator
	ledger   transaction.Ledger
	products product.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	carts cart.Repository,
	orch *purchase.Orchestrator,
	ledger transaction.Ledger,
	products product.Repository,
) *Handler {
	return &Handler{
		carts:    carts,
		orch:     orch,
		ledger:   ledger,
		products: products,
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)

	mux.HandleFunc("GET /api/users/{userID}/cart", h.viewCart)
	mux.HandleFunc("POST /api/users/{userID}/cart/items", h.addCartItem)
	mux.HandleFunc("PUT /api/users/{userID}/cart/stores/{storeID}/items/{productID}", h.changeCartItem)
	mux.HandleFunc("DELETE /api/users/{userID}/cart/stores/{storeID}/items/{productID}", h.removeCartItem)

	mux.HandleFunc("POST /api/users/{userID}/checkout", h.startPurchase)
	mux.HandleFunc("POST /api/users/{userID}/checkout/pay", h.pay)
	mux.HandleFunc("POST /api/users/{userID}/checkout/cancel", h.cancelPurchase)

	mux.HandleFunc("GET /api/transactions/{transactionID}", h.getTransaction)
	mux.HandleFunc("GET /api/users/{userID}/transactions", h.userHistory)
	mux.HandleFunc("GET /api/stores/{storeID}/transactions", h.storeHistory)
	mux.HandleFunc("GET /api/stores/{storeID}/pending-shipments", h.pendingShipments)
}
