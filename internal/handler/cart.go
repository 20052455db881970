package handler

import (
	"encoding/json"
	"net/http"
)

type addItemRequest struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type changeItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.GetCart(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "invalid request body"})
		return
	}

	h.mutateCart(w, r, func(c cartMutator) error {
		return c.AddProduct(req.StoreID, req.ProductID, req.Quantity)
	})
}

func (h *Handler) changeCartItem(w http.ResponseWriter, r *http.Request) {
	var req changeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "invalid request body"})
		return
	}
	storeID, productID := r.PathValue("storeID"), r.PathValue("productID")

	h.mutateCart(w, r, func(c cartMutator) error {
		return c.ChangeQuantity(storeID, productID, req.Quantity)
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	storeID, productID := r.PathValue("storeID"), r.PathValue("productID")

	h.mutateCart(w, r, func(c cartMutator) error {
		return c.RemoveProduct(storeID, productID)
	})
}

// cartMutator is the slice of cart behaviour the mutation endpoints need.
type cartMutator interface {
	AddProduct(storeID, productID string, quantity int) error
	ChangeQuantity(storeID, productID string, quantity int) error
	RemoveProduct(storeID, productID string) error
}

// mutateCart loads the cart, applies the mutation, and saves it back.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, mutate func(cartMutator) error) {
	userID := r.PathValue("userID")

	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := mutate(c); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.carts.SaveCart(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
