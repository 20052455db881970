package handler

import (
	"encoding/json"
	"net/http"

	"github.com/amazonas-market/checkout/internal/domain/payment"
	"github.com/amazonas-market/checkout/internal/domain/reservation"
)

type payRequest struct {
	Method payment.Method `json:"method"`
}

// reservationView is the wire form of one created reservation.
type reservationView struct {
	ID         string         `json:"id"`
	StoreID    string         `json:"store_id"`
	Lines      map[string]int `json:"lines"`
	TotalPrice string         `json:"total_price"`
}

func (h *Handler) startPurchase(w http.ResponseWriter, r *http.Request) {
	held, err := h.orch.StartPurchase(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make(map[string]reservationView, len(held))
	for id, res := range held {
		views[id] = toReservationView(res)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"reservations": views})
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "invalid request body"})
		return
	}

	if err := h.orch.Pay(r.Context(), r.PathValue("userID"), req.Method); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func (h *Handler) cancelPurchase(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.orch.CancelPurchase(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func toReservationView(res *reservation.Reservation) reservationView {
	return reservationView{
		ID:         res.ID,
		StoreID:    res.StoreID,
		Lines:      res.Lines,
		TotalPrice: res.TotalPrice.StringFixed(2),
	}
}
