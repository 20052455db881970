package handler

import (
	"net/http"

	"github.com/amazonas-market/checkout/internal/domain/transaction"
)

// transactionView is the wire form of a ledger transaction.
type transactionView struct {
	ID        string     `json:"id"`
	StoreID   string     `json:"store_id"`
	UserID    string     `json:"user_id"`
	Timestamp string     `json:"timestamp"`
	State     string     `json:"state"`
	Lines     []lineView `json:"lines"`
}

type lineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// productView is the wire form of a catalog product.
type productView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Rating   int    `json:"rating"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price.StringFixed(2),
			Category: p.Category,
			Rating:   p.Rating,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.Get(r.Context(), r.PathValue("transactionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionView(t))
}

func (h *Handler) userHistory(w http.ResponseWriter, r *http.Request) {
	ts, err := h.ledger.HistoryByUser(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionViews(ts))
}

func (h *Handler) storeHistory(w http.ResponseWriter, r *http.Request) {
	ts, err := h.ledger.HistoryByStore(r.Context(), r.PathValue("storeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionViews(ts))
}

func (h *Handler) pendingShipments(w http.ResponseWriter, r *http.Request) {
	ts, err := h.ledger.PendingShipment(r.Context(), r.PathValue("storeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionViews(ts))
}

func toTransactionViews(ts []*transaction.Transaction) []transactionView {
	out := make([]transactionView, len(ts))
	for i, t := range ts {
		out[i] = toTransactionView(t)
	}
	return out
}

func toTransactionView(t *transaction.Transaction) transactionView {
	lines := make([]lineView, len(t.Lines))
	for i, line := range t.Lines {
		lines[i] = lineView{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			UnitPrice: line.Product.Price.StringFixed(2),
			Quantity:  line.Quantity,
		}
	}
	return transactionView{
		ID:        t.ID,
		StoreID:   t.StoreID,
		UserID:    t.UserID,
		Timestamp: t.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		State:     string(t.State),
		Lines:     lines,
	}
}
