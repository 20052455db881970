//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doGet(t, "/readyz")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decodeJSON[[]productResponse](t, resp)
	require.Len(t, products, 5)

	byID := map[string]productResponse{}
	for _, p := range products {
		byID[p.ID] = p
	}
	assert.Equal(t, "24.90", byID["espresso-kit"].Price)
	assert.Equal(t, "coffee", byID["espresso-kit"].Category)
}

func TestFullCheckoutFlow(t *testing.T) {
	const user = "/api/users/flow-user"

	// Three espresso kits trigger the seeded 10% bulk rule.
	resp := doJSON(t, http.MethodPost, user+"/cart/items", addItemRequest{
		StoreID: "store-coffee", ProductID: "espresso-kit", Quantity: 3,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, user+"/cart/items", addItemRequest{
		StoreID: "store-books", ProductID: "go-in-practice", Quantity: 1,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, user+"/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	checkout := decodeJSON[checkoutResponse](t, resp)
	resp.Body.Close()
	require.Len(t, checkout.Reservations, 2)

	totals := map[string]string{}
	for _, r := range checkout.Reservations {
		totals[r.StoreID] = r.TotalPrice
	}
	assert.Equal(t, "67.23", totals["store-coffee"], "74.70 minus the 10% bulk discount")
	assert.Equal(t, "41.25", totals["store-books"])

	var pay payRequest
	pay.Method.Kind = "card"
	pay.Method.Token = "tok_integration"
	resp = doJSON(t, http.MethodPost, user+"/checkout/pay", pay)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// One transaction per store basket, pending shipment.
	resp = doGet(t, user+"/transactions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeJSON[[]transactionView](t, resp)
	resp.Body.Close()
	require.Len(t, history, 2)
	for _, tr := range history {
		assert.Equal(t, "PENDING_SHIPMENT", tr.State)
		assert.Equal(t, "flow-user", tr.UserID)
	}

	resp = doGet(t, "/api/stores/store-coffee/pending-shipments")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decodeJSON[[]transactionView](t, resp)
	resp.Body.Close()
	require.NotEmpty(t, pending)

	// The cart is empty after a committed purchase.
	resp = doJSON(t, http.MethodPost, user+"/checkout", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errBody := decodeJSON[errorResponse](t, resp)
	assert.Contains(t, errBody.Message, "cart is empty")
}

func TestCheckoutCancelReleasesReservations(t *testing.T) {
	const user = "/api/users/cancel-user"

	resp := doJSON(t, http.MethodPost, user+"/cart/items", addItemRequest{
		StoreID: "store-coffee", ProductID: "moka-pot", Quantity: 1,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, user+"/checkout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// A second checkout conflicts while reservations are held.
	resp = doJSON(t, http.MethodPost, user+"/checkout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, user+"/checkout/cancel", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// After cancelling, checkout works again and the cart is intact.
	resp = doJSON(t, http.MethodPost, user+"/checkout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, user+"/checkout/cancel", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownTransaction(t *testing.T) {
	resp := doGet(t, "/api/transactions/does-not-exist")
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	errBody := decodeJSON[errorResponse](t, resp)
	assert.Equal(t, http.StatusNotFound, errBody.Code)
}

func TestRateLimitHeadersPresent(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))
}
