// Package paygate holds payment gateway implementations.
package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/payment"
)

var _ payment.Gateway = (*HTTPGateway)(nil)

// HTTPGateway charges through an external payment provider's JSON API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway for the provider at baseURL.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chargeRequest struct {
	Method payment.Method `json:"method"`
	Amount string         `json:"amount"`
}

type chargeResponse struct {
	Approved bool `json:"approved"`
}

// Charge posts the charge request and reports whether it was approved.
// Any transport or protocol failure is returned as an error; the caller
// treats an unknown outcome as a decline.
func (g *HTTPGateway) Charge(ctx context.Context, method payment.Method, amount decimal.Decimal) (bool, error) {
	body, err := json.Marshal(chargeRequest{Method: method, Amount: amount.StringFixed(2)})
	if err != nil {
		return false, errors.Wrap(err, "encode charge request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charge", bytes.NewReader(body))
	if err != nil {
		return false, errors.Wrap(err, "build charge request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "call payment provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, errors.Wrap(err, "decode charge response")
	}
	return out.Approved, nil
}

var _ payment.Gateway = (*StaticGateway)(nil)

// StaticGateway approves every charge and logs it. It stands in for a real
// provider in development setups.
type StaticGateway struct {
	lg *zap.Logger
}

// NewStaticGateway returns a StaticGateway using the given logger.
func NewStaticGateway(lg *zap.Logger) *StaticGateway {
	return &StaticGateway{lg: lg}
}

// Charge logs the request and approves it.
func (g *StaticGateway) Charge(_ context.Context, method payment.Method, amount decimal.Decimal) (bool, error) {
	g.lg.Info("dev gateway approved charge",
		zap.String("method", method.Kind),
		zap.String("amount", amount.StringFixed(2)),
	)
	return true, nil
}
