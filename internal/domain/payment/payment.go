package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Method identifies the payment instrument to charge. The token is an
// opaque reference issued by the payment provider; raw card data never
// enters this system.
type Method struct {
	Kind  string `json:"kind"`
	Token string `json:"token"`
}

// Gateway is the external payment collaborator. Charge returns false when
// the charge was processed but declined; an error means the outcome is
// unknown (transport failure) and the caller must treat it as a decline.
type Gateway interface {
	Charge(ctx context.Context, method Method, amount decimal.Decimal) (bool, error)
}
