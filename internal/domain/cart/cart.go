package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Sentinel errors for cart validation.
var (
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
	ErrProductNotInCart = errors.New("product is not in the cart")
)

// ProductLine is a single product entry inside a store basket. It is treated
// as an immutable value during one pricing pass.
type ProductLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Basket groups the product lines a user holds against a single store.
type Basket struct {
	Lines []ProductLine `json:"lines"`
}

// Cart is the per-user collection of store baskets awaiting purchase.
type Cart struct {
	UserID  string            `json:"user_id"`
	Baskets map[string]Basket `json:"baskets"`
}

// New returns an empty cart for the given user.
func New(userID string) *Cart {
	return &Cart{
		UserID:  userID,
		Baskets: make(map[string]Basket),
	}
}

// IsEmpty reports whether the cart holds no product lines at all.
func (c *Cart) IsEmpty() bool {
	for _, b := range c.Baskets {
		if len(b.Lines) > 0 {
			return false
		}
	}
	return true
}

// AddProduct adds quantity of a product to the given store basket, creating
// the basket when needed. Adding an already present product increases its
// quantity.
func (c *Cart) AddProduct(storeID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	b := c.Baskets[storeID]
	for i, line := range b.Lines {
		if line.ProductID == productID {
			b.Lines[i].Quantity += quantity
			c.Baskets[storeID] = b
			return nil
		}
	}
	b.Lines = append(b.Lines, ProductLine{ProductID: productID, Quantity: quantity})
	c.Baskets[storeID] = b
	return nil
}

// RemoveProduct removes a product line from the given store basket. Empty
// baskets are dropped from the cart.
func (c *Cart) RemoveProduct(storeID, productID string) error {
	b, ok := c.Baskets[storeID]
	if !ok {
		return ErrProductNotInCart
	}
	for i, line := range b.Lines {
		if line.ProductID == productID {
			b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
			if len(b.Lines) == 0 {
				delete(c.Baskets, storeID)
			} else {
				c.Baskets[storeID] = b
			}
			return nil
		}
	}
	return ErrProductNotInCart
}

// ChangeQuantity replaces the quantity of an existing product line.
func (c *Cart) ChangeQuantity(storeID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	b, ok := c.Baskets[storeID]
	if !ok {
		return ErrProductNotInCart
	}
	for i, line := range b.Lines {
		if line.ProductID == productID {
			b.Lines[i].Quantity = quantity
			c.Baskets[storeID] = b
			return nil
		}
	}
	return ErrProductNotInCart
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := New(c.UserID)
	for storeID, b := range c.Baskets {
		lines := make([]ProductLine, len(b.Lines))
		copy(lines, b.Lines)
		out.Baskets[storeID] = Basket{Lines: lines}
	}
	return out
}

// Provider is the narrow read interface the checkout core consumes.
type Provider interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	ResetCart(ctx context.Context, userID string) error
}

// Repository extends Provider with persistence of cart mutations. The
// request layer uses it for add/remove/change operations.
type Repository interface {
	Provider
	SaveCart(ctx context.Context, c *Cart) error
}
