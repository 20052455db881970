package condition

import (
	"github.com/shopspring/decimal"
)

// Descriptor type tags. They double as the wire/storage representation of
// the matching tree variant.
const (
	TypeAnd         = "and"
	TypeOr          = "or"
	TypeNot         = "not"
	TypeMinQuantity = "min_quantity"
	TypeMinTotal    = "min_total"
	TypeMinItems    = "min_items"
)

// Descriptor is the structured form of a condition tree, suitable for JSON
// transport and storage. FromDescriptor rebuilds an evaluation-equivalent
// tree from it.
type Descriptor struct {
	Type      string          `json:"type"`
	Children  []Descriptor    `json:"children,omitempty"`
	ProductID string          `json:"product_id,omitempty"`
	Quantity  int             `json:"quantity,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// Descriptor renders the tree as a Descriptor. A failure in any child
// propagates as a DescriptorError.
func (c *Condition) Descriptor() (Descriptor, error) {
	switch c.op {
	case opAnd, opOr:
		if len(c.children) == 0 {
			return Descriptor{}, &DescriptorError{Reason: "composite condition has no children"}
		}
		typ := TypeAnd
		if c.op == opOr {
			typ = TypeOr
		}
		children := make([]Descriptor, 0, len(c.children))
		for _, child := range c.children {
			d, err := child.Descriptor()
			if err != nil {
				return Descriptor{}, err
			}
			children = append(children, d)
		}
		return Descriptor{Type: typ, Children: children}, nil
	case opNot:
		if len(c.children) != 1 {
			return Descriptor{}, &DescriptorError{Reason: "negation has no child"}
		}
		child, err := c.children[0].Descriptor()
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Type: TypeNot, Children: []Descriptor{child}}, nil
	case opMinQuantity:
		return Descriptor{Type: TypeMinQuantity, ProductID: c.productID, Quantity: c.quantity}, nil
	case opMinTotal:
		return Descriptor{Type: TypeMinTotal, Amount: c.amount}, nil
	case opMinItems:
		return Descriptor{Type: TypeMinItems, Quantity: c.quantity}, nil
	default:
		return Descriptor{}, &DescriptorError{Reason: "unknown condition variant"}
	}
}

// FromDescriptor rebuilds a condition tree from its descriptor form. A
// malformed descriptor (unknown type, leaf-less composite) fails with a
// ConfigError.
func FromDescriptor(d Descriptor) (*Condition, error) {
	switch d.Type {
	case TypeAnd, TypeOr:
		children := make([]*Condition, 0, len(d.Children))
		for _, cd := range d.Children {
			child, err := FromDescriptor(cd)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if d.Type == TypeAnd {
			return And(children...)
		}
		return Or(children...)
	case TypeNot:
		if len(d.Children) != 1 {
			return nil, &ConfigError{Reason: "negation requires exactly one child"}
		}
		child, err := FromDescriptor(d.Children[0])
		if err != nil {
			return nil, err
		}
		return Not(child)
	case TypeMinQuantity:
		return MinQuantity(d.ProductID, d.Quantity)
	case TypeMinTotal:
		return MinTotal(d.Amount)
	case TypeMinItems:
		return MinItems(d.Quantity)
	case "":
		return nil, &ConfigError{Reason: "descriptor type is empty"}
	default:
		return nil, &ConfigError{Reason: "unknown descriptor type: " + d.Type}
	}
}
