// Package condition implements the composable boolean rules that gate
// discount eligibility. A Condition is an immutable expression tree built
// from leaf predicates over priced product lines and the And/Or/Not
// combinators. Evaluation is a pure function of the tree and the supplied
// lines, so a single tree may be evaluated concurrently without limit.
package condition

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNilLines is returned by Evaluate when the supplied line set is nil.
// An empty (non-nil) line set is valid input.
var ErrNilLines = errors.New("product lines cannot be nil")

// ConfigError indicates a malformed condition tree, such as a composite
// variant constructed with no children.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid condition: %s", e.Reason)
}

// DescriptorError indicates a condition tree that cannot be rendered as a
// descriptor. It propagates from the failing child rather than being
// swallowed.
type DescriptorError struct {
	Reason string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("cannot generate condition descriptor: %s", e.Reason)
}

// Line is a priced product line, the unit conditions are evaluated over.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// op tags the variant of a Condition node.
type op uint8

const (
	opAnd op = iota
	opOr
	opNot
	opMinQuantity
	opMinTotal
	opMinItems
)

// Condition is one node of an immutable boolean expression tree. Values are
// only constructed through the package constructors, which validate shape;
// the zero value is not a usable condition.
type Condition struct {
	op       op
	children []*Condition

	// leaf payload, meaningful only for the leaf variants
	productID string
	quantity  int
	amount    decimal.Decimal
}

// And combines child conditions so the result is true only when every child
// is true. At least one child is required.
func And(children ...*Condition) (*Condition, error) {
	if err := checkChildren(children); err != nil {
		return nil, err
	}
	return &Condition{op: opAnd, children: children}, nil
}

// Or combines child conditions so the result is true when any child is true.
// At least one child is required.
func Or(children ...*Condition) (*Condition, error) {
	if err := checkChildren(children); err != nil {
		return nil, err
	}
	return &Condition{op: opOr, children: children}, nil
}

// Not negates its child condition.
func Not(child *Condition) (*Condition, error) {
	if child == nil {
		return nil, &ConfigError{Reason: "child condition cannot be nil"}
	}
	return &Condition{op: opNot, children: []*Condition{child}}, nil
}

// MinQuantity is true when the lines contain at least quantity units of the
// given product.
func MinQuantity(productID string, quantity int) (*Condition, error) {
	if productID == "" {
		return nil, &ConfigError{Reason: "product id cannot be empty"}
	}
	if quantity <= 0 {
		return nil, &ConfigError{Reason: "minimum quantity must be greater than 0"}
	}
	return &Condition{op: opMinQuantity, productID: productID, quantity: quantity}, nil
}

// MinTotal is true when the lines' subtotal reaches the given amount.
func MinTotal(amount decimal.Decimal) (*Condition, error) {
	if amount.IsNegative() {
		return nil, &ConfigError{Reason: "minimum total cannot be negative"}
	}
	return &Condition{op: opMinTotal, amount: amount}, nil
}

// MinItems is true when the lines hold at least count units in total,
// regardless of product.
func MinItems(count int) (*Condition, error) {
	if count <= 0 {
		return nil, &ConfigError{Reason: "minimum item count must be greater than 0"}
	}
	return &Condition{op: opMinItems, quantity: count}, nil
}

func checkChildren(children []*Condition) error {
	if len(children) == 0 {
		return &ConfigError{Reason: "composite condition requires at least one child"}
	}
	for _, c := range children {
		if c == nil {
			return &ConfigError{Reason: "child condition cannot be nil"}
		}
	}
	return nil
}

// Evaluate reports whether the condition holds for the given lines. And
// short-circuits on the first false child, Or on the first true child.
func (c *Condition) Evaluate(lines []Line) (bool, error) {
	if lines == nil {
		return false, ErrNilLines
	}
	return c.eval(lines), nil
}

func (c *Condition) eval(lines []Line) bool {
	switch c.op {
	case opAnd:
		for _, child := range c.children {
			if !child.eval(lines) {
				return false
			}
		}
		return true
	case opOr:
		for _, child := range c.children {
			if child.eval(lines) {
				return true
			}
		}
		return false
	case opNot:
		return !c.children[0].eval(lines)
	case opMinQuantity:
		total := 0
		for _, line := range lines {
			if line.ProductID == c.productID {
				total += line.Quantity
			}
		}
		return total >= c.quantity
	case opMinTotal:
		return Subtotal(lines).GreaterThanOrEqual(c.amount)
	case opMinItems:
		total := 0
		for _, line := range lines {
			total += line.Quantity
		}
		return total >= c.quantity
	default:
		return false
	}
}

// Subtotal returns the sum of unit price times quantity across the lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

// GrammarString renders the tree in a compact prefix grammar, useful for
// debugging and audit logs: ( & a b ), ( | a b ), ( ! a ) and bracketed
// leaf predicates.
func (c *Condition) GrammarString() string {
	switch c.op {
	case opAnd:
		return c.compositeGrammar("&")
	case opOr:
		return c.compositeGrammar("|")
	case opNot:
		return fmt.Sprintf("( ! %s )", c.children[0].GrammarString())
	case opMinQuantity:
		return fmt.Sprintf("[ qty(%s) >= %d ]", c.productID, c.quantity)
	case opMinTotal:
		return fmt.Sprintf("[ total >= %s ]", c.amount)
	case opMinItems:
		return fmt.Sprintf("[ items >= %d ]", c.quantity)
	default:
		return "[ invalid ]"
	}
}

func (c *Condition) compositeGrammar(symbol string) string {
	out := "( " + symbol
	for _, child := range c.children {
		out += " " + child.GrammarString()
	}
	return out + " )"
}
