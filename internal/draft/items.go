package draft

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Editable line item fields, as accepted by ItemCollection.Update.
const (
	FieldName     = "name"
	FieldQuantity = "quantity"
	FieldUnit     = "unit"
	FieldNetPrice = "net_price"
	FieldVATRate  = "vat_rate"
)

// DefaultUnit is the unit given to freshly added rows.
const DefaultUnit = "szt."

var (
	ErrUnknownField = errors.New("unknown item field")
	ErrInvalidValue = errors.New("invalid item value")
)

// LineItem is a single invoice row. It has no identity beyond its position.
type LineItem struct {
	Name     string          `json:"name" yaml:"name" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity" validate:"gt=0"`
	Unit     string          `json:"unit" yaml:"unit" validate:"required"`
	NetPrice decimal.Decimal `json:"net_price" yaml:"net_price" validate:"gt=0"`
	VATRate  decimal.Decimal `json:"vat_rate" yaml:"vat_rate" validate:"gte=0,lte=23"`
}

// NewLineItem returns a blank row with the default quantity, unit and VAT rate.
func NewLineItem() LineItem {
	return LineItem{
		Name:     "",
		Quantity: decimal.NewFromInt(1),
		Unit:     DefaultUnit,
		NetPrice: decimal.Zero,
		VATRate:  decimal.NewFromInt(23),
	}
}

// HasName reports whether the row survives the pre-submission filter.
func (it LineItem) HasName() bool {
	return it.Name != ""
}

// ItemCollection is the single owned, ordered list of rows of a draft.
// Rendered rows and the submitted payload are both derived from it.
type ItemCollection struct {
	items []LineItem
}

// NewItemCollection copies the given rows into a new collection.
func NewItemCollection(items ...LineItem) *ItemCollection {
	c := &ItemCollection{items: make([]LineItem, 0, len(items))}
	c.items = append(c.items, items...)
	return c
}

// Add appends a blank default row.
func (c *ItemCollection) Add() {
	c.items = append(c.items, NewLineItem())
}

// Remove deletes the row at index. Out-of-range indexes are ignored and the
// collection may become empty.
func (c *ItemCollection) Remove(index int) {
	if index < 0 || index >= len(c.items) {
		return
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
}

// Update replaces one field of the row at index. An out-of-range index is a no-op.
// Text fields take a string; numeric fields take a decimal, a number or a
// decimal string.
func (c *ItemCollection) Update(index int, field string, value any) error {
	if index < 0 || index >= len(c.items) {
		return nil
	}

	item := c.items[index]
	switch field {
	case FieldName, FieldUnit:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects text, got %T", ErrInvalidValue, field, value)
		}
		if field == FieldName {
			item.Name = s
		} else {
			item.Unit = s
		}
	case FieldQuantity, FieldNetPrice, FieldVATRate:
		d, err := toDecimal(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		switch field {
		case FieldQuantity:
			item.Quantity = d
		case FieldNetPrice:
			item.NetPrice = d
		default:
			item.VATRate = d
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	c.items[index] = item
	return nil
}

// Len returns the number of rows, blank ones included.
func (c *ItemCollection) Len() int {
	return len(c.items)
}

// Items returns a copy of every row in display order.
func (c *ItemCollection) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Submittable returns the rows that carry a name. Blank placeholder rows are
// dropped here, before validation and before the payload is built.
func (c *ItemCollection) Submittable() []LineItem {
	return FilterNamed(c.items)
}

// SubmittablePositions returns, for each row of Submittable, its index in the
// collection.
func (c *ItemCollection) SubmittablePositions() []int {
	out := make([]int, 0, len(c.items))
	for i, it := range c.items {
		if it.HasName() {
			out = append(out, i)
		}
	}
	return out
}

// FilterNamed keeps the rows whose name is non-empty, preserving order.
func FilterNamed(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.HasName() {
			out = append(out, it)
		}
	}
	return out
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", value)
	}
}
