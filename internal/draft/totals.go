package draft

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals holds the display totals of a draft, each with exactly two
// fractional digits.
type Totals struct {
	Net   string `json:"net"`
	VAT   string `json:"vat"`
	Gross string `json:"gross"`
}

// NetAmount is quantity * net price.
func (it LineItem) NetAmount() decimal.Decimal {
	return it.Quantity.Mul(it.NetPrice)
}

// VATAmount is the net amount taxed at the row's percentage rate.
func (it LineItem) VATAmount() decimal.Decimal {
	return it.NetAmount().Mul(it.VATRate).Div(hundred)
}

// counted reports whether a row contributes to totals. Rows that are still
// being edited (no name, zero quantity or zero price) are skipped.
func (it LineItem) counted() bool {
	return it.Name != "" && !it.Quantity.IsZero() && !it.NetPrice.IsZero()
}

// Amounts sums the unrounded net and VAT amounts of the counted rows.
func Amounts(items []LineItem) (net, vat decimal.Decimal) {
	net, vat = decimal.Zero, decimal.Zero
	for _, it := range items {
		if !it.counted() {
			continue
		}
		net = net.Add(it.NetAmount())
		vat = vat.Add(it.VATAmount())
	}
	return net, vat
}

// CalculateTotals derives the display totals from the given rows. It keeps no
// state; rounding happens only on the final sums.
func CalculateTotals(items []LineItem) Totals {
	net, vat := Amounts(items)
	return Totals{
		Net:   net.StringFixed(2),
		VAT:   vat.StringFixed(2),
		Gross: net.Add(vat).StringFixed(2),
	}
}
