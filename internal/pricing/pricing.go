// Package pricing computes order totals from priced lines.
package pricing

import "github.com/shopspring/decimal"

// CurrencyPlaces is the number of minor-unit digits money is rounded to.
const CurrencyPlaces = 2

var (
	DefaultShippingCost = decimal.RequireFromString("10.00")
	DefaultTaxRate      = decimal.RequireFromString("0.09")
)

// Line is one priced quantity.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns Quantity * UnitPrice.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are the frozen monetary figures of an order.
type Totals struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
}

// Policy holds the shipping and tax settings applied to every order.
type Policy struct {
	ShippingCost decimal.Decimal
	TaxRate      decimal.Decimal
}

// DefaultPolicy returns a flat 10.00 shipping charge and 9% tax.
func DefaultPolicy() Policy {
	return Policy{ShippingCost: DefaultShippingCost, TaxRate: DefaultTaxRate}
}

// Compute prices lines under p. Tax is rounded half-up to the minor unit
// before it is added, so Total always equals the sum of the other three.
func (p Policy) Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	tax := subtotal.Mul(p.TaxRate).Round(CurrencyPlaces)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: p.ShippingCost,
		TaxAmount:    tax,
		Total:        subtotal.Add(p.ShippingCost).Add(tax),
	}
}
