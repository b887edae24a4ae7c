package pricing

import "github.com/shopspring/decimal"

// Item is the minimal shape the calculator needs from a priced line.
type Item struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is the derived price breakdown for a set of items. It is always
// recomputed from the item list it describes, never patched incrementally.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

const (
	defaultFreeShippingThreshold = 500
	defaultFlatShippingFee       = 40
	defaultTaxRate               = "0.12"
)

// Calculator computes totals for a list of items. It holds configuration only
// and is safe for concurrent use.
type Calculator struct {
	freeShippingThreshold decimal.Decimal
	flatShippingFee       decimal.Decimal
	taxRate               decimal.Decimal
}

// Option overrides a pricing rule constant.
type Option func(*Calculator)

// WithFreeShippingThreshold sets the subtotal above which shipping is free.
func WithFreeShippingThreshold(threshold decimal.Decimal) Option {
	return func(c *Calculator) {
		c.freeShippingThreshold = threshold
	}
}

// WithFlatShippingFee sets the fee charged below the free-shipping threshold.
func WithFlatShippingFee(fee decimal.Decimal) Option {
	return func(c *Calculator) {
		c.flatShippingFee = fee
	}
}

// WithTaxRate sets the rate applied to the subtotal. Shipping is never taxed.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(c *Calculator) {
		c.taxRate = rate
	}
}

// NewCalculator builds a calculator with the default rules, applying any overrides.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		freeShippingThreshold: decimal.NewFromInt(defaultFreeShippingThreshold),
		flatShippingFee:       decimal.NewFromInt(defaultFlatShippingFee),
		taxRate:               decimal.RequireFromString(defaultTaxRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Totals computes the price breakdown for the given items. Negative prices and
// quantities are treated as zero so a malformed catalog payload can never push
// a total below zero.
func (c *Calculator) Totals(items []Item) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		price := item.Price
		if price.IsNegative() {
			price = decimal.Zero
		}
		qty := item.Quantity
		if qty < 0 {
			qty = 0
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}
	subtotal = subtotal.Round(2)

	shipping := c.flatShippingFee
	if subtotal.IsZero() || subtotal.GreaterThan(c.freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(c.taxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax).Round(2)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}
