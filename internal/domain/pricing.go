package domain

import "github.com/shopspring/decimal"

// Pricing holds the fee rules applied once when an order is placed.
type Pricing struct {
	BaseDeliveryFee       decimal.Decimal `mapstructure:"base_delivery_fee"`
	FreeDeliveryThreshold decimal.Decimal `mapstructure:"free_delivery_threshold"`
	TaxRate               decimal.Decimal `mapstructure:"tax_rate"`
}

func DefaultPricing() Pricing {
	return Pricing{
		BaseDeliveryFee:       decimal.NewFromInt(40),
		FreeDeliveryThreshold: decimal.NewFromInt(500),
		TaxRate:               decimal.RequireFromString("0.05"),
	}
}

type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Quote prices items. The delivery fee is waived once the subtotal is strictly
// above the free delivery threshold.
func (p Pricing) Quote(items []Item) Quote {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}

	fee := p.BaseDeliveryFee
	if subtotal.GreaterThan(p.FreeDeliveryThreshold) {
		fee = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(2)

	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}
