package pricing

// Money represents a monetary value in whole currency units. The storefront
// currency carries no subunits, so totals stay integral end to end.
type Money = int64

const (
	// ServiceChargeFee is the flat handling fee added to small orders.
	ServiceChargeFee Money = 150
	// ServiceChargeWaiverAt is the discounted subtotal at which the fee is waived.
	ServiceChargeWaiverAt Money = 999
)

// SubItem is a service bundled inside a package line.
type SubItem struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// LineItem is a normalized cart entry. Loose upstream shapes are converted
// exactly once (see NormalizeItem); pricing arithmetic never re-parses fields.
type LineItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	Price      Money     `json:"price"`
	OfferPrice *Money    `json:"offerPrice,omitempty"`
	Quantity   int       `json:"quantity"`
	Duration   int       `json:"duration"`
	Services   []SubItem `json:"services,omitempty"`
	Items      []SubItem `json:"items,omitempty"`
	IsFree     bool      `json:"isFree,omitempty"`
}

// UnitPrice returns the effective per-unit price, preferring the offer price.
func (it LineItem) UnitPrice() Money {
	if it.OfferPrice != nil {
		return *it.OfferPrice
	}
	return it.Price
}

// Qty returns the line quantity, defaulting to 1 when unset.
func (it LineItem) Qty() int {
	if it.Quantity < 1 {
		return 1
	}
	return it.Quantity
}

// Summary aggregates the computed components of a priced order.
type Summary struct {
	Subtotal           Money `json:"subtotal"`
	Discount           Money `json:"discount"`
	DiscountedSubtotal Money `json:"discountedSubtotal"`
	ServiceCharge      Money `json:"serviceCharge"`
	Total              Money `json:"total"`
	TotalDuration      int   `json:"totalDuration"`
}

// ComputeSubtotal sums effective unit price times quantity over non-free
// lines. Free lines are excluded explicitly rather than trusting their price
// to be zero, so a stray price on a granted item can never leak into totals.
func ComputeSubtotal(items []LineItem) Money {
	var subtotal Money
	for _, it := range items {
		if it.IsFree {
			continue
		}
		subtotal += it.UnitPrice() * Money(it.Qty())
	}
	return subtotal
}

// ComputeServiceCharge returns the flat fee, waived once the discounted
// subtotal reaches the threshold.
func ComputeServiceCharge(discountedSubtotal Money) Money {
	if discountedSubtotal >= ServiceChargeWaiverAt {
		return 0
	}
	return ServiceChargeFee
}

// Compute derives the full priced summary for the effective cart. The
// discount is clamped to the subtotal so the discounted subtotal never goes
// negative. Duration counts every line, free items included.
func Compute(items []LineItem, discount Money) Summary {
	subtotal := ComputeSubtotal(items)
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	discounted := subtotal - discount
	charge := ComputeServiceCharge(discounted)

	var duration int
	for _, it := range items {
		duration += ResolveDuration(it) * it.Qty()
	}

	return Summary{
		Subtotal:           subtotal,
		Discount:           discount,
		DiscountedSubtotal: discounted,
		ServiceCharge:      charge,
		Total:              discounted + charge,
		TotalDuration:      duration,
	}
}

// ResolveDuration returns the minutes a line contributes per unit. Package
// lines aggregate their bundled services; plain lines use their own duration.
func ResolveDuration(it LineItem) int {
	if len(it.Services) > 0 {
		return sumSubItems(it.Services)
	}
	if len(it.Items) > 0 {
		return sumSubItems(it.Items)
	}
	if it.Duration > 0 {
		return it.Duration
	}
	return 0
}

func sumSubItems(subs []SubItem) int {
	var total int
	for _, sub := range subs {
		if sub.Duration > 0 {
			total += sub.Duration
		}
	}
	return total
}
