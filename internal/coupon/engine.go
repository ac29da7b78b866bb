package coupon

import (
	"errors"

	"github.com/velora-hq/backend-salon/internal/pricing"
)

var (
	// ErrNotFound is returned when the entered code matches no catalog entry.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired is returned when the coupon is past its validity date.
	ErrExpired = errors.New("coupon expired")
	// ErrMinOrderNotMet indicates the cart subtotal is below the coupon threshold.
	ErrMinOrderNotMet = errors.New("coupon minimum order value not met")
	// ErrCatalogUnavailable indicates the coupon catalog could not be read.
	ErrCatalogUnavailable = errors.New("coupon catalog unavailable")
	// ErrApplyInFlight is returned when a coupon application is already pending.
	ErrApplyInFlight = errors.New("coupon application already in flight")
)

// FreeService describes a service granted at no charge by a coupon.
type FreeService struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// Rule captures a coupon as stored in the catalog. ValidUntil is a zero-padded
// ISO date, which makes lexical comparison equivalent to date comparison.
type Rule struct {
	ID            string       `json:"id"`
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Percent       int          `json:"percent"`
	MaxDiscount   *int64       `json:"maxDiscount,omitempty"`
	MinOrderValue *int64       `json:"minOrderValue,omitempty"`
	ValidUntil    string       `json:"validUntil"`
	FreeService   *FreeService `json:"freeService,omitempty"`
}

// Validate reports whether the rule can be applied today for the given
// subtotal. ValidUntil is inclusive.
func (r Rule) Validate(today string, subtotal int64) error {
	if r.ValidUntil != "" && r.ValidUntil < today {
		return ErrExpired
	}
	if r.MinOrderValue != nil && subtotal < *r.MinOrderValue {
		return ErrMinOrderNotMet
	}
	return nil
}

// Discount computes the discount amount for the given subtotal, rounding
// half-up to the nearest whole unit and clamping to MaxDiscount when set.
func (r Rule) Discount(subtotal int64) int64 {
	if r.Percent <= 0 || subtotal <= 0 {
		return 0
	}
	discount := (subtotal*int64(r.Percent) + 50) / 100
	if r.MaxDiscount != nil && discount > *r.MaxDiscount {
		discount = *r.MaxDiscount
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// Applied is the outcome of a successful coupon application. FreeItem is set
// only when the rule grants a free service; it belongs to the effective cart
// and is never written back into the persisted cart.
type Applied struct {
	Rule     Rule              `json:"rule"`
	Discount int64             `json:"discount"`
	FreeItem *pricing.LineItem `json:"freeItem,omitempty"`
}

// FreeLineItem materializes the synthetic zero-price line for a granted
// service. The id prefix keeps it distinguishable from real catalog lines.
func FreeLineItem(fs FreeService) pricing.LineItem {
	return pricing.LineItem{
		ID:       "free-" + fs.ID,
		Name:     fs.Name,
		Price:    0,
		Quantity: 1,
		Duration: fs.Duration,
		IsFree:   true,
	}
}
