package order

import (
	"time"

	"github.com/velora-hq/backend-salon/internal/coupon"
	"github.com/velora-hq/backend-salon/internal/pricing"
)

// Booking status lifecycle. Bookings start pending and either progress to
// completed or terminate cancelled.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Order is a confirmed booking. Line items and the applied coupon are
// denormalized at submission time so later catalog or coupon edits never
// rewrite history.
type Order struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId,omitempty"`
	CustomerName  string              `json:"customerName"`
	CustomerPhone string              `json:"customerPhone"`
	CustomerEmail string              `json:"customerEmail,omitempty"`
	ScheduledDate string              `json:"scheduledDate"`
	ScheduledTime string              `json:"scheduledTime"`
	Notes         string              `json:"notes,omitempty"`
	Items         []pricing.LineItem  `json:"items"`
	CouponCode    string              `json:"couponCode,omitempty"`
	CouponName    string              `json:"couponName,omitempty"`
	FreeService   *coupon.FreeService `json:"freeService,omitempty"`
	Summary       pricing.Summary     `json:"summary"`
	Status        string              `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ValidTransition reports whether a status change is allowed.
func ValidTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}
