package notify

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/velora-hq/backend-salon/internal/coupon"
	"github.com/velora-hq/backend-salon/internal/pricing"
)

// TypeBookingCreated is the asynq task type for post-booking notifications.
const TypeBookingCreated = "booking:created"

// BookingCreatedPayload carries everything the worker needs so that it never
// has to read the bookings table.
type BookingCreatedPayload struct {
	BookingID     string              `json:"bookingId"`
	CustomerName  string              `json:"customerName"`
	CustomerEmail string              `json:"customerEmail"`
	ScheduledDate string              `json:"scheduledDate"`
	ScheduledTime string              `json:"scheduledTime"`
	Items         []pricing.LineItem  `json:"items"`
	FreeService   *coupon.FreeService `json:"freeService,omitempty"`
	CouponCode    string              `json:"couponCode,omitempty"`
	Summary       pricing.Summary     `json:"summary"`
}

// NewBookingCreatedTask builds the asynq task for a freshly submitted booking.
func NewBookingCreatedTask(p BookingCreatedPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBookingCreated, b), nil
}
