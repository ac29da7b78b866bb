package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/velora-hq/backend-salon/internal/cart"
	"github.com/velora-hq/backend-salon/internal/events"
	"github.com/velora-hq/backend-salon/internal/obs"
	"github.com/velora-hq/backend-salon/internal/order"
)

// ErrEmptyCart is returned when a booking is submitted for a cart without items.
var ErrEmptyCart = errors.New("booking: cart is empty")

// Input is the booking submission payload.
type Input struct {
	CartID        string `json:"cartId" validate:"required"`
	CustomerName  string `json:"customerName" validate:"required,min=2,max=120"`
	CustomerPhone string `json:"customerPhone" validate:"required,min=7,max=20"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot      string `json:"timeSlot" validate:"required"`
	Notes         string `json:"notes" validate:"max=500"`
}

// OrderWriter persists submitted bookings.
type OrderWriter interface {
	Create(ctx context.Context, o order.Order) error
}

// Enqueuer schedules asynchronous post-booking work.
type Enqueuer interface {
	EnqueueBookingCreated(ctx context.Context, o order.Order) error
}

// Service turns a summarized cart into a pending booking.
type Service struct {
	Carts    *cart.Service
	Orders   OrderWriter
	Bus      *events.Bus
	Queue    Enqueuer
	Validate *validator.Validate
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Submit validates the input, snapshots the effective cart into an order with
// its price summary and denormalized coupon fields, persists it as PENDING,
// clears the cart and fans out notifications. Cart clearing and notification
// failures are logged by the caller but never fail a persisted booking.
func (s *Service) Submit(ctx context.Context, userID string, in Input) (order.Order, error) {
	if s == nil || s.Carts == nil || s.Orders == nil {
		return order.Order{}, errors.New("booking service not configured")
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return order.Order{}, fmt.Errorf("booking: invalid input: %w", err)
		}
	}
	view, err := s.Carts.Summarize(ctx, in.CartID)
	if err != nil {
		countSubmit("cart_error")
		return order.Order{}, err
	}
	if len(view.Cart.Items) == 0 {
		countSubmit("empty_cart")
		return order.Order{}, ErrEmptyCart
	}

	now := s.now().UTC()
	o := order.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		ScheduledDate: in.Date,
		ScheduledTime: in.TimeSlot,
		Notes:         in.Notes,
		Items:         view.Items,
		Summary:       view.Summary,
		Status:        order.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if view.Coupon != nil {
		o.CouponCode = view.Coupon.Rule.Code
		o.CouponName = view.Coupon.Rule.Name
		o.FreeService = view.Coupon.Rule.FreeService
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		countSubmit("store_error")
		return order.Order{}, fmt.Errorf("booking: persist order: %w", err)
	}
	countSubmit("ok")

	// booking is already committed; a cart that fails to clear expires on its own
	_ = s.Carts.Clear(ctx, in.CartID)
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicBookingCreated, o.ID, map[string]any{
			"bookingId": o.ID,
			"total":     o.Summary.Total,
			"date":      o.ScheduledDate,
			"timeSlot":  o.ScheduledTime,
		})
	}
	if s.Queue != nil {
		_ = s.Queue.EnqueueBookingCreated(ctx, o)
	}
	return o, nil
}

func countSubmit(result string) {
	if obs.BookingSubmitTotal != nil {
		obs.BookingSubmitTotal.WithLabelValues(result).Inc()
	}
}
