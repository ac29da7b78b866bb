package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/velora-hq/backend-salon/internal/order"
)

// Queue enqueues notification tasks onto the shared asynq backend. It
// satisfies the booking service's Enqueuer dependency.
type Queue struct {
	Client *asynq.Client
}

// EnqueueBookingCreated schedules the confirmation email for a new booking.
func (q *Queue) EnqueueBookingCreated(ctx context.Context, o order.Order) error {
	if q == nil || q.Client == nil {
		return nil
	}
	task, err := NewBookingCreatedTask(BookingCreatedPayload{
		BookingID:     o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		ScheduledDate: o.ScheduledDate,
		ScheduledTime: o.ScheduledTime,
		Items:         o.Items,
		FreeService:   o.FreeService,
		CouponCode:    o.CouponCode,
		Summary:       o.Summary,
	})
	if err != nil {
		return fmt.Errorf("notify: build booking task: %w", err)
	}
	_, err = q.Client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.TaskID("booking-created:"+o.ID),
	)
	if err != nil {
		return fmt.Errorf("notify: enqueue booking task: %w", err)
	}
	return nil
}
