package events

// Topic constants for domain events emitted by the platform.
const (
	TopicBookingCreated   = "booking.created"
	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingCompleted = "booking.completed"
	TopicBookingCancelled = "booking.cancelled"
	TopicCouponApplied    = "coupon.applied"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicBookingCreated,
		TopicBookingConfirmed,
		TopicBookingCompleted,
		TopicBookingCancelled,
		TopicCouponApplied,
	}
}
