package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/velora-hq/backend-salon/internal/common"
	"github.com/velora-hq/backend-salon/internal/obs"
)

// EmailHandler renders and sends booking confirmation emails from queued tasks.
type EmailHandler struct {
	Sender common.EmailSender
	From   string
	Log    zerolog.Logger
}

// HandleBookingCreated processes a TypeBookingCreated task.
func (h *EmailHandler) HandleBookingCreated(ctx context.Context, t *asynq.Task) error {
	var p BookingCreatedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// A payload that cannot be decoded will never succeed on retry.
		return fmt.Errorf("notify: decode booking payload: %w: %w", asynq.SkipRetry, err)
	}
	if p.CustomerEmail == "" {
		h.Log.Info().Str("booking_id", p.BookingID).Msg("booking has no email, skipping confirmation")
		countEmail("skipped")
		return nil
	}
	if h.Sender == nil {
		countEmail("skipped")
		return nil
	}
	subject := fmt.Sprintf("Your booking %s is confirmed for %s %s", shortID(p.BookingID), p.ScheduledDate, p.ScheduledTime)
	if err := h.Sender.Send(p.CustomerEmail, subject, renderBookingEmail(p)); err != nil {
		countEmail("error")
		h.Log.Error().Err(err).Str("booking_id", p.BookingID).Msg("send booking confirmation")
		return fmt.Errorf("notify: send booking confirmation: %w", err)
	}
	countEmail("sent")
	h.Log.Info().Str("booking_id", p.BookingID).Msg("booking confirmation sent")
	return nil
}

func renderBookingEmail(p BookingCreatedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Hi %s,</h2>", html.EscapeString(p.CustomerName))
	fmt.Fprintf(&b, "<p>Your booking is scheduled for <strong>%s</strong> at <strong>%s</strong>.</p>",
		html.EscapeString(p.ScheduledDate), html.EscapeString(p.ScheduledTime))
	b.WriteString("<ul>")
	for _, it := range p.Items {
		fmt.Fprintf(&b, "<li>%s x%d</li>", html.EscapeString(it.Name), it.Quantity)
	}
	b.WriteString("</ul>")
	if p.FreeService != nil {
		fmt.Fprintf(&b, "<p>Includes a complimentary <strong>%s</strong>.</p>", html.EscapeString(p.FreeService.Name))
	}
	if p.Summary.Discount > 0 && p.CouponCode != "" {
		fmt.Fprintf(&b, "<p>Coupon %s saved you %d.</p>", html.EscapeString(p.CouponCode), p.Summary.Discount)
	}
	fmt.Fprintf(&b, "<p>Total due: <strong>%d</strong> (about %d minutes).</p>", p.Summary.Total, p.Summary.TotalDuration)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func countEmail(result string) {
	if obs.NotifyEmailTotal != nil {
		obs.NotifyEmailTotal.WithLabelValues(result).Inc()
	}
}
