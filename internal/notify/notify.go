// Package notify delivers booking notifications out of band. The server side
// enqueues events without waiting on the broker; the worker side consumes them
// and hands each one to a Notifier.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RKBookingCreated is the routing key for new bookings.
const RKBookingCreated = "booking.created"

// BookingCreated carries what a confirmation message needs.
type BookingCreated struct {
	BookingID string    `json:"booking_id"`
	Email     string    `json:"email"`
	StartAt   time.Time `json:"start_at"`
	TableName string    `json:"table_name"`
}

// Dispatcher is the fire-and-forget capability the booking service depends on.
// Implementations must not block on delivery and never report failure.
type Dispatcher interface {
	SendBookingCreated(ctx context.Context, ev BookingCreated)
}

func decode[T any](b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// Discard drops every event with a WARN. The server falls back to it when the
// broker is unreachable at startup.
type Discard struct{}

func (Discard) SendBookingCreated(ctx context.Context, ev BookingCreated) {
	slog.WarnContext(ctx, "notification dropped: no broker", "booking_id", ev.BookingID)
}

// Recorder is an in-memory Dispatcher that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []BookingCreated
}

func (r *Recorder) SendBookingCreated(_ context.Context, ev BookingCreated) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []BookingCreated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BookingCreated(nil), r.events...)
}
