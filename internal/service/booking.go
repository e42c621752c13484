package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Shivanand-hulikatti/table-booking/internal/apperr"
	"github.com/Shivanand-hulikatti/table-booking/internal/cache"
	"github.com/Shivanand-hulikatti/table-booking/internal/model"
	"github.com/Shivanand-hulikatti/table-booking/internal/notify"
	"github.com/Shivanand-hulikatti/table-booking/internal/obs"
	"github.com/Shivanand-hulikatti/table-booking/internal/repository"
	"github.com/Shivanand-hulikatti/table-booking/internal/slot"
)

const (
	msgTableNotFound   = "Table was not found."
	msgNotInFuture     = "Booking start must be in the future."
	msgSlotTaken       = "The table is already booked in the selected time slot."
	msgBookingNotFound = "Booking was not found."
	msgNotOwner        = "This booking belongs to another user."
	msgCanceledFrozen  = "Canceled booking cannot be changed."
	msgAlreadyCanceled = "Booking was already canceled."
)

// BookingService drives the booking lifecycle: create, reschedule, cancel.
type BookingService struct {
	bookings       BookingStore
	tables         TableStore
	calc           *slot.Calculator
	cache          cache.Cache
	notifier       notify.Dispatcher
	cancelDeadline time.Duration
	now            func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(
	bookings BookingStore,
	tables TableStore,
	calc *slot.Calculator,
	c cache.Cache,
	n notify.Dispatcher,
	cancelDeadline time.Duration,
) *BookingService {
	return &BookingService{
		bookings:       bookings,
		tables:         tables,
		calc:           calc,
		cache:          c,
		notifier:       n,
		cancelDeadline: cancelDeadline,
		now:            time.Now,
	}
}

// futureSlot builds the UTC interval for (d, t) and rejects one that does not
// start strictly after now.
func (s *BookingService) futureSlot(d slot.Date, t slot.TimeOfDay) (slot.Slot, error) {
	sl := s.calc.Build(d, t)
	if !sl.Start.After(s.now()) {
		return slot.Slot{}, apperr.BusinessRule(msgNotInFuture)
	}
	return sl, nil
}

// Create books tableID for the slot at (d, t) on behalf of user.
func (s *BookingService) Create(ctx context.Context, user *model.User, tableID string, d slot.Date, t slot.TimeOfDay) (_ *model.Booking, err error) {
	ctx, span := obs.Tracer().Start(ctx, "booking.create")
	span.SetAttributes(attribute.String("table.id", tableID), attribute.String("user.id", user.ID))
	defer func() { endSpan(span, err) }()

	// ── 1. Operating hours. ──────────────────────────────────────────────
	if !s.calc.CanBook(d, t) {
		return nil, apperr.BusinessRule(s.calc.WindowMessage())
	}

	// ── 2. Table exists. ─────────────────────────────────────────────────
	if _, err := s.tables.GetByID(ctx, tableID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgTableNotFound)
		}
		return nil, err
	}

	// ── 3. Slot starts in the future. ────────────────────────────────────
	sl, err := s.futureSlot(d, t)
	if err != nil {
		return nil, err
	}

	// ── 4. Overlap check and insert, atomically. ─────────────────────────
	b := &model.Booking{UserID: user.ID, TableID: tableID, StartAt: sl.Start, EndAt: sl.End}
	if err := s.bookings.Create(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return nil, apperr.Conflict(msgSlotTaken)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound(msgTableNotFound)
		}
		return nil, err
	}

	// ── 5. Post-commit side effects. ─────────────────────────────────────
	invalidateAvailability(ctx, s.cache)
	tableName := ""
	if b.Table != nil {
		tableName = b.Table.Name
	}
	s.notifier.SendBookingCreated(ctx, notify.BookingCreated{
		BookingID: b.ID,
		Email:     user.Email,
		StartAt:   b.StartAt,
		TableName: tableName,
	})
	return b, nil
}

// owned loads a booking and checks that userID owns it.
func (s *BookingService) owned(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgBookingNotFound)
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, apperr.Forbidden(msgNotOwner)
	}
	return b, nil
}

// Update reschedules an active booking to (d, t) on the same table.
func (s *BookingService) Update(ctx context.Context, userID, bookingID string, d slot.Date, t slot.TimeOfDay) (_ *model.Booking, err error) {
	ctx, span := obs.Tracer().Start(ctx, "booking.update")
	span.SetAttributes(attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	b, err := s.owned(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsCanceled() {
		return nil, apperr.Conflict(msgCanceledFrozen)
	}

	if !s.calc.CanBook(d, t) {
		return nil, apperr.BusinessRule(s.calc.WindowMessage())
	}
	sl, err := s.futureSlot(d, t)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.Reschedule(ctx, b.ID, b.TableID, sl.Start, sl.End)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return nil, apperr.Conflict(msgSlotTaken)
		case errors.Is(err, repository.ErrAlreadyCanceled):
			return nil, apperr.Conflict(msgCanceledFrozen)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound(msgTableNotFound)
		}
		return nil, err
	}

	invalidateAvailability(ctx, s.cache)
	return updated, nil
}

// Cancel cancels an active booking while the cancellation window is open.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID string) (_ *model.Booking, err error) {
	ctx, span := obs.Tracer().Start(ctx, "booking.cancel")
	span.SetAttributes(attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	b, err := s.owned(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsCanceled() {
		return nil, apperr.Conflict(msgAlreadyCanceled)
	}

	now := s.now()
	if now.After(b.StartAt.Add(-s.cancelDeadline)) {
		return nil, apperr.BusinessRule(cancelWindowMessage(s.cancelDeadline))
	}

	canceled, err := s.bookings.Cancel(ctx, b.ID, now.UTC())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCanceled) {
			return nil, apperr.Conflict(msgAlreadyCanceled)
		}
		return nil, err
	}

	invalidateAvailability(ctx, s.cache)
	return canceled, nil
}

// GetMy returns the user's active bookings that have not ended, earliest first.
func (s *BookingService) GetMy(ctx context.Context, userID string) ([]model.Booking, error) {
	bookings, err := s.bookings.ListActiveForUser(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return bookings, nil
}

func cancelWindowMessage(deadline time.Duration) string {
	var span string
	switch {
	case deadline == time.Hour:
		span = "1 hour"
	case deadline%time.Hour == 0:
		span = fmt.Sprintf("%d hours", int(deadline/time.Hour))
	case deadline == time.Minute:
		span = "1 minute"
	default:
		span = fmt.Sprintf("%d minutes", int(deadline/time.Minute))
	}
	return fmt.Sprintf("Booking cancellation is allowed only %s before start.", span)
}
