// Package service contains the business logic layer. Services validate
// booking policy, orchestrate repository calls and translate repository errors
// into the apperr taxonomy the transport understands.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/table-booking/internal/cache"
	"github.com/Shivanand-hulikatti/table-booking/internal/model"
)

// AvailableCachePrefix is the namespace of every availability listing.
const AvailableCachePrefix = "tables:available:"

// BookingStore is the persistence the booking lifecycle needs. Create and
// Reschedule must make their overlap check atomic with the write.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]model.Booking, error)
	Create(ctx context.Context, b *model.Booking) error
	Reschedule(ctx context.Context, id, tableID string, start, end time.Time) (*model.Booking, error)
	Cancel(ctx context.Context, id string, at time.Time) (*model.Booking, error)
}

// TableStore is the persistence for the table inventory.
type TableStore interface {
	GetByID(ctx context.Context, id string) (*model.Table, error)
	List(ctx context.Context) ([]model.Table, error)
	ListAvailable(ctx context.Context, start, end time.Time, guests int) ([]model.Table, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, t *model.Table) error
	CreateMany(ctx context.Context, tables []model.Table) error
	Update(ctx context.Context, t *model.Table) error
	Delete(ctx context.Context, id string) error
}

// UserStore is the persistence for accounts.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// invalidateAvailability drops every cached listing. The mutation that
// triggered it has already committed, so a failure is only logged.
func invalidateAvailability(ctx context.Context, c cache.Cache) {
	if err := c.InvalidatePrefix(ctx, AvailableCachePrefix); err != nil {
		slog.WarnContext(ctx, "availability cache invalidation failed", "err", err)
	}
}

// endSpan marks the span failed when err is set, then ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
