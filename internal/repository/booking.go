package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/table-booking/internal/model"
)

const bookingSelect = `
	SELECT b.id, b.user_id, b.table_id, b.start_at, b.end_at, b.canceled_at, b.created_at, b.updated_at,
	       t.id, t.name, t.seats, t.created_at
	FROM bookings b
	JOIN restaurant_tables t ON t.id = b.table_id`

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b model.Booking
		t model.Table
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.TableID, &b.StartAt, &b.EndAt, &b.CanceledAt, &b.CreatedAt, &b.UpdatedAt,
		&t.ID, &t.Name, &t.Seats, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartAt = b.StartAt.UTC()
	b.EndAt = b.EndAt.UTC()
	if b.CanceledAt != nil {
		at := b.CanceledAt.UTC()
		b.CanceledAt = &at
	}
	b.Table = &t
	return &b, nil
}

// GetByID returns a single booking with its table, or ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ListActiveForUser returns the user's non-canceled bookings that have not yet
// ended, earliest first.
func (r *BookingRepository) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx,
		bookingSelect+`
		WHERE b.user_id = $1
		  AND b.canceled_at IS NULL
		  AND b.end_at >= $2
		ORDER BY b.start_at ASC`,
		userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// hasOverlap reports whether the table has an active booking intersecting
// [start, end). excludeID, when non-empty, is left out of the check so a
// booking can be rescheduled over its own interval.
func hasOverlap(ctx context.Context, q querier, tableID string, start, end time.Time, excludeID string) (bool, error) {
	var exclude *string
	if excludeID != "" {
		exclude = &excludeID
	}
	var found bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE table_id = $1
			  AND canceled_at IS NULL
			  AND start_at < $3
			  AND end_at > $2
			  AND ($4::uuid IS NULL OR id <> $4::uuid)
		)`,
		tableID, start, end, exclude,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return found, nil
}

// lockTable takes a row-level exclusive lock on the table so that every
// check-then-write against its bookings is serialised.
func lockTable(ctx context.Context, tx pgx.Tx, tableID string) (*model.Table, error) {
	var t model.Table
	err := tx.QueryRow(ctx,
		`SELECT id, name, seats, created_at
		 FROM restaurant_tables
		 WHERE id = $1
		 FOR UPDATE`,
		tableID,
	).Scan(&t.ID, &t.Name, &t.Seats, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock table row: %w", err)
	}
	return &t, nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Warn("rollback failed", "err", err)
	}
}

// writeErr folds a constraint violation raised at write or commit time into
// the matching sentinel.
func writeErr(op string, err error) error {
	if pgErr := pgError(err); pgErr != nil && pgErr.Code == codeExclusionViolation {
		return ErrOverlap
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create inserts an active booking inside a serialised transaction.
//
// Two concurrent requests for overlapping slots on the same table would both
// pass a plain read-then-insert: each sees no conflict before either commits.
// Locking the table row with SELECT … FOR UPDATE makes the second transaction
// wait until the first commits, so its overlap query sees the committed row.
// The exclusion constraint on bookings backs this up at the database level;
// a violation there is reported as ErrOverlap as well.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	// ── Step 1: Serialise writers on this table. ─────────────────────────
	table, err := lockTable(ctx, tx, b.TableID)
	if err != nil {
		return err
	}

	// ── Step 2: Reject overlapping active bookings. ──────────────────────
	overlap, err := hasOverlap(ctx, tx, b.TableID, b.StartAt, b.EndAt, "")
	if err != nil {
		return err
	}
	if overlap {
		return ErrOverlap
	}

	// ── Step 3: Insert and read back server-assigned timestamps. ─────────
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (id, user_id, table_id, start_at, end_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		b.ID, b.UserID, b.TableID, b.StartAt, b.EndAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return writeErr("insert booking", err)
	}

	// ── Step 4: Commit. Only now can another writer take the lock. ───────
	if err := tx.Commit(ctx); err != nil {
		return writeErr("commit transaction", err)
	}

	b.Table = table
	return nil
}

// Reschedule moves an active booking to [start, end) on its own table, under
// the same table lock as Create. The booking's own interval is excluded from
// the overlap check.
func (r *BookingRepository) Reschedule(ctx context.Context, id, tableID string, start, end time.Time) (*model.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := lockTable(ctx, tx, tableID); err != nil {
		return nil, err
	}

	overlap, err := hasOverlap(ctx, tx, tableID, start, end, id)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrOverlap
	}

	b, err := scanBooking(tx.QueryRow(ctx,
		`WITH updated AS (
			UPDATE bookings
			SET start_at = $2, end_at = $3, updated_at = now()
			WHERE id = $1 AND canceled_at IS NULL
			RETURNING *
		)`+withUpdated,
		id, start, end,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrAlreadyCanceled
		}
		return nil, writeErr("update booking slot", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, writeErr("commit transaction", err)
	}
	return b, nil
}

// Cancel stamps canceled_at on an active booking. It returns
// ErrAlreadyCanceled when the booking was canceled first, including by a
// concurrent request.
func (r *BookingRepository) Cancel(ctx context.Context, id string, at time.Time) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx,
		`WITH updated AS (
			UPDATE bookings
			SET canceled_at = $2, updated_at = now()
			WHERE id = $1 AND canceled_at IS NULL
			RETURNING *
		)`+withUpdated,
		id, at,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrAlreadyCanceled
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	return b, nil
}

const withUpdated = `
	SELECT b.id, b.user_id, b.table_id, b.start_at, b.end_at, b.canceled_at, b.created_at, b.updated_at,
	       t.id, t.name, t.seats, t.created_at
	FROM updated b
	JOIN restaurant_tables t ON t.id = b.table_id`
