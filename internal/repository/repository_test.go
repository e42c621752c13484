package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/table-booking/internal/database"
	"github.com/Shivanand-hulikatti/table-booking/internal/model"
)

// testPool connects to TEST_DATABASE_URL, applies migrations and empties the
// tables. Tests are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPool(ctx, database.Config{URL: url, MaxConns: 16, MinConns: 1})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE bookings, restaurant_tables, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

type fixture struct {
	users    *UserRepository
	tables   *TableRepository
	bookings *BookingRepository
	user     *model.User
	table    *model.Table
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool := testPool(t)
	f := &fixture{
		users:    NewUserRepository(pool),
		tables:   NewTableRepository(pool),
		bookings: NewBookingRepository(pool),
	}
	ctx := context.Background()
	f.user = &model.User{Email: "alice@example.com", PhoneNumber: "+15550100", FullName: "Alice", HashedPassword: "x", Role: model.RoleUser}
	if err := f.users.Create(ctx, f.user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	f.table = &model.Table{Name: "T2-1", Seats: 2}
	if err := f.tables.Create(ctx, f.table); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return f
}

func (f *fixture) booking(start time.Time) *model.Booking {
	return &model.Booking{UserID: f.user.ID, TableID: f.table.ID, StartAt: start, EndAt: start.Add(2 * time.Hour)}
}

var base = time.Date(2030, 3, 1, 14, 0, 0, 0, time.UTC)

func TestConcurrentCreateSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 12
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Staggered starts so every request overlaps every other.
			errs[i] = f.bookings.Create(ctx, f.booking(base.Add(time.Duration(i)*time.Minute)))
		}(i)
	}
	wg.Wait()

	var ok, overlap int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrOverlap):
			overlap++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || overlap != n-1 {
		t.Errorf("ok=%d overlap=%d, want 1 and %d", ok, overlap, n-1)
	}
}

func TestBookingLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.booking(base)
	if err := f.bookings.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Table == nil || b.Table.Name != "T2-1" || b.CreatedAt.IsZero() {
		t.Errorf("created = %+v", b)
	}

	// Adjacent slots do not conflict.
	if err := f.bookings.Create(ctx, f.booking(base.Add(2*time.Hour))); err != nil {
		t.Errorf("adjacent create: %v", err)
	}

	// Rescheduling onto itself is not an overlap; onto the neighbour is.
	if _, err := f.bookings.Reschedule(ctx, b.ID, f.table.ID, base.Add(-time.Hour), base.Add(time.Hour)); err != nil {
		t.Errorf("reschedule over own slot: %v", err)
	}
	if _, err := f.bookings.Reschedule(ctx, b.ID, f.table.ID, base.Add(time.Hour), base.Add(3*time.Hour)); !errors.Is(err, ErrOverlap) {
		t.Errorf("reschedule onto neighbour err = %v", err)
	}

	canceled, err := f.bookings.Cancel(ctx, b.ID, time.Now())
	if err != nil || canceled.CanceledAt == nil {
		t.Fatalf("Cancel = %+v, %v", canceled, err)
	}
	if _, err := f.bookings.Cancel(ctx, b.ID, time.Now()); !errors.Is(err, ErrAlreadyCanceled) {
		t.Errorf("second cancel err = %v", err)
	}
	if _, err := f.bookings.Reschedule(ctx, b.ID, f.table.ID, base.Add(5*time.Hour), base.Add(7*time.Hour)); !errors.Is(err, ErrAlreadyCanceled) {
		t.Errorf("reschedule canceled err = %v", err)
	}

	// The canceled interval is free again.
	if err := f.bookings.Create(ctx, f.booking(base.Add(-time.Hour))); err != nil {
		t.Errorf("create over canceled slot: %v", err)
	}

	active, err := f.bookings.ListActiveForUser(ctx, f.user.ID, base.Add(-2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 || !active[0].StartAt.Before(active[1].StartAt) {
		t.Errorf("active = %+v", active)
	}
}

func TestLookupsReportNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.bookings.GetByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing booking err = %v", err)
	}
	if _, err := f.bookings.GetByID(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("malformed id err = %v", err)
	}
	if err := f.bookings.Create(ctx, &model.Booking{UserID: f.user.ID, TableID: uuid.NewString(), StartAt: base, EndAt: base.Add(time.Hour)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("booking on missing table err = %v", err)
	}
	if _, err := f.users.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestTableConstraints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.tables.Create(ctx, &model.Table{Name: "T2-1", Seats: 4}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate name err = %v", err)
	}
	if err := f.bookings.Create(ctx, f.booking(base)); err != nil {
		t.Fatal(err)
	}
	if err := f.tables.Delete(ctx, f.table.ID); !errors.Is(err, ErrTableInUse) {
		t.Errorf("delete referenced table err = %v", err)
	}
	if err := f.tables.Delete(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing table err = %v", err)
	}

	big := &model.Table{Name: "T6-1", Seats: 6}
	if err := f.tables.Create(ctx, big); err != nil {
		t.Fatal(err)
	}
	free, err := f.tables.ListAvailable(ctx, base.Add(time.Hour), base.Add(3*time.Hour), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(free) != 1 || free[0].ID != big.ID {
		t.Errorf("available = %+v", free)
	}
}

func TestUserDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dupEmail := &model.User{Email: f.user.Email, PhoneNumber: "+15550199", FullName: "Eve", HashedPassword: "x", Role: model.RoleUser}
	if err := f.users.Create(ctx, dupEmail); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate email err = %v", err)
	}
	dupPhone := &model.User{Email: "eve@example.com", PhoneNumber: f.user.PhoneNumber, FullName: "Eve", HashedPassword: "x", Role: model.RoleUser}
	if err := f.users.Create(ctx, dupPhone); !errors.Is(err, ErrDuplicatePhone) {
		t.Errorf("duplicate phone err = %v", err)
	}
}
