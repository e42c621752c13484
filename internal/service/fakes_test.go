package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/table-booking/internal/model"
	"github.com/Shivanand-hulikatti/table-booking/internal/repository"
	"github.com/Shivanand-hulikatti/table-booking/internal/slot"
)

// memStore is an in-memory implementation of every store interface. One mutex
// guards all state, which makes each overlap check and write atomic the way
// the Postgres row lock does.
type memStore struct {
	mu       sync.Mutex
	tables   map[string]model.Table
	bookings map[string]model.Booking
	users    map[string]model.User

	clock func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		tables:   make(map[string]model.Table),
		bookings: make(map[string]model.Booking),
		users:    make(map[string]model.User),
		clock:    time.Now,
	}
}

// ─── tables ─────────────────────────────────────────────────────────────────

type memTables struct{ *memStore }

func (m memTables) GetByID(_ context.Context, id string) (*model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m memTables) sorted() []model.Table {
	out := make([]model.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seats != out[j].Seats {
			return out[i].Seats < out[j].Seats
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m memTables) List(context.Context) ([]model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m memTables) ListAvailable(_ context.Context, start, end time.Time, guests int) ([]model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Table{}
	for _, t := range m.sorted() {
		if t.Seats >= guests && !m.overlapLocked(t.ID, start, end, "") {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m memTables) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables), nil
}

func (m memTables) nameTakenLocked(name, except string) bool {
	for _, t := range m.tables {
		if t.Name == name && t.ID != except {
			return true
		}
	}
	return false
}

func (m memTables) Create(_ context.Context, t *model.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTakenLocked(t.Name, "") {
		return repository.ErrDuplicateName
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = m.clock()
	m.tables[t.ID] = *t
	return nil
}

func (m memTables) CreateMany(ctx context.Context, tables []model.Table) error {
	for i := range tables {
		if err := m.Create(ctx, &tables[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m memTables) Update(_ context.Context, t *model.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tables[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.nameTakenLocked(t.Name, t.ID) {
		return repository.ErrDuplicateName
	}
	t.CreatedAt = cur.CreatedAt
	m.tables[t.ID] = *t
	return nil
}

func (m memTables) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range m.bookings {
		if b.TableID == id {
			return repository.ErrTableInUse
		}
	}
	delete(m.tables, id)
	return nil
}

// ─── bookings ───────────────────────────────────────────────────────────────

type memBookings struct{ *memStore }

func (m *memStore) overlapLocked(tableID string, start, end time.Time, exclude string) bool {
	want := slot.Slot{Start: start, End: end}
	for _, b := range m.bookings {
		if b.TableID != tableID || b.IsCanceled() || b.ID == exclude {
			continue
		}
		if want.Overlaps(slot.Slot{Start: b.StartAt, End: b.EndAt}) {
			return true
		}
	}
	return false
}

func (m *memStore) withTable(b model.Booking) *model.Booking {
	t := m.tables[b.TableID]
	b.Table = &t
	return &b
}

func (m memBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.withTable(b), nil
}

func (m memBookings) ListActiveForUser(_ context.Context, userID string, now time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID && !b.IsCanceled() && !b.EndAt.Before(now) {
			out = append(out, *m.withTable(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (m memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[b.TableID]; !ok {
		return repository.ErrNotFound
	}
	if m.overlapLocked(b.TableID, b.StartAt, b.EndAt, "") {
		return repository.ErrOverlap
	}
	b.ID = uuid.NewString()
	b.CreatedAt = m.clock()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = *b
	b.Table = m.withTable(*b).Table
	return nil
}

func (m memBookings) Reschedule(_ context.Context, id, tableID string, start, end time.Time) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlapLocked(tableID, start, end, id) {
		return nil, repository.ErrOverlap
	}
	b, ok := m.bookings[id]
	if !ok || b.IsCanceled() {
		return nil, repository.ErrAlreadyCanceled
	}
	b.StartAt, b.EndAt, b.UpdatedAt = start, end, m.clock()
	m.bookings[id] = b
	return m.withTable(b), nil
}

func (m memBookings) Cancel(_ context.Context, id string, at time.Time) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.IsCanceled() {
		return nil, repository.ErrAlreadyCanceled
	}
	b.CanceledAt = &at
	m.bookings[id] = b
	return m.withTable(b), nil
}

// ─── users ──────────────────────────────────────────────────────────────────

type memUsers struct{ *memStore }

func (m memUsers) find(match func(model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.ID == id })
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Email == email })
}

func (m memUsers) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.PhoneNumber == phone })
}

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
		if other.PhoneNumber == u.PhoneNumber {
			return repository.ErrDuplicatePhone
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = m.clock()
	m.users[u.ID] = *u
	return nil
}

// failingCache is a Cache whose invalidation always fails.
type failingCache struct{ calls int }

func (f *failingCache) GetJSON(context.Context, string, any) bool          { return false }
func (f *failingCache) SetJSON(context.Context, string, any, time.Duration) {}
func (f *failingCache) InvalidatePrefix(context.Context, string) error {
	f.calls++
	return errFailing
}
