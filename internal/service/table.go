package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Shivanand-hulikatti/table-booking/internal/apperr"
	"github.com/Shivanand-hulikatti/table-booking/internal/cache"
	"github.com/Shivanand-hulikatti/table-booking/internal/model"
	"github.com/Shivanand-hulikatti/table-booking/internal/obs"
	"github.com/Shivanand-hulikatti/table-booking/internal/repository"
	"github.com/Shivanand-hulikatti/table-booking/internal/slot"
)

const (
	msgDuplicateTable = "Table with this name already exists."
	msgTableInUse     = "Table cannot be deleted while bookings exist."
)

// TableService lists availability and administers the table inventory.
type TableService struct {
	tables   TableStore
	calc     *slot.Calculator
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewTableService constructs a TableService.
func NewTableService(tables TableStore, calc *slot.Calculator, c cache.Cache, cacheTTL time.Duration) *TableService {
	return &TableService{tables: tables, calc: calc, cache: c, cacheTTL: cacheTTL}
}

// AvailableCacheKey is the cache key for one (date, minute, guests) listing.
func AvailableCacheKey(d slot.Date, t slot.TimeOfDay, guests int) string {
	return fmt.Sprintf("%s%s:%s:g%d", AvailableCachePrefix, d, t.HourMinute(), guests)
}

// GetAvailable lists tables seating at least guests that are free for the
// whole slot starting at (d, t). Listings are cached; a cached listing can be
// stale for up to the TTL when no invalidation reached it.
func (s *TableService) GetAvailable(ctx context.Context, d slot.Date, t slot.TimeOfDay, guests int) (_ *model.AvailableTables, err error) {
	ctx, span := obs.Tracer().Start(ctx, "tables.available")
	span.SetAttributes(attribute.String("slot.date", d.String()), attribute.Int("guests", guests))
	defer func() { endSpan(span, err) }()

	if !s.calc.CanBook(d, t) {
		return nil, apperr.BusinessRule(s.calc.WindowMessage())
	}

	resp := &model.AvailableTables{Date: d, Time: t, Guests: guests, SlotHours: s.calc.SlotHours()}

	key := AvailableCacheKey(d, t, guests)
	var cached []model.Table
	if s.cache.GetJSON(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		resp.Tables = cached
		return resp, nil
	}

	sl := s.calc.Build(d, t)
	tables, err := s.tables.ListAvailable(ctx, sl.Start, sl.End, guests)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, tables, s.cacheTTL)
	resp.Tables = tables
	return resp, nil
}

// List returns the whole inventory, smallest tables first.
func (s *TableService) List(ctx context.Context) ([]model.Table, error) {
	return s.tables.List(ctx)
}

// Create adds a table to the inventory.
func (s *TableService) Create(ctx context.Context, req model.TableRequest) (*model.Table, error) {
	t := &model.Table{Name: strings.TrimSpace(req.Name), Seats: req.Seats}
	if err := s.tables.Create(ctx, t); err != nil {
		return nil, tableError(err)
	}
	invalidateAvailability(ctx, s.cache)
	return t, nil
}

// Update renames or resizes a table.
func (s *TableService) Update(ctx context.Context, id string, req model.TableRequest) (*model.Table, error) {
	t := &model.Table{ID: id, Name: strings.TrimSpace(req.Name), Seats: req.Seats}
	if err := s.tables.Update(ctx, t); err != nil {
		return nil, tableError(err)
	}
	invalidateAvailability(ctx, s.cache)
	return t, nil
}

// Delete removes a table that no booking references.
func (s *TableService) Delete(ctx context.Context, id string) error {
	if err := s.tables.Delete(ctx, id); err != nil {
		return tableError(err)
	}
	invalidateAvailability(ctx, s.cache)
	return nil
}

// Bootstrap seeds the default inventory into an empty database. Each entry of
// defaults is a (seats, count) pair; tables are named T{seats}-{n}.
func (s *TableService) Bootstrap(ctx context.Context, defaults [][2]int) error {
	n, err := s.tables.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	seed := DefaultTables(defaults)
	if err := s.tables.CreateMany(ctx, seed); err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}
	slog.InfoContext(ctx, "seeded default tables", "count", len(seed))
	return nil
}

// DefaultTables expands (seats, count) pairs into named tables.
func DefaultTables(defaults [][2]int) []model.Table {
	var tables []model.Table
	for _, d := range defaults {
		seats, count := d[0], d[1]
		for i := 1; i <= count; i++ {
			tables = append(tables, model.Table{Name: fmt.Sprintf("T%d-%d", seats, i), Seats: seats})
		}
	}
	return tables
}

func tableError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgTableNotFound)
	case errors.Is(err, repository.ErrDuplicateName):
		return apperr.Conflict(msgDuplicateTable)
	case errors.Is(err, repository.ErrTableInUse):
		return apperr.Conflict(msgTableInUse)
	}
	return err
}
