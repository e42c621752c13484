package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/table-booking/internal/model"
)

// TableRepository handles persistence for restaurant tables.
type TableRepository struct {
	db *pgxpool.Pool
}

// NewTableRepository constructs a TableRepository.
func NewTableRepository(db *pgxpool.Pool) *TableRepository {
	return &TableRepository{db: db}
}

func scanTable(row pgx.Row) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.Name, &t.Seats, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTables(rows pgx.Rows) ([]model.Table, error) {
	defer rows.Close()
	tables := []model.Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

// tableErr translates constraint violations on restaurant_tables.
func tableErr(op string, err error) error {
	if isNoRows(err) {
		return ErrNotFound
	}
	if pgErr := pgError(err); pgErr != nil {
		switch pgErr.Code {
		case codeUniqueViolation:
			return ErrDuplicateName
		case codeForeignKeyViolation:
			return ErrTableInUse
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// GetByID returns a single table, or ErrNotFound.
func (r *TableRepository) GetByID(ctx context.Context, id string) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRow(ctx,
		`SELECT id, name, seats, created_at FROM restaurant_tables WHERE id = $1`, id))
	if err != nil {
		return nil, tableErr("get table", err)
	}
	return t, nil
}

// List returns every table, smallest first.
func (r *TableRepository) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, seats, created_at FROM restaurant_tables ORDER BY seats ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return collectTables(rows)
}

// ListAvailable returns tables seating at least guests with no active booking
// intersecting [start, end), ordered by seats then id.
func (r *TableRepository) ListAvailable(ctx context.Context, start, end time.Time, guests int) ([]model.Table, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.name, t.seats, t.created_at
		 FROM restaurant_tables t
		 WHERE t.seats >= $1
		   AND NOT EXISTS (
		       SELECT 1 FROM bookings b
		       WHERE b.table_id = t.id
		         AND b.canceled_at IS NULL
		         AND b.start_at < $3
		         AND b.end_at > $2
		   )
		 ORDER BY t.seats ASC, t.id ASC`,
		guests, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list available tables: %w", err)
	}
	return collectTables(rows)
}

// Count returns the total number of tables.
func (r *TableRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM restaurant_tables`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tables: %w", err)
	}
	return n, nil
}

// Create inserts a table. A taken name yields ErrDuplicateName.
func (r *TableRepository) Create(ctx context.Context, t *model.Table) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO restaurant_tables (id, name, seats)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		t.ID, t.Name, t.Seats,
	).Scan(&t.CreatedAt)
	if err != nil {
		return tableErr("insert table", err)
	}
	return nil
}

// CreateMany inserts all tables in one transaction.
func (r *TableRepository) CreateMany(ctx context.Context, tables []model.Table) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	batch := &pgx.Batch{}
	for i := range tables {
		if tables[i].ID == "" {
			tables[i].ID = uuid.NewString()
		}
		batch.Queue(`INSERT INTO restaurant_tables (id, name, seats) VALUES ($1, $2, $3)`,
			tables[i].ID, tables[i].Name, tables[i].Seats)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return tableErr("insert tables", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Update renames or resizes a table.
func (r *TableRepository) Update(ctx context.Context, t *model.Table) error {
	err := r.db.QueryRow(ctx,
		`UPDATE restaurant_tables SET name = $2, seats = $3
		 WHERE id = $1
		 RETURNING created_at`,
		t.ID, t.Name, t.Seats,
	).Scan(&t.CreatedAt)
	if err != nil {
		return tableErr("update table", err)
	}
	return nil
}

// Delete removes a table. It returns ErrTableInUse while any booking,
// canceled or not, still references it.
func (r *TableRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM restaurant_tables WHERE id = $1`, id)
	if err != nil {
		return tableErr("delete table", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
