package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/table-booking/internal/model"
)

const userColumns = `id, email, phone_number, full_name, hashed_password, role, created_at`

// UserRepository handles persistence for user accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber, &u.FullName, &u.HashedPassword, &u.Role, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// GetByID returns a user, or ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by exact email, or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByPhone returns a user by phone number, or ErrNotFound.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone))
}

// Create inserts a user. A taken email or phone number yields
// ErrDuplicateEmail or ErrDuplicatePhone.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id, email, phone_number, full_name, hashed_password, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		u.ID, u.Email, u.PhoneNumber, u.FullName, u.HashedPassword, u.Role,
	).Scan(&u.CreatedAt)
	if err != nil {
		if pgErr := pgError(err); pgErr != nil && pgErr.Code == codeUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "phone") {
				return ErrDuplicatePhone
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
