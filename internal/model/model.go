// Package model defines the core domain types for the table booking system.
package model

import (
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/table-booking/internal/slot"
)

// Roles a user may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can hold bookings.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number"`
	FullName       string    `json:"full_name"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may manage the table inventory.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Table is a bookable restaurant table.
type Table struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Seats     int       `json:"seats"`
	CreatedAt time.Time `json:"-"`
}

// Booking reserves one table for the half-open interval [StartAt, EndAt).
// A nil CanceledAt means the booking is active.
type Booking struct {
	ID         string     `json:"id"`
	UserID     string     `json:"-"`
	TableID    string     `json:"-"`
	StartAt    time.Time  `json:"start_at"`
	EndAt      time.Time  `json:"end_at"`
	CanceledAt *time.Time `json:"canceled_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"-"`

	// Table is attached for response composition.
	Table *Table `json:"table,omitempty"`
}

// IsCanceled reports whether the booking has been canceled.
func (b *Booking) IsCanceled() bool {
	return b.CanceledAt != nil
}

// ─── Requests ────────────────────────────────────────────────────────────────

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"min=8,max=128"`
	PhoneNumber string `json:"phone_number" validate:"min=5,max=32"`
	FullName    string `json:"full_name" validate:"min=2,max=255"`
}

// Normalize trims surrounding whitespace from every field except the password.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.FullName = strings.TrimSpace(r.FullName)
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8,max=128"`
}

// Normalize trims the email.
func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// TableRequest is the payload for creating or updating a table.
type TableRequest struct {
	Name  string `json:"name" validate:"required,max=64"`
	Seats int    `json:"seats" validate:"min=1,max=20"`
}

// Normalize trims the table name.
func (r *TableRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// CreateBookingRequest is the payload for POST /bookings. The table id is
// accepted as either tableId or table_id.
type CreateBookingRequest struct {
	TableID    string          `json:"tableId" validate:"required,uuid"`
	TableIDAlt string          `json:"table_id" validate:"-"`
	Date       *slot.Date      `json:"date" validate:"required"`
	Time       *slot.TimeOfDay `json:"time" validate:"required"`
}

// Normalize folds the snake_case table id into TableID.
func (r *CreateBookingRequest) Normalize() {
	r.TableID = strings.TrimSpace(r.TableID)
	if r.TableID == "" {
		r.TableID = strings.TrimSpace(r.TableIDAlt)
	}
}

// UpdateBookingRequest is the payload for PATCH /bookings/{id}.
type UpdateBookingRequest struct {
	Date *slot.Date      `json:"date" validate:"required"`
	Time *slot.TimeOfDay `json:"time" validate:"required"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// BookingsList wraps a list of bookings.
type BookingsList struct {
	Items []Booking `json:"items"`
}

// TablesList wraps a list of tables.
type TablesList struct {
	Items []Table `json:"items"`
}

// AvailableTables is the availability listing for one slot, echoing the query.
type AvailableTables struct {
	Date      slot.Date      `json:"date"`
	Time      slot.TimeOfDay `json:"time"`
	Guests    int            `json:"guests"`
	SlotHours int            `json:"slot_hours"`
	Tables    []Table        `json:"tables"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code"`
	Errors    any    `json:"errors,omitempty"`
}
