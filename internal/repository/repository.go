// Package repository implements all database queries for the table booking
// system. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrOverlap is returned when an active booking on the same table intersects
// the requested interval.
var ErrOverlap = errors.New("table already booked for an overlapping interval")

// ErrAlreadyCanceled is returned when a write targets a canceled booking.
var ErrAlreadyCanceled = errors.New("booking already canceled")

// ErrDuplicateName is returned when a table name is already taken.
var ErrDuplicateName = errors.New("table name already exists")

// ErrTableInUse is returned when deleting a table that bookings reference.
var ErrTableInUse = errors.New("table is referenced by bookings")

// ErrDuplicateEmail is returned when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicatePhone is returned when the phone number is already registered.
var ErrDuplicatePhone = errors.New("phone number already registered")

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeExclusionViolation  = "23P01"
	codeInvalidText         = "22P02"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pgError returns the server error in err's chain, or nil.
func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// isNoRows treats a malformed id the same as a missing row.
func isNoRows(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == codeInvalidText
}
