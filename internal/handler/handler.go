// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/table-booking/internal/apperr"
	"github.com/Shivanand-hulikatti/table-booking/internal/model"
	"github.com/Shivanand-hulikatti/table-booking/internal/slot"
)

// BookingAPI is the booking lifecycle as seen by the transport.
type BookingAPI interface {
	Create(ctx context.Context, user *model.User, tableID string, d slot.Date, t slot.TimeOfDay) (*model.Booking, error)
	Update(ctx context.Context, userID, bookingID string, d slot.Date, t slot.TimeOfDay) (*model.Booking, error)
	Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error)
	GetMy(ctx context.Context, userID string) ([]model.Booking, error)
}

// TableAPI is availability listing and inventory administration.
type TableAPI interface {
	GetAvailable(ctx context.Context, d slot.Date, t slot.TimeOfDay, guests int) (*model.AvailableTables, error)
	List(ctx context.Context) ([]model.Table, error)
	Create(ctx context.Context, req model.TableRequest) (*model.Table, error)
	Update(ctx context.Context, id string, req model.TableRequest) (*model.Table, error)
	Delete(ctx context.Context, id string) error
}

// AuthAPI is account registration and token resolution.
type AuthAPI interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.TokenResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error)
	UserFromToken(ctx context.Context, raw string) (*model.User, error)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err in the standard envelope. Unclassified errors are
// logged with their cause and reported as unexpected_error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		slog.ErrorContext(r.Context(), "unexpected error",
			"err", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Detail:    "Unexpected server error.",
			ErrorCode: string(apperr.KindUnexpected),
		})
		return
	}

	resp := model.ErrorResponse{Detail: e.Message, ErrorCode: string(e.Kind)}
	if len(e.Fields) > 0 {
		resp.Errors = e.Fields
	}
	if e.Kind == apperr.KindAuth {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, apperr.Status(e.Kind), resp)
}

// decodeJSON reads a size-limited body into dst, rejecting unknown fields.
// Every decode failure is reported as a validation_error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, slot.ErrInvalidDate):
		return apperr.Validation(apperr.FieldError{Field: "date", Message: err.Error()})
	case errors.Is(err, slot.ErrInvalidTime):
		return apperr.Validation(apperr.FieldError{Field: "time", Message: err.Error()})
	case errors.As(err, &typeErr):
		return apperr.Validation(apperr.FieldError{Field: typeErr.Field, Message: "must be of type " + typeErr.Type.String()})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperr.Validation(apperr.FieldError{Field: field, Message: "unknown field"})
	}
	return apperr.Validation(apperr.FieldError{Field: "body", Message: "invalid JSON body: " + err.Error()})
}

// pathID reads and validates a UUID path parameter.
func pathID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Validation(apperr.FieldError{Field: name, Message: "must be a UUID"})
	}
	return id.String(), nil
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
