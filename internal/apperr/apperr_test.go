package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfAndStatus(t *testing.T) {
	tests := []struct {
		err    error
		kind   Kind
		status int
	}{
		{NotFound("x"), KindNotFound, http.StatusNotFound},
		{Forbidden("x"), KindForbidden, http.StatusForbidden},
		{Conflict("x"), KindConflict, http.StatusConflict},
		{BusinessRule("x"), KindBusinessRule, http.StatusBadRequest},
		{Auth("x"), KindAuth, http.StatusUnauthorized},
		{Validation(FieldError{Field: "date", Message: "bad"}), KindValidation, http.StatusUnprocessableEntity},
		{fmt.Errorf("create booking: %w", Conflict("x")), KindConflict, http.StatusConflict},
		{errors.New("boom"), KindUnexpected, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.kind {
				t.Errorf("KindOf = %q, want %q", got, tc.kind)
			}
			if got := Status(KindOf(tc.err)); got != tc.status {
				t.Errorf("Status = %d, want %d", got, tc.status)
			}
		})
	}
}

func TestValidationCarriesFields(t *testing.T) {
	e, ok := As(Validation(FieldError{Field: "guests", Message: "must be an integer from 1 to 20"}))
	if !ok || e.Message != "Validation error." || len(e.Fields) != 1 || e.Fields[0].Field != "guests" {
		t.Errorf("validation = %+v", e)
	}
}
