package handler

import (
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/table-booking/internal/apperr"
	"github.com/Shivanand-hulikatti/table-booking/internal/model"
	"github.com/Shivanand-hulikatti/table-booking/internal/slot"
)

const maxGuests = 20

// TableHandler groups availability and admin inventory endpoints.
type TableHandler struct {
	svc TableAPI
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(svc TableAPI) *TableHandler {
	return &TableHandler{svc: svc}
}

// Available handles GET /tables/available?date=&time=&guests=
func (h *TableHandler) Available(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var fields []apperr.FieldError

	d, err := slot.ParseDate(q.Get("date"))
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "date", Message: err.Error()})
	}
	t, err := slot.ParseTimeOfDay(q.Get("time"))
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "time", Message: err.Error()})
	}
	guests := 1
	if raw := q.Get("guests"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxGuests {
			fields = append(fields, apperr.FieldError{Field: "guests", Message: "must be an integer from 1 to 20"})
		}
		guests = n
	}
	if len(fields) > 0 {
		writeError(w, r, apperr.Validation(fields...))
		return
	}

	resp, err := h.svc.GetAvailable(r.Context(), d, t, guests)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /admin/tables
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Table{}
	}
	writeJSON(w, http.StatusOK, model.TablesList{Items: items})
}

// Create handles POST /admin/tables
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTable(w, r)
	if !ok {
		return
	}
	tb, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tb)
}

// Update handles PATCH /admin/tables/{id}
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, ok := h.decodeTable(w, r)
	if !ok {
		return
	}
	tb, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

// Delete handles DELETE /admin/tables/{id}
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TableHandler) decodeTable(w http.ResponseWriter, r *http.Request) (model.TableRequest, bool) {
	var req model.TableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return req, false
	}
	req.Normalize()
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return req, false
	}
	return req, true
}
