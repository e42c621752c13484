package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/table-booking/internal/model"
)

// BookingHandler groups the booking endpoints. All of them run behind
// Authenticate.
type BookingHandler struct {
	svc BookingAPI
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc BookingAPI) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// Create handles POST /bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Normalize()
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.svc.Create(r.Context(), UserFrom(r.Context()), req.TableID, *req.Date, *req.Time)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// ListMy handles GET /bookings/my
func (h *BookingHandler) ListMy(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.GetMy(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, model.BookingsList{Items: items})
}

// Update handles PATCH /bookings/{id}
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req model.UpdateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.svc.Update(r.Context(), UserFrom(r.Context()).ID, id, *req.Date, *req.Time)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Cancel handles DELETE /bookings/{id} and returns the canceled booking.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.svc.Cancel(r.Context(), UserFrom(r.Context()).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
