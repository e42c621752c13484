package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/table-booking/internal/model"
)

// AuthHandler groups the account endpoints.
type AuthHandler struct {
	svc AuthAPI
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc AuthAPI) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Normalize()
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	tok, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tok)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Normalize()
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	tok, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}
