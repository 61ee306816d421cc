package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"drawboard/internal/identity"
	"drawboard/internal/middleware"
	"drawboard/internal/models"
)

// Handler handles the HTTP (non-websocket) surface: account registration
// and login. Everything canvas-related happens over the websocket.
type Handler struct {
	identity IdentityService
}

func NewHandler(identitySvc IdentityService) *Handler {
	return &Handler{identity: identitySvc}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.identity.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		middleware.AddSpanError(r.Context(), err)
		switch {
		case errors.Is(err, identity.ErrMissingFields), errors.Is(err, identity.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "server error during registration")
		}
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.AddSpanError(r.Context(), err)
		switch {
		case errors.Is(err, identity.ErrMissingFields), errors.Is(err, identity.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "server error during login")
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}
