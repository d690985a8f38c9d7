package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/habitmate/habitmate/internal/ctxkeys"
	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/service"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{
		authService: authService,
	}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeJSON(w, r, &body) {
		return
	}

	user, err := h.authService.Register(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.startSession(w, r, user, http.StatusCreated)
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeJSON(w, r, &body) {
		return
	}

	user, err := h.authService.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	h.startSession(w, r, user, http.StatusOK)
}

// Logout forgets the cached habit list and the session cookie.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ownerID := ctxkeys.OwnerID(r.Context()); ownerID != "" {
		h.authService.Logout(r.Context(), ownerID)
	}
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *authHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.authService.SetJWTCookie(w, token, expiry)
	writeJSON(w, status, sessionResponse{Token: token, ExpiresAt: expiry, User: user})
}
