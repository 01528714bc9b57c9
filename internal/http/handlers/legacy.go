package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/healthvault/auth/internal/http/response"
)

// Password login was retired when the app moved to OTP email verification.
// The route stays mounted so stale clients get a clear answer instead of a
// 404.
const (
	legacyLoginError   = "password_login_removed"
	legacyLoginMessage = "Password login is no longer available. Please sign in with an email verification code."
)

type Handlers struct{}

func New() *Handlers {
	return &Handlers{}
}

// PasswordLogin answers every POST with 410 Gone and a fixed JSON body.
func (h *Handlers) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	response.Gone(w, legacyLoginError, legacyLoginMessage)
}

// Routes mounts the retired auth surface.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/api/auth/login", h.PasswordLogin)
}
