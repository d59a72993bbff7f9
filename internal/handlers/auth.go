package handlers

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/gearbox/internal/middleware"
	"github.com/crucial707/gearbox/internal/models"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Secret []byte
	TTL    time.Duration

	// AdminPasscodeHash, when set, is the bcrypt hash admins must match at login.
	AdminPasscodeHash string

	// Clock stamps issued tokens; nil means the wall clock.
	Clock clock.Clock
}

func (h *AuthHandler) now() time.Time {
	if h.Clock == nil {
		return clock.WallClock.Now()
	}
	return h.Clock.Now()
}

// ==========================
// Login (display name + role choice; admins may need a passcode)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string      `json:"name" validate:"required,min=1,max=64"`
		Role     models.Role `json:"role" validate:"required,oneof=admin user"`
		Passcode string      `json:"passcode" validate:"max=128"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if input.Role == models.RoleAdmin && h.AdminPasscodeHash != "" {
		if input.Passcode == "" {
			JSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h.AdminPasscodeHash), []byte(input.Passcode)); err != nil {
			JSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
	}

	user := models.NewUser(input.Name, input.Role)

	ttl := h.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := h.now()
	claims := middleware.Claims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.Secret)
	if err != nil {
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

// ==========================
// Me (the user behind the token)
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
