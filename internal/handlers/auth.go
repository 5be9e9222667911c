package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/oaklinehq/oakline/internal/middleware"
	"github.com/oaklinehq/oakline/internal/services/auth"
)

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// Register handles account creation
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		h.fail(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if len(req.Password) < 8 {
		h.fail(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	user, err := h.authService.Register(auth.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		ReferralCode: strings.TrimSpace(strings.ToUpper(req.ReferralCode)),
	})
	switch err {
	case nil:
	case auth.ErrEmailExists:
		h.fail(w, http.StatusConflict, "That email is already registered")
		return
	case auth.ErrInvalidReferral:
		h.fail(w, http.StatusBadRequest, "That referral code was not recognized")
		return
	default:
		h.fail(w, http.StatusInternalServerError, "Registration failed, please try again")
		return
	}

	h.ok(w, "Account created", user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and sets the session cookie
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		h.fail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.authService.Login(auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    result.Token,
		Path:     "/",
		Expires:  result.Expires,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	h.ok(w, "Logged in", map[string]interface{}{
		"user":    result.User,
		"token":   result.Token,
		"expires": result.Expires,
	})
}

// Logout invalidates the user's sessions and clears the cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := middleware.GetUser(r); user != nil {
		h.authService.Logout(user.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	h.ok(w, "Logged out", nil)
}
