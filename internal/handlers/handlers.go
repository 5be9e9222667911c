// Package handlers provides HTTP request handlers
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/oaklinehq/oakline/internal/config"
	"github.com/oaklinehq/oakline/internal/services/analytics"
	"github.com/oaklinehq/oakline/internal/services/auth"
	"github.com/oaklinehq/oakline/internal/services/funds"
	"github.com/oaklinehq/oakline/internal/services/invest"
	"github.com/oaklinehq/oakline/internal/storage"
)

// Handler contains all HTTP handlers and dependencies
type Handler struct {
	cfg              *config.Config
	authService      *auth.Service
	investService    *invest.Service
	fundsService     *funds.Service
	analyticsService *analytics.Service
	userRepo         *storage.UserRepository
}

// New creates a new handler with all dependencies
func New(
	cfg *config.Config,
	authService *auth.Service,
	investService *invest.Service,
	fundsService *funds.Service,
	analyticsService *analytics.Service,
	userRepo *storage.UserRepository,
) *Handler {
	return &Handler{
		cfg:              cfg,
		authService:      authService,
		investService:    investService,
		fundsService:     fundsService,
		analyticsService: analyticsService,
		userRepo:         userRepo,
	}
}

// apiResponse is the JSON envelope for every endpoint. Message is
// always human-readable; internal error details never leave the server.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message, Data: data})
}

func (h *Handler) fail(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// Health reports service liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "ok", map[string]string{"environment": h.cfg.Environment})
}
