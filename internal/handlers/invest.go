package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/oaklinehq/oakline/internal/middleware"
	"github.com/oaklinehq/oakline/internal/services/invest"
	"github.com/shopspring/decimal"
)

// Me returns the authenticated user's profile and balance
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	balance, err := h.fundsService.Balance(user.ID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load balance")
		return
	}

	h.ok(w, "Successfully", map[string]interface{}{
		"user":    user,
		"balance": balance,
	})
}

// ListInvestments returns the authenticated user's investments
func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	investments, err := h.investService.ListByOwner(user.ID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load investments")
		return
	}

	h.ok(w, "Successfully", map[string]interface{}{"investments": investments})
}

// Summary returns an aggregate view of the user's portfolio
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	investments, err := h.investService.ListByOwner(user.ID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load investments")
		return
	}
	history, err := h.fundsService.FullHistory(user.ID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	h.ok(w, "Successfully", h.analyticsService.Summarize(investments, history))
}

type createInvestmentRequest struct {
	Principal    decimal.Decimal `json:"principal"`
	DurationDays int             `json:"duration_days"`
}

// CreateInvestment opens a new investment from the user's balance
func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inv, err := h.investService.Create(user.ID, req.Principal, req.DurationDays)
	switch err {
	case nil:
	case invest.ErrInvalidAmount:
		h.fail(w, http.StatusBadRequest, "Investment amount must be positive")
		return
	case invest.ErrInvalidDuration:
		h.fail(w, http.StatusBadRequest, "Investment duration must be at least one day")
		return
	case invest.ErrInsufficientFunds:
		h.fail(w, http.StatusBadRequest, "Your balance does not cover this investment")
		return
	default:
		h.fail(w, http.StatusInternalServerError, "Failed to open investment, please try again")
		return
	}

	h.ok(w, "Investment opened", inv)
}
