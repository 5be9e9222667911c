package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/oaklinehq/oakline/internal/middleware"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/oaklinehq/oakline/internal/services/funds"
	"github.com/shopspring/decimal"
)

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit records a deposit request for admin approval
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.fundsService.RequestDeposit(user.ID, req.Amount)
	switch err {
	case nil:
	case funds.ErrInvalidAmount:
		h.fail(w, http.StatusBadRequest, "Deposit amount must be positive")
		return
	default:
		h.fail(w, http.StatusInternalServerError, "Failed to submit deposit, please try again")
		return
	}

	h.ok(w, "Deposit submitted for approval", t)
}

// Withdraw records a withdrawal request and holds the funds
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.fundsService.RequestWithdrawal(user.ID, req.Amount)
	switch err {
	case nil:
	case funds.ErrInvalidAmount:
		h.fail(w, http.StatusBadRequest, "Withdrawal amount must be positive")
		return
	case funds.ErrInsufficientFunds:
		h.fail(w, http.StatusBadRequest, "Your balance does not cover this withdrawal")
		return
	default:
		h.fail(w, http.StatusInternalServerError, "Failed to submit withdrawal, please try again")
		return
	}

	h.ok(w, "Withdrawal submitted for approval", t)
}

// Transactions returns a page of the user's transaction history.
// Supports ?kind=, ?page= and ?limit= query parameters.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		h.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	kind := models.TransactionKind(r.URL.Query().Get("kind"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transactions, err := h.fundsService.History(user.ID, kind, page, limit)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	h.ok(w, "Successfully", map[string]interface{}{"transactions": transactions})
}
