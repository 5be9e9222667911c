package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/oaklinehq/oakline/internal/services/funds"
)

// AdminUsers lists all registered users with their balances
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	type userRow struct {
		User    interface{} `json:"user"`
		Balance string      `json:"balance"`
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		balance, err := h.fundsService.Balance(u.ID)
		if err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to load balances")
			return
		}
		rows = append(rows, userRow{User: u, Balance: balance.String()})
	}

	h.ok(w, "Successfully", map[string]interface{}{"users": rows})
}

// AdminPendingTransactions lists deposits and withdrawals awaiting a decision
func (h *Handler) AdminPendingTransactions(w http.ResponseWriter, r *http.Request) {
	pending, err := h.fundsService.Pending()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load pending transactions")
		return
	}

	h.ok(w, "Successfully", map[string]interface{}{"transactions": pending})
}

// AdminDecideTransaction approves or rejects a pending transaction.
// Routed as POST /api/admin/transactions/{id}/approve or .../reject.
func (h *Handler) AdminDecideTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// api admin transactions {id} {action}
	if len(parts) != 5 {
		h.fail(w, http.StatusNotFound, "Not found")
		return
	}

	id, err := uuid.Parse(parts[3])
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var approve bool
	switch parts[4] {
	case "approve":
		approve = true
	case "reject":
		approve = false
	default:
		h.fail(w, http.StatusNotFound, "Not found")
		return
	}

	t, err := h.fundsService.Decide(id, approve)
	switch err {
	case nil:
	case funds.ErrNotFound:
		h.fail(w, http.StatusNotFound, "Transaction not found or already decided")
		return
	default:
		h.fail(w, http.StatusInternalServerError, "Failed to apply decision, please try again")
		return
	}

	h.ok(w, "Decision applied", t)
}

// AdminInvestments lists every investment on the platform
func (h *Handler) AdminInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.investService.List()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load investments")
		return
	}

	h.ok(w, "Successfully", map[string]interface{}{"investments": investments})
}
