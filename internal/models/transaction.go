package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry
type TransactionKind string

const (
	TxDeposit    TransactionKind = "deposit"
	TxWithdrawal TransactionKind = "withdrawal"
	TxInvestment TransactionKind = "investment"
	TxPayout     TransactionKind = "payout"
	TxReferral   TransactionKind = "referral"
	TxRefund     TransactionKind = "refund"
)

// TransactionFlow is the direction of money relative to the user's balance
type TransactionFlow string

const (
	FlowCredit TransactionFlow = "credit"
	FlowDebit  TransactionFlow = "debit"
)

// TransactionStatus tracks the review lifecycle. Deposits and
// withdrawals start Pending and need an admin decision; everything
// else is recorded Completed.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxApproved  TransactionStatus = "approved"
	TxRejected  TransactionStatus = "rejected"
	TxCompleted TransactionStatus = "completed"
)

// Transaction is one entry in a user's money history
type Transaction struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Amount    decimal.Decimal   `json:"amount"`
	Kind      TransactionKind   `json:"kind"`
	Flow      TransactionFlow   `json:"flow"`
	Status    TransactionStatus `json:"status"`
	Message   string            `json:"message,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewTransaction creates a transaction with generated ID and timestamps
func NewTransaction(userID uuid.UUID, amount decimal.Decimal, kind TransactionKind, flow TransactionFlow, status TransactionStatus, message string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Flow:      flow,
		Status:    status,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPending reports whether the transaction still needs an admin decision
func (t *Transaction) IsPending() bool {
	return t.Status == TxPending
}
