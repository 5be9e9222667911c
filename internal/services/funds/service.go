// Package funds handles deposits, withdrawals and transaction history.
// Deposits and withdrawals are requests that an administrator approves
// or rejects; withdrawals place a hold on the funds at request time.
package funds

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/oaklinehq/oakline/internal/services/notify"
	"github.com/oaklinehq/oakline/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("transaction not found")
)

// Service manages money movement requests against the balance ledger
type Service struct {
	balances     *storage.BalanceRepository
	transactions *storage.TransactionRepository
	notifier     notify.Notifier
}

// NewService creates a new funds service
func NewService(balances *storage.BalanceRepository, transactions *storage.TransactionRepository, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &Service{
		balances:     balances,
		transactions: transactions,
		notifier:     notifier,
	}
}

// Balance returns the user's current balance
func (s *Service) Balance(userID uuid.UUID) (decimal.Decimal, error) {
	return s.balances.Get(userID)
}

// RequestDeposit records a pending deposit for admin review. The
// balance is only credited when the deposit is approved.
func (s *Service) RequestDeposit(userID uuid.UUID, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	t := models.NewTransaction(userID, amount, models.TxDeposit, models.FlowCredit,
		models.TxPending, "Deposit awaiting approval")
	if err := s.transactions.Create(t); err != nil {
		return nil, fmt.Errorf("failed to record deposit request: %w", err)
	}
	return t, nil
}

// RequestWithdrawal records a pending withdrawal and holds the funds.
// Returns ErrInsufficientFunds if the user's balance cannot cover it.
func (s *Service) RequestWithdrawal(userID uuid.UUID, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	t := models.NewTransaction(userID, amount, models.TxWithdrawal, models.FlowDebit,
		models.TxPending, "Withdrawal awaiting approval")
	err := s.transactions.RequestWithdrawal(t)
	if errors.Is(err, storage.ErrInsufficientBalance) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record withdrawal request: %w", err)
	}
	return t, nil
}

// History returns a page of the user's transactions, optionally
// filtered by kind
func (s *Service) History(userID uuid.UUID, kind models.TransactionKind, page, limit int) ([]*models.Transaction, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 25
	}
	return s.transactions.ListByUser(userID, kind, limit, (page-1)*limit)
}

// FullHistory returns a user's entire transaction history
func (s *Service) FullHistory(userID uuid.UUID) ([]*models.Transaction, error) {
	return s.transactions.ListAllByUser(userID)
}

// Pending returns all transactions awaiting an admin decision
func (s *Service) Pending() ([]*models.Transaction, error) {
	return s.transactions.ListPending()
}

// Decide applies an admin approval or rejection to a pending
// transaction and notifies the owner. Returns ErrNotFound if the
// transaction is missing or was already decided.
func (s *Service) Decide(id uuid.UUID, approve bool) (*models.Transaction, error) {
	t, err := s.transactions.Decide(id, approve)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	verb := "approved"
	if !approve {
		verb = "rejected"
	}
	s.notifier.Success(t.UserID.String(), fmt.Sprintf("Your %s of %s was %s", t.Kind, t.Amount, verb))
	return t, nil
}
