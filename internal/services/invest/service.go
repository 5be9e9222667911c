// Package invest orchestrates the investment lifecycle: creation
// against the balance ledger and the scheduled accrual pass that
// settles matured investments.
package invest

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/oaklinehq/oakline/internal/services/accrual"
	"github.com/oaklinehq/oakline/internal/services/notify"
	"github.com/oaklinehq/oakline/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("investment amount must be positive")
	ErrInvalidDuration   = errors.New("investment duration must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ReferralCommissionRate is the share of invested principal credited to
// the investor's referrer when an investment is created.
var ReferralCommissionRate = decimal.NewFromFloat(0.05)

// Service is the investment lifecycle manager
type Service struct {
	investments  *storage.InvestmentRepository
	balances     *storage.BalanceRepository
	transactions *storage.TransactionRepository
	users        *storage.UserRepository
	notifier     notify.Notifier
	now          func() time.Time
}

// NewService creates a new investment service. The clock is injected
// for testability; pass nil to use the wall clock.
func NewService(
	investments *storage.InvestmentRepository,
	balances *storage.BalanceRepository,
	transactions *storage.TransactionRepository,
	users *storage.UserRepository,
	notifier notify.Notifier,
	clock func() time.Time,
) *Service {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &Service{
		investments:  investments,
		balances:     balances,
		transactions: transactions,
		users:        users,
		notifier:     notifier,
		now:          clock,
	}
}

// Create validates and opens a new investment for the owner. The
// principal is debited from the owner's balance before the record is
// inserted; if the insert then fails a refund is attempted, and a
// refund failure is reported loudly rather than swallowed.
func (s *Service) Create(ownerID uuid.UUID, principal decimal.Decimal, durationDays int) (*models.Investment, error) {
	if !principal.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if durationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	balance, err := s.balances.Get(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if principal.GreaterThan(balance) {
		return nil, ErrInsufficientFunds
	}

	if _, err := s.balances.Adjust(ownerID, principal.Neg()); err != nil {
		return nil, fmt.Errorf("failed to debit principal: %w", err)
	}

	inv := models.NewInvestment(ownerID, principal, durationDays, s.now())
	if err := s.investments.Create(inv); err != nil {
		if _, refundErr := s.balances.Adjust(ownerID, principal); refundErr != nil {
			log.Printf("invest: debited %s from %s but insert and refund both failed: %v / %v",
				principal, ownerID, err, refundErr)
			s.notifier.Error(ownerID.String(), "We could not open your investment. Support has been notified.")
			return nil, fmt.Errorf("investment insert failed after debit (refund failed: %v): %w", refundErr, err)
		}
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}

	record := models.NewTransaction(ownerID, principal, models.TxInvestment, models.FlowDebit,
		models.TxCompleted, fmt.Sprintf("Opened %d-day investment", durationDays))
	if err := s.transactions.Create(record); err != nil {
		// History entry only; the investment itself is in place.
		log.Printf("invest: failed to record investment transaction for %s: %v", ownerID, err)
	}

	s.creditReferrer(ownerID, principal)

	return inv, nil
}

// creditReferrer pays the referral commission for a new investment, if
// the owner was referred. Commission failures never fail the creation.
func (s *Service) creditReferrer(ownerID uuid.UUID, principal decimal.Decimal) {
	owner, err := s.users.GetByID(ownerID)
	if err != nil || owner == nil || owner.ReferredBy == nil {
		return
	}

	commission := principal.Mul(ReferralCommissionRate)
	if _, err := s.balances.Adjust(*owner.ReferredBy, commission); err != nil {
		log.Printf("invest: failed to credit referral commission to %s: %v", owner.ReferredBy, err)
		return
	}

	record := models.NewTransaction(*owner.ReferredBy, commission, models.TxReferral, models.FlowCredit,
		models.TxCompleted, fmt.Sprintf("Referral commission from %s", owner.Name))
	if err := s.transactions.Create(record); err != nil {
		log.Printf("invest: failed to record referral transaction: %v", err)
	}
	s.notifier.Success(owner.ReferredBy.String(),
		fmt.Sprintf("You earned a %s referral commission", commission))
}

// ListByOwner returns all of a user's investments, newest first
func (s *Service) ListByOwner(ownerID uuid.UUID) ([]*models.Investment, error) {
	return s.investments.ListByOwner(ownerID)
}

// List returns every investment (admin view)
func (s *Service) List() ([]*models.Investment, error) {
	return s.investments.List()
}

// PassResult summarizes one accrual pass
type PassResult struct {
	Investments []*models.Investment
	Updated     int
	Settled     int
}

// RunAccrualPass recomputes every active investment's value at time now
// and settles the matured ones. The engine produces snapshots and
// credit effects; this method applies them. Each settlement is one
// database transaction guarded by a state check, so a credit lands
// exactly once even if two passes race on the same stale snapshot —
// the losing writer observes the no-op and skips the credit.
func (s *Service) RunAccrualPass(now time.Time) (*PassResult, error) {
	active, err := s.investments.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load active investments: %w", err)
	}

	next, credits := accrual.RunPass(active, now)

	settled := make(map[uuid.UUID]bool, len(credits))
	for _, c := range credits {
		settled[c.InvestmentID] = true
	}

	result := &PassResult{Investments: next}

	for _, c := range credits {
		var settledAt time.Time
		for _, inv := range next {
			if inv.ID == c.InvestmentID && inv.SettledAt != nil {
				settledAt = *inv.SettledAt
			}
		}
		credited, err := s.investments.SettleAndCredit(c.InvestmentID, c.OwnerID, c.Amount, settledAt)
		if err != nil {
			log.Printf("accrual: settlement failed for investment %s: %v", c.InvestmentID, err)
			s.notifier.Error(c.OwnerID.String(), "We hit a problem settling your investment; it will be retried.")
			continue
		}
		if !credited {
			// Another pass settled it first; the credit already landed.
			continue
		}
		result.Settled++
		s.notifier.Success(c.OwnerID.String(),
			fmt.Sprintf("Your investment matured: %s has been credited to your balance", c.Amount))
	}

	for _, inv := range next {
		if settled[inv.ID] || inv.State != models.InvestmentActive {
			continue
		}
		if err := s.investments.UpdateValue(inv.ID, inv.CurrentValue); err != nil {
			log.Printf("accrual: failed to persist value for investment %s: %v", inv.ID, err)
			continue
		}
		result.Updated++
	}

	return result, nil
}

// RunAccrualPassNow runs a pass at the service clock's current time
func (s *Service) RunAccrualPassNow() (*PassResult, error) {
	return s.RunAccrualPass(s.now())
}
