package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentState tracks an investment through its lifecycle.
// Active is the initial state, Settled is terminal.
type InvestmentState string

const (
	InvestmentActive  InvestmentState = "active"
	InvestmentSettled InvestmentState = "settled"
)

// PayoutMultiplier is the policy ratio between guaranteed payout and principal.
var PayoutMultiplier = decimal.NewFromInt(2)

// Investment represents one fixed-term commitment of principal toward a
// guaranteed payout. Terms (principal, payout, duration, daily accrual)
// are fixed at creation; only CurrentValue and State change afterwards,
// and only through the accrual engine.
type Investment struct {
	ID               uuid.UUID       `json:"id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	Principal        decimal.Decimal `json:"principal"`
	GuaranteedPayout decimal.Decimal `json:"guaranteed_payout"`
	DurationDays     int             `json:"duration_days"`
	StartTime        time.Time       `json:"start_time"`
	MaturityTime     time.Time       `json:"maturity_time"`
	DailyAccrual     decimal.Decimal `json:"daily_accrual"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	State            InvestmentState `json:"state"`
	SettledAt        *time.Time      `json:"settled_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewInvestment creates an Active investment starting at start.
// The guaranteed payout is 2x principal and the daily accrual rate is
// derived once here and stored, so rounding stays stable across
// recomputation passes. Callers must validate principal and
// durationDays are positive before calling.
func NewInvestment(ownerID uuid.UUID, principal decimal.Decimal, durationDays int, start time.Time) *Investment {
	start = start.UTC()
	payout := principal.Mul(PayoutMultiplier)
	return &Investment{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Principal:        principal,
		GuaranteedPayout: payout,
		DurationDays:     durationDays,
		StartTime:        start,
		MaturityTime:     start.AddDate(0, 0, durationDays),
		DailyAccrual:     payout.Sub(principal).Div(decimal.NewFromInt(int64(durationDays))),
		CurrentValue:     principal,
		State:            InvestmentActive,
		CreatedAt:        start,
	}
}

// IsActive reports whether the investment is still accruing
func (i *Investment) IsActive() bool {
	return i.State == InvestmentActive
}

// IsMature reports whether now is at or past the maturity instant.
// The boundary instant itself counts as mature.
func (i *Investment) IsMature(now time.Time) bool {
	return !now.Before(i.MaturityTime)
}

// Progress returns accrual progress as a percentage in [0, 100]
func (i *Investment) Progress() decimal.Decimal {
	if i.State == InvestmentSettled {
		return decimal.NewFromInt(100)
	}
	spread := i.GuaranteedPayout.Sub(i.Principal)
	if spread.IsZero() {
		return decimal.NewFromInt(100)
	}
	return i.CurrentValue.Sub(i.Principal).Div(spread).Mul(decimal.NewFromInt(100)).Round(2)
}
