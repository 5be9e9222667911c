// Package accrual implements the investment value-accrual engine.
//
// The engine is pure: it maps an investment snapshot and a timestamp to
// the next snapshot plus at most one balance-credit effect. It performs
// no I/O and touches no shared state, so it is safe to call repeatedly
// and concurrently on independent copies. Applying snapshots and
// effects is the orchestration layer's job.
package accrual

import (
	"time"

	"github.com/google/uuid"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/shopspring/decimal"
)

// millisPerDay converts a millisecond time difference into fractional days.
const millisPerDay = 86_400_000

// Credit is the side effect produced by a settlement: pay the
// guaranteed payout to the owner, exactly once per investment.
type Credit struct {
	InvestmentID uuid.UUID
	OwnerID      uuid.UUID
	Amount       decimal.Decimal
}

// Advance computes the next state of one investment at time now.
//
// A settled investment is returned unchanged with no effect. An active
// investment at or past its maturity instant transitions to settled
// with its value pinned to the guaranteed payout, producing one Credit;
// the caller must apply the returned state before the next invocation
// so a later call observes the terminal state and is a no-op. An active
// investment before maturity gets its current value recomputed from the
// stored daily accrual rate and the fractional days elapsed since
// start, clamped to [principal, guaranteedPayout].
func Advance(inv models.Investment, now time.Time) (models.Investment, *Credit) {
	if inv.State == models.InvestmentSettled {
		return inv, nil
	}

	if inv.IsMature(now) {
		settledAt := now.UTC()
		inv.State = models.InvestmentSettled
		inv.CurrentValue = inv.GuaranteedPayout
		inv.SettledAt = &settledAt
		return inv, &Credit{
			InvestmentID: inv.ID,
			OwnerID:      inv.OwnerID,
			Amount:       inv.GuaranteedPayout,
		}
	}

	elapsedDays := float64(now.Sub(inv.StartTime).Milliseconds()) / millisPerDay
	value := inv.Principal.Add(inv.DailyAccrual.Mul(decimal.NewFromFloat(elapsedDays)))

	// Clamp to the contract bounds. The upper clamp keeps the payout
	// invariant under floating-point drift near maturity; the lower
	// clamp absorbs a now before start, which callers shouldn't supply.
	if value.GreaterThan(inv.GuaranteedPayout) {
		value = inv.GuaranteedPayout
	}
	if value.LessThan(inv.Principal) {
		value = inv.Principal
	}

	inv.CurrentValue = value
	return inv, nil
}

// RunPass advances every investment in the collection to time now and
// collects the settlement effects. Inputs are not mutated; the returned
// slice holds the next snapshot for every input in order, including
// unchanged settled ones.
func RunPass(investments []*models.Investment, now time.Time) ([]*models.Investment, []Credit) {
	next := make([]*models.Investment, 0, len(investments))
	var credits []Credit

	for _, inv := range investments {
		if inv == nil {
			continue
		}
		advanced, credit := Advance(*inv, now)
		next = append(next, &advanced)
		if credit != nil {
			credits = append(credits, *credit)
		}
	}

	return next, credits
}
