// Package analytics provides portfolio summary calculations
package analytics

import (
	"time"

	"github.com/oaklinehq/oakline/internal/models"
	"github.com/shopspring/decimal"
)

// Service computes summaries over a user's investments and history.
// All calculations are pure; data loading is the caller's concern.
type Service struct{}

// NewService creates a new analytics service
func NewService() *Service {
	return &Service{}
}

// PortfolioSummary is an aggregate view of one user's investments
type PortfolioSummary struct {
	ActiveCount      int             `json:"active_count"`
	SettledCount     int             `json:"settled_count"`
	TotalPrincipal   decimal.Decimal `json:"total_principal"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	AccruedEarnings  decimal.Decimal `json:"accrued_earnings"`
	PendingPayout    decimal.Decimal `json:"pending_payout"`
	LifetimePayouts  decimal.Decimal `json:"lifetime_payouts"`
	NextMaturity     *time.Time      `json:"next_maturity,omitempty"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
}

// Summarize aggregates a user's investments and transaction history
func (s *Service) Summarize(investments []*models.Investment, history []*models.Transaction) *PortfolioSummary {
	summary := &PortfolioSummary{
		TotalPrincipal:   decimal.Zero,
		CurrentValue:     decimal.Zero,
		AccruedEarnings:  decimal.Zero,
		PendingPayout:    decimal.Zero,
		LifetimePayouts:  decimal.Zero,
		ReferralEarnings: decimal.Zero,
	}

	for _, inv := range investments {
		summary.TotalPrincipal = summary.TotalPrincipal.Add(inv.Principal)

		if inv.State == models.InvestmentActive {
			summary.ActiveCount++
			summary.CurrentValue = summary.CurrentValue.Add(inv.CurrentValue)
			summary.AccruedEarnings = summary.AccruedEarnings.Add(inv.CurrentValue.Sub(inv.Principal))
			summary.PendingPayout = summary.PendingPayout.Add(inv.GuaranteedPayout)

			maturity := inv.MaturityTime
			if summary.NextMaturity == nil || maturity.Before(*summary.NextMaturity) {
				summary.NextMaturity = &maturity
			}
		} else {
			summary.SettledCount++
		}
	}

	for _, t := range history {
		if t.Status != models.TxCompleted {
			continue
		}
		switch t.Kind {
		case models.TxPayout:
			summary.LifetimePayouts = summary.LifetimePayouts.Add(t.Amount)
		case models.TxReferral:
			summary.ReferralEarnings = summary.ReferralEarnings.Add(t.Amount)
		}
	}

	return summary
}
