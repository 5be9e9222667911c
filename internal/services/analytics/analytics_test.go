package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/shopspring/decimal"
)

func TestNewService(t *testing.T) {
	svc := NewService()
	if svc == nil {
		t.Fatal("Expected service to be created")
	}
}

func TestService_Summarize_Empty(t *testing.T) {
	svc := NewService()

	summary := svc.Summarize(nil, nil)
	if summary == nil {
		t.Fatal("Expected a summary even with no data")
	}
	if summary.ActiveCount != 0 || summary.SettledCount != 0 {
		t.Error("Expected zero counts for empty input")
	}
	if !summary.TotalPrincipal.IsZero() {
		t.Errorf("Expected zero principal, got %s", summary.TotalPrincipal)
	}
	if summary.NextMaturity != nil {
		t.Error("Expected no next maturity for empty input")
	}
}

func TestService_Summarize(t *testing.T) {
	svc := NewService()
	ownerID := uuid.New()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	short := models.NewInvestment(ownerID, decimal.NewFromInt(100), 10, start)
	short.CurrentValue = decimal.NewFromInt(150)

	long := models.NewInvestment(ownerID, decimal.NewFromInt(200), 30, start)
	long.CurrentValue = decimal.NewFromInt(250)

	done := models.NewInvestment(ownerID, decimal.NewFromInt(50), 5, start)
	done.State = models.InvestmentSettled
	done.CurrentValue = done.GuaranteedPayout

	history := []*models.Transaction{
		models.NewTransaction(ownerID, decimal.NewFromInt(100), models.TxPayout, models.FlowCredit, models.TxCompleted, ""),
		models.NewTransaction(ownerID, decimal.NewFromInt(15), models.TxReferral, models.FlowCredit, models.TxCompleted, ""),
		models.NewTransaction(ownerID, decimal.NewFromInt(999), models.TxDeposit, models.FlowCredit, models.TxPending, ""),
	}

	summary := svc.Summarize([]*models.Investment{short, long, done}, history)

	if summary.ActiveCount != 2 {
		t.Errorf("Expected 2 active, got %d", summary.ActiveCount)
	}
	if summary.SettledCount != 1 {
		t.Errorf("Expected 1 settled, got %d", summary.SettledCount)
	}
	if !summary.TotalPrincipal.Equal(decimal.NewFromInt(350)) {
		t.Errorf("Expected total principal 350, got %s", summary.TotalPrincipal)
	}
	if !summary.CurrentValue.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected current value 400, got %s", summary.CurrentValue)
	}
	if !summary.AccruedEarnings.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected accrued earnings 100, got %s", summary.AccruedEarnings)
	}
	// 2x principal on the two active investments: 200 + 400
	if !summary.PendingPayout.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected pending payout 600, got %s", summary.PendingPayout)
	}
	if !summary.LifetimePayouts.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected lifetime payouts 100, got %s", summary.LifetimePayouts)
	}
	if !summary.ReferralEarnings.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected referral earnings 15, got %s", summary.ReferralEarnings)
	}
	if summary.NextMaturity == nil || !summary.NextMaturity.Equal(short.MaturityTime) {
		t.Error("Expected next maturity to be the 10-day investment's")
	}
}

func TestService_Summarize_PendingExcluded(t *testing.T) {
	svc := NewService()
	ownerID := uuid.New()

	history := []*models.Transaction{
		models.NewTransaction(ownerID, decimal.NewFromInt(40), models.TxPayout, models.FlowCredit, models.TxPending, ""),
	}
	summary := svc.Summarize(nil, history)
	if !summary.LifetimePayouts.IsZero() {
		t.Errorf("Pending transactions must not count, got %s", summary.LifetimePayouts)
	}
}
