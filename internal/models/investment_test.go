package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestNewInvestment(t *testing.T) {
	ownerID := uuid.New()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	inv := NewInvestment(ownerID, decimal.NewFromInt(100), 10, start)

	if inv.ID == uuid.Nil {
		t.Error("Expected investment ID to be generated")
	}
	if inv.OwnerID != ownerID {
		t.Errorf("Expected owner ID %v, got %v", ownerID, inv.OwnerID)
	}
	if !inv.GuaranteedPayout.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected guaranteed payout 200, got %s", inv.GuaranteedPayout)
	}
	if !inv.DailyAccrual.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected daily accrual 10, got %s", inv.DailyAccrual)
	}
	if !inv.CurrentValue.Equal(inv.Principal) {
		t.Errorf("Expected current value to start at principal, got %s", inv.CurrentValue)
	}
	if inv.State != InvestmentActive {
		t.Errorf("Expected state %s, got %s", InvestmentActive, inv.State)
	}
	if !inv.MaturityTime.Equal(start.AddDate(0, 0, 10)) {
		t.Errorf("Expected maturity 10 days after start, got %v", inv.MaturityTime)
	}
}

func TestInvestment_IsMature(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := NewInvestment(uuid.New(), decimal.NewFromInt(500), 30, start)

	tests := []struct {
		name     string
		now      time.Time
		expected bool
	}{
		{"before maturity", inv.MaturityTime.Add(-time.Second), false},
		{"exact maturity instant", inv.MaturityTime, true},
		{"after maturity", inv.MaturityTime.Add(time.Hour), true},
	}

	for _, tt := range tests {
		if got := inv.IsMature(tt.now); got != tt.expected {
			t.Errorf("%s: IsMature() = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestInvestment_Progress(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := NewInvestment(uuid.New(), decimal.NewFromInt(100), 10, start)

	if !inv.Progress().IsZero() {
		t.Errorf("Expected 0%% progress at creation, got %s", inv.Progress())
	}

	inv.CurrentValue = decimal.NewFromInt(150)
	if !inv.Progress().Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50%% progress at midpoint, got %s", inv.Progress())
	}

	inv.State = InvestmentSettled
	if !inv.Progress().Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100%% progress once settled, got %s", inv.Progress())
	}
}

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateReferralCode()
		if len(code) != 8 {
			t.Fatalf("Expected 8-character code, got %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 100 {
		t.Errorf("Expected 100 distinct codes, got %d", len(seen))
	}
}
