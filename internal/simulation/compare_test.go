package simulation

import (
	"testing"

	"github.com/debtease/planner/internal/debt"
	"go.uber.org/zap"
)

func TestCompareRecommendsAvalancheForMaterialSavings(t *testing.T) {
	// A large high-rate balance makes the interest gap between strategies
	// far exceed the materiality threshold.
	debts := []debt.Debt{
		{ID: "card", CurrentBalance: 15000, InterestRate: 28, MinimumPayment: 400, Frequency: debt.FrequencyMonthly},
		{ID: "loan", CurrentBalance: 2000, InterestRate: 4, MinimumPayment: 60, Frequency: debt.FrequencyMonthly},
	}
	sim := NewSimulatorWithFixedTime(zap.NewNop(), fixedTime)

	cmp, err := sim.Compare(debts, 700)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	if cmp.Recommended != StrategyAvalanche {
		t.Errorf("Recommended = %s, expected avalanche", cmp.Recommended)
	}
	if cmp.Justification != JustificationInterestSavings {
		t.Errorf("Justification = %s, expected %s", cmp.Justification, JustificationInterestSavings)
	}
	if cmp.InterestDelta < 500 {
		t.Errorf("InterestDelta = %v, expected at least the 500 threshold", cmp.InterestDelta)
	}
	if cmp.InterestSavings() != cmp.InterestDelta {
		t.Errorf("InterestSavings = %v, expected %v", cmp.InterestSavings(), cmp.InterestDelta)
	}
}

func TestCompareRecommendsSnowballBelowThreshold(t *testing.T) {
	// Two similar low-rate debts: the interest delta between strategies is
	// immaterial, so the recommendation defaults to snowball.
	debts := []debt.Debt{
		{ID: "one", CurrentBalance: 3000, InterestRate: 6.0, MinimumPayment: 150, Frequency: debt.FrequencyMonthly},
		{ID: "two", CurrentBalance: 3500, InterestRate: 6.5, MinimumPayment: 150, Frequency: debt.FrequencyMonthly},
	}
	sim := NewSimulatorWithFixedTime(zap.NewNop(), fixedTime)

	cmp, err := sim.Compare(debts, 450)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	if cmp.Recommended != StrategySnowball {
		t.Errorf("Recommended = %s, expected snowball", cmp.Recommended)
	}
	if cmp.Justification != JustificationComparableOutcomes {
		t.Errorf("Justification = %s, expected %s", cmp.Justification, JustificationComparableOutcomes)
	}
	if cmp.InterestDelta >= 500 {
		t.Errorf("InterestDelta = %v, expected below the 500 threshold", cmp.InterestDelta)
	}
}

func TestCompareInsufficientBudgetPropagates(t *testing.T) {
	sim := NewSimulatorWithFixedTime(zap.NewNop(), fixedTime)

	_, err := sim.Compare(referenceDebts(), 100)
	if err == nil {
		t.Fatal("expected insufficient budget error")
	}
}

func TestCompareIdenticalSnapshotDeltas(t *testing.T) {
	sim := NewSimulatorWithFixedTime(zap.NewNop(), fixedTime)

	cmp, err := sim.Compare(referenceDebts(), 800)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	if cmp.TimeDeltaMonths != cmp.Snowball.MonthsToDebtFree-cmp.Avalanche.MonthsToDebtFree {
		t.Error("TimeDeltaMonths does not match the underlying results")
	}
	wantDelta := cmp.Snowball.TotalInterestPaid - cmp.Avalanche.TotalInterestPaid
	if diff := cmp.InterestDelta - wantDelta; diff > 0.01 || diff < -0.01 {
		t.Errorf("InterestDelta = %v, expected %v", cmp.InterestDelta, wantDelta)
	}
}
