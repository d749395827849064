package planner

import (
	"testing"
	"time"

	"github.com/debtease/planner/internal/analysis"
	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/internal/simulation"
)

var plannerFixedTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func plannerDebts() []debt.Debt {
	return []debt.Debt{
		{ID: "card", Name: "Card", CurrentBalance: 7200, InterestRate: 24.99, MinimumPayment: 180, Frequency: debt.FrequencyMonthly, Category: debt.CategoryCreditCard},
		{ID: "auto", Name: "Auto", CurrentBalance: 22500, InterestRate: 6.8, MinimumPayment: 280, Frequency: debt.FrequencyMonthly, Category: debt.CategoryVehicleLoan},
		{ID: "personal", Name: "Personal", CurrentBalance: 3200, InterestRate: 12.5, MinimumPayment: 120, Frequency: debt.FrequencyMonthly, Category: debt.CategoryPersonalLoan},
	}
}

func newDeterministic() *Deterministic {
	sim := simulation.NewSimulatorWithFixedTime(nil, plannerFixedTime)
	return NewDeterministic(sim, analysis.NewAnalyzer(nil), nil)
}

func TestEffectiveBudget(t *testing.T) {
	debts := plannerDebts() // minimums sum to 580

	tests := []struct {
		name      string
		requested float64
		want      float64
	}{
		{"zero uses default factor", 0, 870},
		{"negative uses default factor", -50, 870},
		{"below minimums floored to minimums", 400, 580},
		{"above minimums passes through", 900, 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveBudget(tt.requested, debts); got != tt.want {
				t.Errorf("EffectiveBudget(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}

func TestDeterministicPlanComplete(t *testing.T) {
	d := newDeterministic()
	plan, err := d.Plan("user-1", plannerDebts(), Params{MonthlyBudget: 900})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if plan.ID == "" {
		t.Error("plan has no id")
	}
	if plan.SubjectID != "user-1" {
		t.Errorf("SubjectID = %s", plan.SubjectID)
	}
	if plan.Source != SourceDeterministic {
		t.Errorf("Source = %s, want deterministic", plan.Source)
	}
	if plan.MonthlyPayment != 900 {
		t.Errorf("MonthlyPayment = %v, want 900", plan.MonthlyPayment)
	}
	if plan.TotalDebt != 32900 {
		t.Errorf("TotalDebt = %v, want 32900", plan.TotalDebt)
	}
	if plan.TimeToDebtFree <= 0 {
		t.Errorf("TimeToDebtFree = %d", plan.TimeToDebtFree)
	}
	if plan.DebtFreeDate == "" {
		t.Error("plan has no debt-free date")
	}
	if plan.Repayment == nil || plan.Recommendations == nil {
		t.Fatal("deterministic plan missing repayment or recommendation documents")
	}
	if plan.Repayment.PrimaryStrategy.Name == "" {
		t.Error("primary strategy detail is empty")
	}
	if len(plan.DebtOrder) != 3 {
		t.Errorf("DebtOrder = %v", plan.DebtOrder)
	}
	if len(plan.KeyInsights) == 0 || len(plan.ActionItems) == 0 || len(plan.RiskFactors) == 0 {
		t.Error("plan narrative sections are empty")
	}
	if !plan.GeneratedAt.Equal(plannerFixedTime) {
		t.Errorf("GeneratedAt = %v, want %v", plan.GeneratedAt, plannerFixedTime)
	}
}

func TestDeterministicPlanHonorsRequestedStrategy(t *testing.T) {
	d := newDeterministic()
	plan, err := d.Plan("user-1", plannerDebts(), Params{MonthlyBudget: 900, Strategy: simulation.StrategySnowball})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan.Strategy != simulation.StrategySnowball {
		t.Errorf("Strategy = %s, want snowball", plan.Strategy)
	}
	if plan.DebtOrder[0] != "personal" {
		t.Errorf("snowball order starts at %s, want personal", plan.DebtOrder[0])
	}
}

func TestDeterministicPlanBudgetBelowMinimumsStillPlans(t *testing.T) {
	d := newDeterministic()
	plan, err := d.Plan("user-1", plannerDebts(), Params{MonthlyBudget: 300})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan.MonthlyPayment != 580 {
		t.Errorf("MonthlyPayment = %v, want floored 580", plan.MonthlyPayment)
	}
}

func TestDeterministicPlanRejectsEmptySnapshot(t *testing.T) {
	if _, err := newDeterministic().Plan("user-1", nil, Params{}); err == nil {
		t.Fatal("expected error for empty snapshot")
	}
}

func TestParamsFingerprint(t *testing.T) {
	debts := plannerDebts()
	base := Params{MonthlyBudget: 900}

	if base.Fingerprint(debts) != base.Fingerprint(debts) {
		t.Error("fingerprint is not stable")
	}
	if base.Fingerprint(debts) == (Params{MonthlyBudget: 950}).Fingerprint(debts) {
		t.Error("budget change did not change fingerprint")
	}

	changed := plannerDebts()
	changed[0].CurrentBalance -= 500
	if base.Fingerprint(debts) == base.Fingerprint(changed) {
		t.Error("balance change did not change fingerprint")
	}

	// Snapshot order must not matter.
	reversed := []debt.Debt{debts[2], debts[1], debts[0]}
	if base.Fingerprint(debts) != base.Fingerprint(reversed) {
		t.Error("fingerprint depends on snapshot order")
	}
}
