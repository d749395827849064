package dti

import (
	"errors"
	"testing"

	"github.com/debtease/planner/internal/debt"
)

func TestAnalyzeInvalidIncome(t *testing.T) {
	a := NewAnalyzer(nil)
	for _, income := range []float64{0, -100} {
		if _, err := a.Analyze(income, nil); !errors.Is(err, ErrInvalidIncome) {
			t.Errorf("Analyze(%v) error = %v, want ErrInvalidIncome", income, err)
		}
	}
}

func TestAnalyzeElevatedHousehold(t *testing.T) {
	debts := []debt.Debt{
		{ID: "mortgage", CurrentBalance: 280000, InterestRate: 6.1, MinimumPayment: 2000, Frequency: debt.FrequencyMonthly, Category: debt.CategoryHomeLoan},
		{ID: "auto", CurrentBalance: 18000, InterestRate: 7.2, MinimumPayment: 600, Frequency: debt.FrequencyMonthly, Category: debt.CategoryVehicleLoan},
		{ID: "card", CurrentBalance: 5200, InterestRate: 23.9, MinimumPayment: 400, Frequency: debt.FrequencyMonthly, Category: debt.CategoryCreditCard},
	}

	r, err := NewAnalyzer(nil).Analyze(8000, debts)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if r.HousingPayments != 2000 || r.TotalPayments != 3000 {
		t.Fatalf("payments = %v housing / %v total, want 2000 / 3000", r.HousingPayments, r.TotalPayments)
	}
	if r.FrontendRatio != 25.0 {
		t.Errorf("FrontendRatio = %v, want 25.0", r.FrontendRatio)
	}
	if r.BackendRatio != 37.5 {
		t.Errorf("BackendRatio = %v, want 37.5", r.BackendRatio)
	}
	if r.Tier != TierElevated {
		t.Errorf("Tier = %s, want %s", r.Tier, TierElevated)
	}
	if r.Healthy {
		t.Error("Healthy = true for an elevated result")
	}
	// 3000 - 0.36*8000 and 3000/0.36 - 8000.
	if r.PaymentReductionNeeded != 120 {
		t.Errorf("PaymentReductionNeeded = %v, want 120", r.PaymentReductionNeeded)
	}
	if r.IncomeIncreaseNeeded != 333.33 {
		t.Errorf("IncomeIncreaseNeeded = %v, want 333.33", r.IncomeIncreaseNeeded)
	}
	if r.NonHousingPayments != 1000 {
		t.Errorf("NonHousingPayments = %v, want 1000", r.NonHousingPayments)
	}
	if r.CategoryBreakdown["home_loan"] != 2000 {
		t.Errorf("home_loan breakdown = %v, want 2000", r.CategoryBreakdown["home_loan"])
	}
	if len(r.Insights) == 0 || len(r.Insights) > 3 {
		t.Errorf("len(Insights) = %d, want 1..3", len(r.Insights))
	}
	if len(r.Suggestions) == 0 {
		t.Error("expected remediation suggestions for an elevated result")
	}
}

func TestClassifyTiers(t *testing.T) {
	tests := []struct {
		name     string
		frontend float64
		backend  float64
		want     Tier
	}{
		{"both within healthy ceilings", 20, 30, TierHealthy},
		{"healthy boundary is inclusive", 28, 36, TierHealthy},
		{"backend past healthy is elevated", 25, 37.5, TierElevated},
		{"elevated boundary is inclusive", 31, 43, TierElevated},
		{"frontend ok backend past elevated", 30, 48, TierConcerning},
		{"backend ok frontend past elevated", 34, 44, TierConcerning},
		{"one ratio under concerning suffices", 60, 45, TierConcerning},
		{"both past concerning is critical", 40, 55, TierCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.frontend, tt.backend); got != tt.want {
				t.Errorf("classify(%v, %v) = %s, want %s", tt.frontend, tt.backend, got, tt.want)
			}
		})
	}
}

func TestAnalyzeHealthyNoRemediation(t *testing.T) {
	debts := []debt.Debt{
		{ID: "auto", CurrentBalance: 9000, InterestRate: 5.5, MinimumPayment: 250, Frequency: debt.FrequencyMonthly, Category: debt.CategoryVehicleLoan},
	}
	r, err := NewAnalyzer(nil).Analyze(6000, debts)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if r.Tier != TierHealthy || !r.Healthy {
		t.Fatalf("Tier = %s, want healthy", r.Tier)
	}
	if r.PaymentReductionNeeded != 0 || r.IncomeIncreaseNeeded != 0 {
		t.Errorf("remediation = %v / %v, want 0 / 0", r.PaymentReductionNeeded, r.IncomeIncreaseNeeded)
	}
}

func TestAnalyzeFrequencyConversion(t *testing.T) {
	// 200 biweekly converts at 2.167 payments per month.
	debts := []debt.Debt{
		{ID: "card", CurrentBalance: 4000, InterestRate: 19, MinimumPayment: 200, Frequency: debt.FrequencyBiweekly, Category: debt.CategoryCreditCard},
	}
	r, err := NewAnalyzer(nil).Analyze(5000, debts)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if r.TotalPayments != 433.4 {
		t.Errorf("TotalPayments = %v, want 433.4", r.TotalPayments)
	}
}

func TestAnalyzeConcerningByEitherRatio(t *testing.T) {
	// No housing debt keeps the frontend ratio at zero, so even a heavy
	// backend load cannot reach critical.
	debts := []debt.Debt{
		{ID: "card", CurrentBalance: 30000, InterestRate: 26, MinimumPayment: 2600, Frequency: debt.FrequencyMonthly, Category: debt.CategoryCreditCard},
	}
	r, err := NewAnalyzer(nil).Analyze(4000, debts)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if r.BackendRatio != 65.0 {
		t.Fatalf("BackendRatio = %v, want 65.0", r.BackendRatio)
	}
	if r.Tier != TierConcerning {
		t.Errorf("Tier = %s, want %s", r.Tier, TierConcerning)
	}
}
