// Package planner assembles debt elimination plans. An orchestrator
// tries advisory producers in order and always lands on a deterministic
// plan, so callers get a usable answer even with every collaborator down.
package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/debtease/planner/internal/advisory"
	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/internal/simulation"
)

// Source identifies which producer built a plan.
type Source string

// Plan sources, in preference order.
const (
	SourceAdvisoryPrimary   Source = "advisory-primary"
	SourceAdvisorySecondary Source = "advisory-secondary"
	SourceDeterministic     Source = "deterministic"
)

// Params are the caller-supplied planning inputs.
type Params struct {
	// MonthlyBudget of zero means "use the default budget", which is the
	// sum of monthly-equivalent minimums scaled by the default factor.
	MonthlyBudget float64 `json:"monthly_budget"`

	// Strategy of empty means "use the comparator's recommendation".
	Strategy simulation.Strategy `json:"strategy,omitempty"`

	MonthlyIncome float64 `json:"monthly_income,omitempty"`
}

// Fingerprint returns a stable digest of the params and debt snapshot,
// used as the variant part of plan cache keys.
func (p Params) Fingerprint(debts []debt.Debt) string {
	h := sha256.New()
	fmt.Fprintf(h, "%.2f|%s|%.2f", p.MonthlyBudget, p.Strategy, p.MonthlyIncome)

	ordered := debt.Clone(debts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for _, d := range ordered {
		fmt.Fprintf(h, "|%s:%.2f:%.4f:%.2f:%s", d.ID, d.CurrentBalance, d.InterestRate, d.MinimumPayment, d.Frequency)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Plan is a compiled debt elimination plan.
type Plan struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`

	Strategy           simulation.Strategy `json:"strategy"`
	MonthlyPayment     float64             `json:"monthly_payment_amount"`
	TotalDebt          float64             `json:"total_debt"`
	TimeToDebtFree     int                 `json:"time_to_debt_free"`
	TotalInterestSaved float64             `json:"total_interest_saved"`
	DebtFreeDate       string              `json:"debt_free_date"`
	DebtOrder          []string            `json:"debt_order"`

	Repayment       *advisory.RepaymentPlan     `json:"repayment_plan,omitempty"`
	Recommendations *advisory.RecommendationSet `json:"recommendations,omitempty"`

	KeyInsights []string `json:"key_insights"`
	ActionItems []string `json:"action_items"`
	RiskFactors []string `json:"risk_factors"`

	// Source names the producer that built the plan. Degraded is true
	// when at least one preferred producer failed first; FailureReasons
	// lists those failures in attempt order.
	Source         Source   `json:"source"`
	Degraded       bool     `json:"degraded"`
	FailureReasons []string `json:"failure_reasons,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
