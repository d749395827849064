// Package debt defines the debt snapshot consumed by the planning engine.
package debt

import (
	"fmt"

	"github.com/debtease/planner/pkg/constants"
)

// Frequency identifies how often a minimum payment is due.
type Frequency string

// Supported payment frequencies.
const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Category tags a debt by product type. CategoryHomeLoan marks housing debt
// for the frontend DTI ratio.
type Category string

// Known debt categories.
const (
	CategoryHomeLoan     Category = "home_loan"
	CategoryCreditCard   Category = "credit_card"
	CategoryPersonalLoan Category = "personal_loan"
	CategoryVehicleLoan  Category = "vehicle_loan"
	CategoryEducation    Category = "education_loan"
	CategoryOther        Category = "other"
)

// Debt is an immutable snapshot of one obligation at planning time. Snapshots
// are owned by the caller; the engine never mutates them.
type Debt struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CurrentBalance float64   `json:"current_balance"`
	InterestRate   float64   `json:"interest_rate"` // nominal annual rate, percent
	MinimumPayment float64   `json:"minimum_payment"`
	Frequency      Frequency `json:"payment_frequency"`
	Category       Category  `json:"debt_type"`
	HighPriority   bool      `json:"is_high_priority"`
	DaysPastDue    int       `json:"days_past_due"`
}

// Validate checks the fields a snapshot must carry before it can be
// simulated or persisted.
func (d Debt) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("debt: missing id")
	}
	if d.CurrentBalance < 0 {
		return fmt.Errorf("debt %q: negative balance %.2f", d.ID, d.CurrentBalance)
	}
	if d.InterestRate < 0 {
		return fmt.Errorf("debt %q: negative interest rate %.4f", d.ID, d.InterestRate)
	}
	if d.MinimumPayment < 0 {
		return fmt.Errorf("debt %q: negative minimum payment %.2f", d.ID, d.MinimumPayment)
	}
	switch d.Frequency {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly:
	default:
		return fmt.Errorf("debt %q: unknown payment frequency %q", d.ID, d.Frequency)
	}
	return nil
}

// IsHousing reports whether the debt counts toward the housing-only DTI ratio.
func (d Debt) IsHousing() bool {
	return d.Category == CategoryHomeLoan
}

// IsOverdue reports whether the debt is delinquent.
func (d Debt) IsOverdue() bool {
	return d.DaysPastDue > 0
}

// MonthlyRate returns the periodic interest rate for one month.
func (d Debt) MonthlyRate() float64 {
	return d.InterestRate / constants.PercentageMultiplier / constants.MonthsPerYear
}

// MonthlyMinimum converts the minimum payment to its monthly equivalent
// based on the payment frequency.
func (d Debt) MonthlyMinimum() float64 {
	switch d.Frequency {
	case FrequencyWeekly:
		return d.MinimumPayment * constants.WeeklyPerMonth
	case FrequencyBiweekly:
		return d.MinimumPayment * constants.BiweeklyPerMonth
	case FrequencyQuarterly:
		return d.MinimumPayment / constants.MonthsPerQuarter
	default:
		return d.MinimumPayment
	}
}

// TotalBalance sums current balances across a debt set.
func TotalBalance(debts []Debt) float64 {
	var total float64
	for _, d := range debts {
		total += d.CurrentBalance
	}
	return total
}

// TotalMonthlyMinimums sums monthly-equivalent minimum payments across a
// debt set.
func TotalMonthlyMinimums(debts []Debt) float64 {
	var total float64
	for _, d := range debts {
		total += d.MonthlyMinimum()
	}
	return total
}

// Clone returns an independent copy of the debt set so simulations can work
// on mutable balances without touching the caller's snapshot.
func Clone(debts []Debt) []Debt {
	out := make([]Debt, len(debts))
	copy(out, debts)
	return out
}
