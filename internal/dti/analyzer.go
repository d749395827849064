// Package dti computes debt-to-income ratios and classifies them against
// standard lending thresholds.
package dti

import (
	"errors"
	"fmt"

	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/pkg/constants"
	"github.com/debtease/planner/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidIncome is returned when the monthly income is zero or negative.
var ErrInvalidIncome = errors.New("monthly income must be positive")

// Tier classifies a DTI result.
type Tier string

// DTI tiers, ordered from best to worst.
const (
	TierHealthy    Tier = "healthy"
	TierElevated   Tier = "elevated"
	TierConcerning Tier = "concerning"
	TierCritical   Tier = "critical"
)

// Result holds the computed ratios, their classification, and remediation
// amounts for a single income and debt snapshot.
type Result struct {
	MonthlyIncome float64 `json:"monthly_income"`

	FrontendRatio float64 `json:"frontend_dti"`
	BackendRatio  float64 `json:"backend_dti"`
	Tier          Tier    `json:"health_status"`
	Healthy       bool    `json:"is_healthy"`

	HousingPayments    float64            `json:"housing_payments"`
	NonHousingPayments float64            `json:"non_housing_payments"`
	TotalPayments      float64            `json:"total_monthly_payments"`
	CategoryBreakdown  map[string]float64 `json:"payment_breakdown"`

	Insights    []string `json:"insights"`
	Suggestions []string `json:"suggestions"`

	// PaymentReductionNeeded is how much the monthly debt service must
	// drop to reach the healthy backend ceiling at current income.
	PaymentReductionNeeded float64 `json:"payment_reduction_needed"`

	// IncomeIncreaseNeeded is how much monthly income must rise to reach
	// the healthy backend ceiling at current payments.
	IncomeIncreaseNeeded float64 `json:"income_increase_needed"`
}

// Analyzer computes DTI results. Stateless and safe for concurrent use.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze computes front- and backend DTI for the given monthly income and
// debts. Housing payments are the monthly minimums of home loan debts; the
// backend ratio covers all debts. Returns ErrInvalidIncome when income is
// not positive.
func (a *Analyzer) Analyze(monthlyIncome float64, debts []debt.Debt) (*Result, error) {
	if monthlyIncome <= 0 {
		return nil, fmt.Errorf("analyze dti: %w", ErrInvalidIncome)
	}

	r := &Result{
		MonthlyIncome:     monthlyIncome,
		CategoryBreakdown: map[string]float64{},
		Insights:          []string{},
		Suggestions:       []string{},
	}

	for _, d := range debts {
		monthly := d.MonthlyMinimum()
		r.TotalPayments += monthly
		r.CategoryBreakdown[string(d.Category)] += monthly
		if d.IsHousing() {
			r.HousingPayments += monthly
		} else {
			r.NonHousingPayments += monthly
		}
	}
	r.HousingPayments = mathutil.Round(r.HousingPayments)
	r.NonHousingPayments = mathutil.Round(r.NonHousingPayments)
	r.TotalPayments = mathutil.Round(r.TotalPayments)
	for k, v := range r.CategoryBreakdown {
		r.CategoryBreakdown[k] = mathutil.Round(v)
	}

	r.FrontendRatio = mathutil.Round(mathutil.CalculatePercentage(r.HousingPayments, monthlyIncome))
	r.BackendRatio = mathutil.Round(mathutil.CalculatePercentage(r.TotalPayments, monthlyIncome))
	r.Tier = classify(r.FrontendRatio, r.BackendRatio)
	r.Healthy = r.Tier == TierHealthy

	healthyCeiling := monthlyIncome * constants.BackendHealthyDTI / constants.PercentageMultiplier
	r.PaymentReductionNeeded = mathutil.Round(mathutil.Max(0, r.TotalPayments-healthyCeiling))
	r.IncomeIncreaseNeeded = mathutil.Round(mathutil.Max(0,
		r.TotalPayments*constants.PercentageMultiplier/constants.BackendHealthyDTI-monthlyIncome))

	r.Insights = buildInsights(r)
	r.Suggestions = buildSuggestions(r)

	a.logger.Debug("dti computed",
		zap.String("op", "dti.Analyze"),
		zap.Float64("frontend", r.FrontendRatio),
		zap.Float64("backend", r.BackendRatio),
		zap.String("tier", string(r.Tier)),
	)

	return r, nil
}

// classify maps the two ratios onto a tier. The healthy and elevated tiers
// require both ratios under their ceilings; concerning requires either
// ratio under its ceiling; everything else is critical.
func classify(frontend, backend float64) Tier {
	switch {
	case frontend <= constants.FrontendHealthyDTI && backend <= constants.BackendHealthyDTI:
		return TierHealthy
	case frontend <= constants.FrontendElevatedDTI && backend <= constants.BackendElevatedDTI:
		return TierElevated
	case frontend <= constants.FrontendConcerningDTI || backend <= constants.BackendConcerningDTI:
		return TierConcerning
	default:
		return TierCritical
	}
}

func buildInsights(r *Result) []string {
	insights := []string{}
	switch r.Tier {
	case TierHealthy:
		insights = append(insights, fmt.Sprintf("Your debt-to-income ratio of %.1f%% is within the healthy range.", r.BackendRatio))
	case TierElevated:
		insights = append(insights, fmt.Sprintf("Your debt-to-income ratio of %.1f%% is elevated; lenders prefer 36%% or less.", r.BackendRatio))
	case TierConcerning:
		insights = append(insights, fmt.Sprintf("Your debt-to-income ratio of %.1f%% may limit access to new credit.", r.BackendRatio))
	case TierCritical:
		insights = append(insights, fmt.Sprintf("Your debt-to-income ratio of %.1f%% indicates severe debt strain.", r.BackendRatio))
	}
	if r.FrontendRatio > constants.FrontendHealthyDTI && r.HousingPayments > 0 {
		insights = append(insights, fmt.Sprintf("Housing consumes %.1f%% of income, above the %.0f%% guideline.", r.FrontendRatio, constants.FrontendHealthyDTI))
	}
	if r.NonHousingPayments > r.HousingPayments && r.NonHousingPayments > 0 {
		insights = append(insights, "Non-housing debt is the larger share of your monthly obligations.")
	}
	if len(insights) > 3 {
		insights = insights[:3]
	}
	return insights
}

func buildSuggestions(r *Result) []string {
	suggestions := []string{}
	if r.Tier == TierHealthy {
		suggestions = append(suggestions, "Maintain current payment habits and avoid taking on new debt.")
		return suggestions
	}
	if r.PaymentReductionNeeded > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Reduce monthly debt payments by %.2f to reach a 36%% backend ratio.", r.PaymentReductionNeeded))
	}
	if r.IncomeIncreaseNeeded > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Alternatively, increase monthly income by %.2f to reach a 36%% backend ratio.", r.IncomeIncreaseNeeded))
	}
	if r.Tier == TierCritical {
		suggestions = append(suggestions, "Consider credit counseling or debt consolidation to restructure obligations.")
	}
	return suggestions
}
