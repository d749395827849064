// Package analysis derives deterministic portfolio metrics from a debt
// snapshot. The result seeds advisory requests and the planning pipeline.
package analysis

import (
	"sort"

	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/pkg/constants"
	"github.com/debtease/planner/pkg/mathutil"
	"go.uber.org/zap"
)

// RiskTag is a coarse portfolio risk classification.
type RiskTag string

// Portfolio risk tags.
const (
	RiskLow    RiskTag = "low"
	RiskMedium RiskTag = "medium"
	RiskHigh   RiskTag = "high"
)

// Portfolio summarizes one debt snapshot.
type Portfolio struct {
	TotalDebt            float64 `json:"total_debt"`
	DebtCount            int     `json:"debt_count"`
	AverageInterestRate  float64 `json:"average_interest_rate"`
	TotalMinimumPayments float64 `json:"total_minimum_payments"`
	TotalMonthlyInterest float64 `json:"total_monthly_interest"`

	HighestRateDebtID string  `json:"highest_interest_debt_id"`
	HighestRate       float64 `json:"highest_interest_rate"`
	SmallestDebtID    string  `json:"smallest_debt_id"`
	SmallestBalance   float64 `json:"smallest_debt_amount"`
	LargestDebtID     string  `json:"largest_debt_id"`
	LargestBalance    float64 `json:"largest_debt_amount"`

	HighPriorityDebtIDs []string `json:"high_priority_debts"`
	HighInterestDebtIDs []string `json:"high_interest_debts"`
	OverdueDebtIDs      []string `json:"overdue_debts"`

	CategoryBreakdown map[string]float64 `json:"debt_types_breakdown"`
	Risk              RiskTag            `json:"risk_assessment"`
}

// Analyzer computes portfolio summaries. Stateless and safe for concurrent use.
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

// Analyze summarizes a debt snapshot. An empty snapshot yields a zero
// portfolio with low risk.
func (a *Analyzer) Analyze(debts []debt.Debt) Portfolio {
	p := Portfolio{
		DebtCount:           len(debts),
		HighPriorityDebtIDs: []string{},
		HighInterestDebtIDs: []string{},
		OverdueDebtIDs:      []string{},
		CategoryBreakdown:   map[string]float64{},
		Risk:                RiskLow,
	}
	if len(debts) == 0 {
		return p
	}

	var rateSum, monthlyInterest float64
	for _, d := range debts {
		p.TotalDebt += d.CurrentBalance
		p.TotalMinimumPayments += d.MonthlyMinimum()
		rateSum += d.InterestRate
		monthlyInterest += d.CurrentBalance * d.MonthlyRate()
		p.CategoryBreakdown[string(d.Category)] += d.MonthlyMinimum()

		if d.HighPriority {
			p.HighPriorityDebtIDs = append(p.HighPriorityDebtIDs, d.ID)
		}
		if d.InterestRate > constants.HighInterestRate {
			p.HighInterestDebtIDs = append(p.HighInterestDebtIDs, d.ID)
		}
		if d.IsOverdue() {
			p.OverdueDebtIDs = append(p.OverdueDebtIDs, d.ID)
		}

		if p.HighestRateDebtID == "" || d.InterestRate > p.HighestRate {
			p.HighestRateDebtID = d.ID
			p.HighestRate = d.InterestRate
		}
		if p.SmallestDebtID == "" || d.CurrentBalance < p.SmallestBalance {
			p.SmallestDebtID = d.ID
			p.SmallestBalance = d.CurrentBalance
		}
		if p.LargestDebtID == "" || d.CurrentBalance > p.LargestBalance {
			p.LargestDebtID = d.ID
			p.LargestBalance = d.CurrentBalance
		}
	}

	p.AverageInterestRate = mathutil.Round(rateSum / float64(len(debts)))
	p.TotalDebt = mathutil.Round(p.TotalDebt)
	p.TotalMinimumPayments = mathutil.Round(p.TotalMinimumPayments)
	p.TotalMonthlyInterest = mathutil.Round(monthlyInterest)
	for k, v := range p.CategoryBreakdown {
		p.CategoryBreakdown[k] = mathutil.Round(v)
	}

	switch {
	case len(p.OverdueDebtIDs) > 0:
		p.Risk = RiskHigh
	case p.AverageInterestRate > constants.HighInterestRate:
		p.Risk = RiskMedium
	}

	a.logger.Debug("portfolio analyzed",
		zap.String("op", "analysis.Analyze"),
		zap.Int("debt_count", p.DebtCount),
		zap.Float64("total_debt", p.TotalDebt),
		zap.String("risk", string(p.Risk)),
	)

	return p
}

// PriorityOrder returns debt IDs ordered for the given strategy: rate
// descending for avalanche, balance ascending otherwise. Ties break on ID.
func PriorityOrder(debts []debt.Debt, avalanche bool) []string {
	ordered := debt.Clone(debts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if avalanche {
			if ordered[i].InterestRate != ordered[j].InterestRate {
				return ordered[i].InterestRate > ordered[j].InterestRate
			}
		} else {
			if ordered[i].CurrentBalance != ordered[j].CurrentBalance {
				return ordered[i].CurrentBalance < ordered[j].CurrentBalance
			}
		}
		return ordered[i].ID < ordered[j].ID
	})
	ids := make([]string, len(ordered))
	for i, d := range ordered {
		ids[i] = d.ID
	}
	return ids
}
