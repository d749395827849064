package simulation

import (
	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/pkg/constants"
	"github.com/debtease/planner/pkg/mathutil"
	"go.uber.org/zap"
)

// Justification identifies why a strategy was recommended.
type Justification string

// Recommendation justification codes.
const (
	// JustificationInterestSavings is used when avalanche saves a material
	// amount of interest over snowball.
	JustificationInterestSavings Justification = "interest_savings"

	// JustificationComparableOutcomes is used when the strategies are close
	// enough that snowball's psychological momentum wins.
	JustificationComparableOutcomes Justification = "comparable_outcomes"
)

// Comparison holds both strategy results plus derived deltas and a
// recommendation. Deltas are snowball minus avalanche, so a positive value
// means avalanche finishes sooner or cheaper.
type Comparison struct {
	Avalanche Result `json:"avalanche"`
	Snowball  Result `json:"snowball"`

	TimeDeltaMonths int     `json:"time_difference_months"`
	InterestDelta   float64 `json:"interest_difference"`

	Recommended   Strategy      `json:"recommended_strategy"`
	Justification Justification `json:"justification"`
}

// InterestSavings is the non-negative interest saved by following the
// recommended strategy.
func (c Comparison) InterestSavings() float64 {
	return mathutil.Max(0, c.InterestDelta)
}

// Compare runs both strategies against one identical snapshot and derives a
// recommendation. Pure given one snapshot; no side effects.
func (s *Simulator) Compare(debts []debt.Debt, monthlyBudget float64) (Comparison, error) {
	avalanche, err := s.Simulate(debts, Scenario{MonthlyBudget: monthlyBudget, Strategy: StrategyAvalanche})
	if err != nil {
		return Comparison{}, err
	}
	snowball, err := s.Simulate(debts, Scenario{MonthlyBudget: monthlyBudget, Strategy: StrategySnowball})
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{
		Avalanche:       avalanche,
		Snowball:        snowball,
		TimeDeltaMonths: snowball.MonthsToDebtFree - avalanche.MonthsToDebtFree,
		InterestDelta:   mathutil.Round(snowball.TotalInterestPaid - avalanche.TotalInterestPaid),
	}

	// Avalanche wins at or above the materiality threshold, so a tie at the
	// threshold resolves to avalanche.
	if cmp.InterestDelta >= constants.MaterialityThreshold {
		cmp.Recommended = StrategyAvalanche
		cmp.Justification = JustificationInterestSavings
	} else {
		cmp.Recommended = StrategySnowball
		cmp.Justification = JustificationComparableOutcomes
	}

	s.logger.Debug("strategy comparison completed",
		zap.String("op", "simulation.Compare"),
		zap.Float64("interest_delta", cmp.InterestDelta),
		zap.Int("time_delta_months", cmp.TimeDeltaMonths),
		zap.String("recommended", string(cmp.Recommended)),
	)

	return cmp, nil
}
