package planner

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/debtease/planner/internal/advisory"
	"github.com/debtease/planner/internal/analysis"
	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/internal/simulation"
	"github.com/debtease/planner/pkg/constants"
	"github.com/debtease/planner/pkg/mathutil"
)

// Deterministic builds plans from the local simulator and analyzer
// alone. It is the guaranteed producer: given a non-empty debt snapshot
// it always returns a plan.
type Deterministic struct {
	simulator *simulation.Simulator
	analyzer  *analysis.Analyzer
	logger    *zap.Logger
	newID     func() string
}

// NewDeterministic constructs a Deterministic planner.
func NewDeterministic(simulator *simulation.Simulator, analyzer *analysis.Analyzer, logger *zap.Logger) *Deterministic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deterministic{
		simulator: simulator,
		analyzer:  analyzer,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
	}
}

// EffectiveBudget resolves the budget actually used for planning: the
// caller's budget when it covers the minimums, the default factor times
// the minimums when no budget is given, and the minimums themselves as
// the floor.
func EffectiveBudget(requested float64, debts []debt.Debt) float64 {
	minimums := debt.TotalMonthlyMinimums(debts)
	if requested <= 0 {
		return mathutil.Round(minimums * constants.DefaultBudgetFactor)
	}
	return mathutil.Max(requested, minimums)
}

// Plan builds a complete deterministic plan for the subject.
func (d *Deterministic) Plan(subjectID string, debts []debt.Debt, params Params) (*Plan, error) {
	if len(debts) == 0 {
		return nil, fmt.Errorf("deterministic plan for %q: no debts", subjectID)
	}

	budget := EffectiveBudget(params.MonthlyBudget, debts)
	cmp, err := d.simulator.Compare(debts, budget)
	if err != nil {
		return nil, fmt.Errorf("deterministic plan for %q: %w", subjectID, err)
	}

	strategy := params.Strategy
	if strategy == "" {
		strategy = cmp.Recommended
	}
	chosen := cmp.Avalanche
	if strategy == simulation.StrategySnowball {
		chosen = cmp.Snowball
	}

	portfolio := d.analyzer.Analyze(debts)
	order := analysis.PriorityOrder(debts, strategy == simulation.StrategyAvalanche)

	plan := &Plan{
		ID:                 d.newID(),
		SubjectID:          subjectID,
		Strategy:           strategy,
		MonthlyPayment:     budget,
		TotalDebt:          portfolio.TotalDebt,
		TimeToDebtFree:     chosen.MonthsToDebtFree,
		TotalInterestSaved: cmp.InterestSavings(),
		DebtFreeDate:       chosen.DebtFreeDate,
		DebtOrder:          order,
		Repayment:          d.repaymentDocument(strategy, chosen, cmp, order, portfolio),
		Recommendations:    d.recommendationDocument(strategy, cmp, order, portfolio),
		Source:             SourceDeterministic,
		GeneratedAt:        d.simulator.Now(),
	}
	plan.KeyInsights = plan.Repayment.KeyInsights
	plan.ActionItems = plan.Repayment.ActionItems
	plan.RiskFactors = plan.Repayment.RiskFactors

	d.logger.Debug("deterministic plan built",
		zap.String("op", "planner.Deterministic.Plan"),
		zap.String("subject_id", subjectID),
		zap.String("strategy", string(strategy)),
		zap.Int("months", plan.TimeToDebtFree),
	)

	return plan, nil
}

func (d *Deterministic) repaymentDocument(
	strategy simulation.Strategy,
	chosen simulation.Result,
	cmp simulation.Comparison,
	order []string,
	portfolio analysis.Portfolio,
) *advisory.RepaymentPlan {
	primary, alternative := strategyDetails(strategy, cmp)

	insights := []string{
		fmt.Sprintf("Paying %.2f per month clears %.2f of debt in %d months.", chosen.MonthlyBudget, portfolio.TotalDebt, chosen.MonthsToDebtFree),
	}
	if cmp.InterestSavings() > 0 {
		insights = append(insights, fmt.Sprintf("The avalanche order saves %.2f in interest over snowball.", cmp.InterestSavings()))
	}
	if len(portfolio.HighInterestDebtIDs) > 0 {
		insights = append(insights, fmt.Sprintf("%d debt(s) carry rates above %.0f%% and dominate the interest load.", len(portfolio.HighInterestDebtIDs), constants.HighInterestRate))
	}

	actions := []string{
		"Set up automatic payments for every minimum.",
		fmt.Sprintf("Direct all surplus budget to %s first.", order[0]),
		"Revisit the plan whenever a debt is paid off or a rate changes.",
	}

	risks := []string{"A missed payment adds interest and can extend the payoff date."}
	if len(portfolio.OverdueDebtIDs) > 0 {
		risks = append(risks, fmt.Sprintf("%d debt(s) are past due; bring them current before applying extra payments.", len(portfolio.OverdueDebtIDs)))
	}
	if !chosen.Valid {
		risks = append(risks, "At this budget the balance does not amortize; increase the monthly payment.")
	}

	return &advisory.RepaymentPlan{
		Strategy:              string(strategy),
		MonthlyPaymentAmount:  chosen.MonthlyBudget,
		TotalDebt:             portfolio.TotalDebt,
		TimeToDebtFree:        chosen.MonthsToDebtFree,
		TotalInterestSaved:    cmp.InterestSavings(),
		DebtOrder:             order,
		PrimaryStrategy:       primary,
		AlternativeStrategies: []advisory.StrategyDetail{alternative},
		KeyInsights:           insights,
		ActionItems:           actions,
		RiskFactors:           risks,
	}
}

func (d *Deterministic) recommendationDocument(
	strategy simulation.Strategy,
	cmp simulation.Comparison,
	order []string,
	portfolio analysis.Portfolio,
) *advisory.RecommendationSet {
	recs := []advisory.Recommendation{
		{
			ID:               d.newID(),
			Type:             "strategy",
			Title:            fmt.Sprintf("Follow the %s payoff order", strategy),
			Description:      fmt.Sprintf("Apply every dollar above the minimums to %s until it is gone, then roll that payment into the next debt.", order[0]),
			PotentialSavings: cmp.InterestSavings(),
			PriorityScore:    9,
		},
	}
	if len(portfolio.HighInterestDebtIDs) > 0 {
		recs = append(recs, advisory.Recommendation{
			ID:            d.newID(),
			Type:          "refinance",
			Title:         "Look for a lower rate on high-interest debt",
			Description:   fmt.Sprintf("A balance transfer or consolidation loan below %.0f%% would cut the monthly interest charge.", constants.HighInterestRate),
			PriorityScore: 7,
		})
	}
	if len(portfolio.OverdueDebtIDs) > 0 {
		recs = append(recs, advisory.Recommendation{
			ID:            d.newID(),
			Type:          "delinquency",
			Title:         "Bring past-due accounts current",
			Description:   "Late fees and penalty rates compound faster than any payoff strategy can recover.",
			PriorityScore: 10,
		})
	}

	impact := fmt.Sprintf("Debt free in %d months at the planned budget.", cmp.Avalanche.MonthsToDebtFree)
	if strategy == simulation.StrategySnowball {
		impact = fmt.Sprintf("Debt free in %d months at the planned budget.", cmp.Snowball.MonthsToDebtFree)
	}

	return &advisory.RecommendationSet{
		Recommendations: recs,
		OverallStrategy: string(strategy),
		PriorityOrder:   order,
		EstimatedImpact: impact,
	}
}

func strategyDetails(strategy simulation.Strategy, cmp simulation.Comparison) (primary, alternative advisory.StrategyDetail) {
	avalanche := advisory.StrategyDetail{
		Name:        "Avalanche",
		Description: "Pay minimums on everything and send all surplus to the highest-rate debt.",
		Benefits:    []string{"Lowest total interest", "Shortest mathematically possible payoff"},
		Drawbacks:   []string{"First payoff can take a while when the highest-rate debt is large"},
		Reasoning:   fmt.Sprintf("Snowball would cost %.2f more in interest on this portfolio.", cmp.InterestSavings()),
	}
	snowball := advisory.StrategyDetail{
		Name:        "Snowball",
		Description: "Pay minimums on everything and send all surplus to the smallest balance.",
		Benefits:    []string{"Quick early payoffs", "Fewer accounts to track sooner"},
		Drawbacks:   []string{"Can cost more in total interest"},
		Reasoning:   "The interest difference between strategies is small on this portfolio.",
	}
	if strategy == simulation.StrategySnowball {
		return snowball, avalanche
	}
	return avalanche, snowball
}
