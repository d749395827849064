// Package simulation computes month-by-month debt payoff schedules under
// competing prioritization strategies.
package simulation

import (
	"fmt"
	"sort"
	"time"

	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/pkg/constants"
	"github.com/debtease/planner/pkg/mathutil"
	"go.uber.org/zap"
)

// Strategy selects how leftover budget is prioritized across open debts.
type Strategy string

// Supported prioritization strategies.
const (
	// StrategyAvalanche directs extra payment to the highest-rate debt first.
	StrategyAvalanche Strategy = "avalanche"

	// StrategySnowball directs extra payment to the smallest-balance debt first.
	StrategySnowball Strategy = "snowball"
)

// Scenario describes one payoff simulation to run.
type Scenario struct {
	// MonthlyBudget must cover the monthly-equivalent minimum payments.
	MonthlyBudget float64 `json:"monthly_budget"`

	Strategy Strategy `json:"strategy"`

	// TargetDebtID optionally overrides the strategy ordering: when set and
	// the debt is still open, all leftover budget goes to it.
	TargetDebtID string `json:"target_debt_id,omitempty"`
}

// MonthEntry records the aggregate state after one simulated month. Values
// are rounded to currency precision; entries are immutable once produced.
type MonthEntry struct {
	Month            int     `json:"month"`
	RemainingBalance float64 `json:"total_debt"`
	PaymentApplied   float64 `json:"payment_applied"`
	InterestPaid     float64 `json:"interest_paid"`
	PrincipalPaid    float64 `json:"principal_paid"`
	DebtsRemaining   int     `json:"remaining_debts"`
}

// Result is the terminal output of one simulation.
type Result struct {
	Strategy          Strategy     `json:"strategy"`
	MonthlyBudget     float64      `json:"monthly_budget"`
	MonthsToDebtFree  int          `json:"time_to_debt_free"`
	TotalInterestPaid float64      `json:"total_interest_paid"`
	TotalPaid         float64      `json:"total_amount_paid"`
	DebtFreeDate      string       `json:"debt_free_date"`
	DebtsRetired      int          `json:"debts_paid_off_count"`
	Timeline          []MonthEntry `json:"payment_timeline"`

	// Valid is false when the simulation hit the iteration cap without
	// converging; Message then explains why. A diverged run is reported as
	// data, never as an error.
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Tail returns the last n timeline entries for windowed previews.
func (r Result) Tail(n int) []MonthEntry {
	if len(r.Timeline) <= n {
		return r.Timeline
	}
	return r.Timeline[len(r.Timeline)-n:]
}

// Head returns the first n timeline entries.
func (r Result) Head(n int) []MonthEntry {
	if len(r.Timeline) <= n {
		return r.Timeline
	}
	return r.Timeline[:n]
}

// InsufficientBudgetError indicates the monthly budget cannot cover the
// monthly-equivalent minimum payments. Caller-correctable.
type InsufficientBudgetError struct {
	Budget          float64
	MinimumRequired float64
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("monthly budget %.2f is below the %.2f required for minimum payments (shortfall %.2f)",
		e.Budget, e.MinimumRequired, e.Shortfall())
}

// Shortfall is the amount the budget must increase by to become viable.
func (e *InsufficientBudgetError) Shortfall() float64 {
	return mathutil.Round(e.MinimumRequired - e.Budget)
}

// Simulator runs payoff simulations. It is stateless apart from its clock and
// safe for concurrent use across independent requests.
type Simulator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSimulator constructs a Simulator using the wall clock.
func NewSimulator(logger *zap.Logger) *Simulator {
	return NewSimulatorWithFixedTime(logger, time.Time{})
}

// NewSimulatorWithFixedTime constructs a Simulator whose projected dates are
// anchored to a fixed time, for deterministic tests.
func NewSimulatorWithFixedTime(logger *zap.Logger, fixed time.Time) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if !fixed.IsZero() {
		now = func() time.Time { return fixed }
	}
	return &Simulator{logger: logger, now: now}
}

// Now returns the simulator's clock reading, fixed or wall.
func (s *Simulator) Now() time.Time {
	return s.now()
}

// workingDebt tracks the mutable balance for one debt during a run.
type workingDebt struct {
	debt.Debt
	balance float64
}

// Simulate runs one scenario over a debt snapshot. It returns an
// InsufficientBudgetError when the budget cannot cover minimum payments;
// every other outcome, including divergence at the iteration cap, is
// reported inside the Result.
func (s *Simulator) Simulate(debts []debt.Debt, sc Scenario) (Result, error) {
	minimumRequired := debt.TotalMonthlyMinimums(debts)
	if sc.MonthlyBudget < minimumRequired-constants.CurrencyTolerance {
		return Result{}, &InsufficientBudgetError{
			Budget:          sc.MonthlyBudget,
			MinimumRequired: mathutil.Round(minimumRequired),
		}
	}

	open := s.orderedWorkingSet(debts, sc.Strategy)

	result := Result{
		Strategy:      sc.Strategy,
		MonthlyBudget: sc.MonthlyBudget,
		Valid:         true,
	}

	var totalInterest float64
	month := 0

	for len(open) > 0 {
		if month >= constants.MaxPayoffMonths {
			result.Valid = false
			result.Message = fmt.Sprintf("simulation did not converge within %d months; budget may barely exceed accruing interest", constants.MaxPayoffMonths)
			s.logger.Warn("payoff simulation diverged",
				zap.String("op", "simulation.Simulate"),
				zap.String("strategy", string(sc.Strategy)),
				zap.Int("month_cap", constants.MaxPayoffMonths),
			)
			break
		}
		month++

		var monthInterest, monthPrincipal, applied float64

		// Minimum payments first, interest before principal.
		remaining := open[:0]
		for i := range open {
			d := open[i]
			interest := d.balance * d.MonthlyRate()
			minimum := d.MonthlyMinimum()
			principal := minimum - interest
			d.balance -= principal

			monthInterest += interest
			monthPrincipal += principal
			applied += minimum

			if d.balance <= constants.CurrencyTolerance {
				result.DebtsRetired++
				continue
			}
			remaining = append(remaining, d)
		}
		open = remaining

		// Leftover budget goes to a single target per month; overflow beyond
		// a fully retired target is deliberately not redirected within the
		// same month.
		leftover := sc.MonthlyBudget - applied
		if leftover > 0 && len(open) > 0 {
			idx := s.targetIndex(open, sc.TargetDebtID)
			extra := mathutil.Min(leftover, open[idx].balance)
			open[idx].balance -= extra
			monthPrincipal += extra
			applied += extra

			if open[idx].balance <= constants.CurrencyTolerance {
				result.DebtsRetired++
				open = append(open[:idx], open[idx+1:]...)
			}
		}

		totalInterest += monthInterest

		var remainingBalance float64
		for i := range open {
			remainingBalance += open[i].balance
		}

		result.Timeline = append(result.Timeline, MonthEntry{
			Month:            month,
			RemainingBalance: mathutil.Round(remainingBalance),
			PaymentApplied:   mathutil.Round(applied),
			InterestPaid:     mathutil.Round(monthInterest),
			PrincipalPaid:    mathutil.Round(monthPrincipal),
			DebtsRemaining:   len(open),
		})
	}

	result.MonthsToDebtFree = month
	result.TotalInterestPaid = mathutil.Round(totalInterest)
	result.TotalPaid = mathutil.Round(debt.TotalBalance(debts) + totalInterest)
	result.DebtFreeDate = s.now().
		AddDate(0, 0, month*constants.DaysPerMonth).
		Format(constants.DateLayout)

	return result, nil
}

// orderedWorkingSet clones the snapshot into mutable working debts sorted by
// strategy priority. Ties break on debt ID so identical inputs always yield
// identical results.
func (s *Simulator) orderedWorkingSet(debts []debt.Debt, strategy Strategy) []workingDebt {
	open := make([]workingDebt, len(debts))
	for i, d := range debts {
		open[i] = workingDebt{Debt: d, balance: d.CurrentBalance}
	}
	sort.SliceStable(open, func(i, j int) bool {
		if strategy == StrategySnowball {
			if open[i].CurrentBalance != open[j].CurrentBalance {
				return open[i].CurrentBalance < open[j].CurrentBalance
			}
		} else {
			if open[i].InterestRate != open[j].InterestRate {
				return open[i].InterestRate > open[j].InterestRate
			}
		}
		return open[i].ID < open[j].ID
	})
	return open
}

// targetIndex picks the debt that receives leftover budget: an explicit
// override takes precedence when that debt is still open, otherwise the
// first debt in strategy order.
func (s *Simulator) targetIndex(open []workingDebt, targetID string) int {
	if targetID != "" {
		for i := range open {
			if open[i].ID == targetID {
				return i
			}
		}
	}
	return 0
}
