// Package pipeline runs the insight generation pipeline: a fixed
// sequence of stages folding over shared state. Stage failures are
// accumulated, never fatal; a downstream stage whose inputs are missing
// skips itself so one bad collaborator degrades the output instead of
// erasing it.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/debtease/planner/internal/advisory"
	"github.com/debtease/planner/internal/analysis"
	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/internal/dti"
	"github.com/debtease/planner/internal/simulation"
	"github.com/debtease/planner/internal/store"
	"github.com/debtease/planner/pkg/constants"
	"github.com/debtease/planner/pkg/mathutil"
)

// RecommendationSource is the advisory surface the pipeline needs.
type RecommendationSource interface {
	Recommendations(ctx context.Context, req advisory.Request) (*advisory.RecommendationSet, error)
}

// State is threaded through the stages. Each stage reads what upstream
// stages produced and adds its own output.
type State struct {
	SubjectID string
	Debts     []debt.Debt
	Profile   store.Profile

	Portfolio       *analysis.Portfolio
	Recommendations *advisory.RecommendationSet
	DTI             *dti.Result
	Comparison      *simulation.Comparison

	Errors  []string
	Started time.Time
}

// Insights is the compiled pipeline output.
type Insights struct {
	SubjectID string `json:"subject_id"`

	Portfolio       *analysis.Portfolio         `json:"analysis,omitempty"`
	Recommendations *advisory.RecommendationSet `json:"recommendations,omitempty"`
	DTI             *dti.Result                 `json:"dti,omitempty"`
	Comparison      *simulation.Comparison      `json:"strategy_comparison,omitempty"`

	// TimelinePreview is the last stretch of the recommended strategy's
	// payoff timeline.
	TimelinePreview []simulation.MonthEntry `json:"timeline_preview,omitempty"`

	Degraded bool     `json:"degraded"`
	Errors   []string `json:"errors,omitempty"`

	GeneratedAt time.Time     `json:"generated_at"`
	Elapsed     time.Duration `json:"elapsed"`
}

type stage struct {
	name string
	run  func(ctx context.Context, st *State)
}

// Pipeline generates insights for one subject per Run call. Safe for
// concurrent use.
type Pipeline struct {
	store     store.DebtStore
	analyzer  *analysis.Analyzer
	dti       *dti.Analyzer
	simulator *simulation.Simulator
	advisory  RecommendationSource
	logger    *zap.Logger
}

// New constructs a Pipeline. A nil advisory source records the advisory
// stage as failed rather than calling out.
func New(
	st store.DebtStore,
	analyzer *analysis.Analyzer,
	dtiAnalyzer *dti.Analyzer,
	simulator *simulation.Simulator,
	advisorySource RecommendationSource,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:     st,
		analyzer:  analyzer,
		dti:       dtiAnalyzer,
		simulator: simulator,
		advisory:  advisorySource,
		logger:    logger,
	}
}

// Run executes the stage sequence for the subject and compiles the
// result. Only a cancelled context aborts the run; everything else is
// reported inside the Insights.
func (p *Pipeline) Run(ctx context.Context, subjectID string) (*Insights, error) {
	st := &State{SubjectID: subjectID, Started: time.Now()}

	stages := []stage{
		{"ingestion", p.ingest},
		{"analysis", p.analyze},
		{"advisory", p.advise},
		{"dti", p.calculateDTI},
		{"optimization", p.optimize},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline for %q: %w", subjectID, err)
		}
		s.run(ctx, st)
	}

	return p.compile(st), nil
}

func (st *State) fail(stageName string, err error) {
	st.Errors = append(st.Errors, fmt.Sprintf("%s: %v", stageName, err))
}

func (p *Pipeline) ingest(ctx context.Context, st *State) {
	debts, err := p.store.DebtsBySubject(ctx, st.SubjectID)
	if err != nil {
		st.fail("ingestion", err)
		return
	}
	st.Debts = debts

	profile, err := p.store.Profile(ctx, st.SubjectID)
	if err != nil {
		// Planning works without a profile; DTI will skip itself.
		st.fail("ingestion", fmt.Errorf("profile: %w", err))
		return
	}
	st.Profile = profile
}

func (p *Pipeline) analyze(_ context.Context, st *State) {
	if st.Debts == nil {
		return
	}
	portfolio := p.analyzer.Analyze(st.Debts)
	st.Portfolio = &portfolio
}

func (p *Pipeline) advise(ctx context.Context, st *State) {
	if st.Portfolio == nil {
		return
	}
	if p.advisory == nil {
		st.fail("advisory", fmt.Errorf("no advisory source configured"))
		return
	}
	set, err := p.advisory.Recommendations(ctx, advisory.Request{
		Debts:    st.Debts,
		Analysis: *st.Portfolio,
	})
	if err != nil {
		st.fail("advisory", err)
		return
	}
	st.Recommendations = set
}

func (p *Pipeline) calculateDTI(_ context.Context, st *State) {
	if st.Debts == nil || st.Profile.MonthlyIncome <= 0 {
		return
	}
	result, err := p.dti.Analyze(st.Profile.MonthlyIncome, st.Debts)
	if err != nil {
		st.fail("dti", err)
		return
	}
	st.DTI = result
}

func (p *Pipeline) optimize(_ context.Context, st *State) {
	if len(st.Debts) == 0 {
		return
	}
	cmp, err := p.simulator.Compare(st.Debts, p.budget(st))
	if err != nil {
		st.fail("optimization", err)
		return
	}
	st.Comparison = &cmp
}

// budget resolves the comparison budget: the profile budget when set,
// floored at the minimums, and the default factor over the minimums
// otherwise.
func (p *Pipeline) budget(st *State) float64 {
	minimums := debt.TotalMonthlyMinimums(st.Debts)
	if st.Profile.MonthlyBudget > 0 {
		return mathutil.Max(st.Profile.MonthlyBudget, minimums)
	}
	return mathutil.Round(minimums * constants.DefaultBudgetFactor)
}

func (p *Pipeline) compile(st *State) *Insights {
	out := &Insights{
		SubjectID:       st.SubjectID,
		Portfolio:       st.Portfolio,
		Recommendations: st.Recommendations,
		DTI:             st.DTI,
		Comparison:      st.Comparison,
		Degraded:        len(st.Errors) > 0,
		Errors:          st.Errors,
		GeneratedAt:     st.Started,
		Elapsed:         time.Since(st.Started),
	}
	if st.Comparison != nil {
		recommended := st.Comparison.Avalanche
		if st.Comparison.Recommended == simulation.StrategySnowball {
			recommended = st.Comparison.Snowball
		}
		out.TimelinePreview = recommended.Tail(constants.TimelinePreviewMonths)
	}

	p.logger.Info("insights compiled",
		zap.String("op", "pipeline.Run"),
		zap.String("subject_id", st.SubjectID),
		zap.Bool("degraded", out.Degraded),
		zap.Int("errors", len(st.Errors)),
		zap.Duration("elapsed", out.Elapsed),
	)
	return out
}
