package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/debtease/planner/internal/advisory"
	"github.com/debtease/planner/internal/analysis"
	"github.com/debtease/planner/internal/cache"
	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/internal/simulation"
)

// AdvisoryClient is the surface of the advisory service the orchestrator
// needs.
type AdvisoryClient interface {
	RepaymentPlan(ctx context.Context, req advisory.Request) (*advisory.RepaymentPlan, error)
	Recommendations(ctx context.Context, req advisory.Request) (*advisory.RecommendationSet, error)
}

// Orchestrator produces plans through an ordered producer chain and
// caches compiled plans per subject and input fingerprint. Advisory
// failures degrade the plan, never the request.
type Orchestrator struct {
	advisoryClient AdvisoryClient
	deterministic  *Deterministic
	analyzer       *analysis.Analyzer
	executor       *FallbackExecutor
	planCache      *cache.TTLCache
	logger         *zap.Logger
}

// OrchestratorConfig tunes producer attempts and plan caching.
type OrchestratorConfig struct {
	AttemptTimeout time.Duration
	AttemptDelay   time.Duration
	CacheTTL       time.Duration

	// Clock overrides the cache clock, for deterministic expiry in tests.
	Clock func() time.Time
}

// DefaultCacheTTL is how long a compiled plan stays valid.
const DefaultCacheTTL = 300 * time.Second

// NewOrchestrator constructs an Orchestrator. A nil advisoryClient skips
// the advisory producers entirely and plans deterministically.
func NewOrchestrator(
	advisoryClient AdvisoryClient,
	deterministic *Deterministic,
	analyzer *analysis.Analyzer,
	cfg OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Orchestrator{
		advisoryClient: advisoryClient,
		deterministic:  deterministic,
		analyzer:       analyzer,
		executor:       NewFallbackExecutor(cfg.AttemptTimeout, cfg.AttemptDelay, logger),
		planCache:      cache.NewWithClock(cfg.CacheTTL, cfg.Clock),
		logger:         logger,
	}
}

// simulationStrategy maps an advisory strategy string onto a known
// strategy, keeping the deterministic choice when the string is neither.
func simulationStrategy(s string, fallback simulation.Strategy) simulation.Strategy {
	switch simulation.Strategy(s) {
	case simulation.StrategyAvalanche:
		return simulation.StrategyAvalanche
	case simulation.StrategySnowball:
		return simulation.StrategySnowball
	default:
		return fallback
	}
}

func (o *Orchestrator) cacheKey(subjectID string, params Params, debts []debt.Debt) string {
	return subjectID + "|" + params.Fingerprint(debts)
}

// GetPlan returns the cached plan for this subject and input snapshot,
// or builds one through the producer chain: advisory repayment plan,
// then advisory recommendations grafted onto deterministic figures,
// then the fully deterministic plan.
func (o *Orchestrator) GetPlan(ctx context.Context, subjectID string, debts []debt.Debt, params Params) (*Plan, error) {
	if len(debts) == 0 {
		return nil, fmt.Errorf("plan for %q: no debts", subjectID)
	}

	key := o.cacheKey(subjectID, params, debts)
	if cached, ok := o.planCache.Get(key); ok {
		o.logger.Debug("plan served from cache",
			zap.String("op", "planner.Orchestrator.GetPlan"),
			zap.String("subject_id", subjectID),
		)
		return cached.(*Plan), nil
	}

	req := advisory.Request{
		Debts:    debts,
		Analysis: o.analyzer.Analyze(debts),
	}

	var producers []Producer
	if o.advisoryClient != nil {
		producers = []Producer{
			{Name: string(SourceAdvisoryPrimary), Generate: func(ctx context.Context) (*Plan, error) {
				return o.advisoryPrimary(ctx, subjectID, debts, params, req)
			}},
			{Name: string(SourceAdvisorySecondary), Generate: func(ctx context.Context) (*Plan, error) {
				return o.advisorySecondary(ctx, subjectID, debts, params, req)
			}},
		}
	}

	plan, reasons, err := o.executor.Execute(ctx, producers, func() (*Plan, error) {
		p, err := o.deterministic.Plan(subjectID, debts, params)
		if err != nil {
			return nil, err
		}
		p.Source = SourceDeterministic
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("plan for %q: %w", subjectID, err)
	}

	plan.FailureReasons = reasons
	plan.Degraded = len(reasons) > 0

	o.planCache.Set(key, plan)
	return plan, nil
}

// advisoryPrimary builds a plan directly from an advisory repayment plan.
func (o *Orchestrator) advisoryPrimary(ctx context.Context, subjectID string, debts []debt.Debt, params Params, req advisory.Request) (*Plan, error) {
	doc, err := o.advisoryClient.RepaymentPlan(ctx, req)
	if err != nil {
		return nil, err
	}

	base, err := o.deterministic.Plan(subjectID, debts, params)
	if err != nil {
		return nil, err
	}

	base.Source = SourceAdvisoryPrimary
	base.Strategy = simulationStrategy(doc.Strategy, base.Strategy)
	base.Repayment = doc
	if len(doc.DebtOrder) > 0 {
		base.DebtOrder = doc.DebtOrder
	}
	base.KeyInsights = doc.KeyInsights
	base.ActionItems = doc.ActionItems
	base.RiskFactors = doc.RiskFactors
	return base, nil
}

// advisorySecondary keeps deterministic repayment figures but attaches
// advisory recommendations.
func (o *Orchestrator) advisorySecondary(ctx context.Context, subjectID string, debts []debt.Debt, params Params, req advisory.Request) (*Plan, error) {
	set, err := o.advisoryClient.Recommendations(ctx, req)
	if err != nil {
		return nil, err
	}

	base, err := o.deterministic.Plan(subjectID, debts, params)
	if err != nil {
		return nil, err
	}

	base.Source = SourceAdvisorySecondary
	base.Recommendations = set
	return base, nil
}

// Invalidate drops every cached plan for the subject and returns how
// many entries were removed. Called when the subject's debts change.
func (o *Orchestrator) Invalidate(subjectID string) int {
	removed := o.planCache.InvalidatePrefix(subjectID + "|")
	o.logger.Debug("plans invalidated",
		zap.String("op", "planner.Orchestrator.Invalidate"),
		zap.String("subject_id", subjectID),
		zap.Int("removed", removed),
	)
	return removed
}

// CacheStats exposes plan cache counters for health reporting.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.planCache.Stats()
}
