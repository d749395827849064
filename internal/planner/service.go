package planner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/internal/dti"
	"github.com/debtease/planner/internal/pipeline"
	"github.com/debtease/planner/internal/simulation"
	"github.com/debtease/planner/internal/store"
)

// ErrValidation marks caller-correctable input errors.
var ErrValidation = errors.New("invalid input")

// Service is the application surface the HTTP layer calls. It wires the
// store, the orchestrator, and the insight pipeline together.
type Service struct {
	store        store.DebtStore
	orchestrator *Orchestrator
	pipeline     *pipeline.Pipeline
	simulator    *simulation.Simulator
	dtiAnalyzer  *dti.Analyzer
	logger       *zap.Logger
}

// NewService constructs a Service.
func NewService(
	st store.DebtStore,
	orchestrator *Orchestrator,
	insightPipeline *pipeline.Pipeline,
	simulator *simulation.Simulator,
	dtiAnalyzer *dti.Analyzer,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        st,
		orchestrator: orchestrator,
		pipeline:     insightPipeline,
		simulator:    simulator,
		dtiAnalyzer:  dtiAnalyzer,
		logger:       logger,
	}
}

// GetInsights runs the insight pipeline for the subject.
func (s *Service) GetInsights(ctx context.Context, subjectID string) (*pipeline.Insights, error) {
	return s.pipeline.Run(ctx, subjectID)
}

// GetPlan loads the subject's debts and produces a plan through the
// orchestrator.
func (s *Service) GetPlan(ctx context.Context, subjectID string, params Params) (*Plan, error) {
	debts, err := s.store.DebtsBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.GetPlan(ctx, subjectID, debts, params)
}

// CompareStrategies runs both strategies over the subject's debts at the
// given budget. Zero budget resolves to the default budget.
func (s *Service) CompareStrategies(ctx context.Context, subjectID string, monthlyBudget float64) (simulation.Comparison, error) {
	debts, err := s.store.DebtsBySubject(ctx, subjectID)
	if err != nil {
		return simulation.Comparison{}, err
	}
	return s.simulator.Compare(debts, EffectiveBudget(monthlyBudget, debts))
}

// ScenarioOutcome pairs one simulation request with its result or its
// failure. One bad scenario never fails the batch.
type ScenarioOutcome struct {
	Scenario simulation.Scenario `json:"scenario"`
	Result   *simulation.Result  `json:"result,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Simulate runs each scenario independently over the subject's debts.
func (s *Service) Simulate(ctx context.Context, subjectID string, scenarios []simulation.Scenario) ([]ScenarioOutcome, error) {
	debts, err := s.store.DebtsBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]ScenarioOutcome, 0, len(scenarios))
	for _, sc := range scenarios {
		outcome := ScenarioOutcome{Scenario: sc}
		result, err := s.simulator.Simulate(debts, sc)
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Result = &result
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// CalculateDTI computes the subject's debt-to-income result using the
// income from their profile.
func (s *Service) CalculateDTI(ctx context.Context, subjectID string) (*dti.Result, error) {
	debts, err := s.store.DebtsBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.Profile(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.dtiAnalyzer.Analyze(profile.MonthlyIncome, debts)
}

// UpdateDebts replaces the subject's debt snapshot and invalidates any
// cached plans built from the previous snapshot.
func (s *Service) UpdateDebts(ctx context.Context, subjectID string, debts []debt.Debt) error {
	for i, d := range debts {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: debt %d: %v", ErrValidation, i, err)
		}
	}
	if err := s.store.SaveDebts(ctx, subjectID, debts); err != nil {
		return err
	}
	removed := s.orchestrator.Invalidate(subjectID)
	s.logger.Info("debts updated",
		zap.String("op", "planner.Service.UpdateDebts"),
		zap.String("subject_id", subjectID),
		zap.Int("debts", len(debts)),
		zap.Int("plans_invalidated", removed),
	)
	return nil
}

// UpdateProfile stores the subject's profile.
func (s *Service) UpdateProfile(ctx context.Context, profile store.Profile) error {
	if profile.SubjectID == "" {
		return fmt.Errorf("%w: profile missing subject_id", ErrValidation)
	}
	return s.store.SaveProfile(ctx, profile)
}

// InvalidatePlans drops cached plans for the subject.
func (s *Service) InvalidatePlans(subjectID string) int {
	return s.orchestrator.Invalidate(subjectID)
}
