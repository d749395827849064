package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Producer is one named plan source tried by the fallback executor.
type Producer struct {
	Name     string
	Generate func(ctx context.Context) (*Plan, error)
}

// FallbackExecutor tries producers in order. Each attempt runs under its
// own timeout; a timeout counts as that producer's failure, not the
// caller's. A fixed delay separates consecutive attempts.
type FallbackExecutor struct {
	attemptTimeout time.Duration
	attemptDelay   time.Duration
	logger         *zap.Logger
}

// NewFallbackExecutor constructs a FallbackExecutor. A non-positive
// timeout falls back to 30s per attempt; a zero delay disables the
// pause between attempts.
func NewFallbackExecutor(attemptTimeout, attemptDelay time.Duration, logger *zap.Logger) *FallbackExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 30 * time.Second
	}
	if attemptDelay < 0 {
		attemptDelay = 0
	}
	return &FallbackExecutor{
		attemptTimeout: attemptTimeout,
		attemptDelay:   attemptDelay,
		logger:         logger,
	}
}

// Execute runs producers in order and returns the first success along
// with the failures that preceded it. When every producer fails, the
// guaranteed producer supplies the plan; it takes no deadline and must
// not fail. The returned reasons are in attempt order, one per failed
// producer.
func (e *FallbackExecutor) Execute(
	ctx context.Context,
	producers []Producer,
	guaranteed func() (*Plan, error),
) (*Plan, []string, error) {
	var reasons []string

	for i, p := range producers {
		if i > 0 && e.attemptDelay > 0 {
			select {
			case <-time.After(e.attemptDelay):
			case <-ctx.Done():
				return nil, reasons, ctx.Err()
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		plan, err := p.Generate(attemptCtx)
		cancel()

		if err == nil && plan != nil {
			e.logger.Info("plan produced",
				zap.String("op", "planner.FallbackExecutor.Execute"),
				zap.String("producer", p.Name),
				zap.Int("failed_attempts", len(reasons)),
			)
			return plan, reasons, nil
		}
		if err == nil {
			err = fmt.Errorf("producer returned no plan")
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", p.Name, err))
		e.logger.Warn("plan producer failed",
			zap.String("op", "planner.FallbackExecutor.Execute"),
			zap.String("producer", p.Name),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			return nil, reasons, ctx.Err()
		}
	}

	plan, err := guaranteed()
	if err != nil {
		return nil, reasons, fmt.Errorf("guaranteed producer failed: %w", err)
	}
	return plan, reasons, nil
}
