package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/debtease/planner/internal/analysis"
	"github.com/debtease/planner/internal/debt"
)

// ErrUnavailable indicates the advisory service could not produce a
// usable response: transport failure, non-200 status, empty completion,
// or an open circuit breaker.
var ErrUnavailable = errors.New("advisory service unavailable")

// Config holds the advisory service connection settings.
type Config struct {
	URL       string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Request is the planning context sent with every advisory call.
type Request struct {
	Debts    []debt.Debt        `json:"debts"`
	Analysis analysis.Portfolio `json:"analysis"`
	Context  map[string]string  `json:"context,omitempty"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client calls a chat-completion advisory service and normalizes its
// output. All calls run through a circuit breaker so a degraded service
// fails fast instead of stacking timeouts.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient constructs a Client. Zero Timeout defaults to 30s.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URL == "" {
		cfg.URL = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "advisory",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("advisory circuit state change",
				zap.String("op", "advisory.breaker"),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// Recommendations asks the advisory service for debt recommendations and
// normalizes the response. Returns ErrUnavailable for transport-level
// failures and a NormalizationError for malformed payloads.
func (c *Client) Recommendations(ctx context.Context, req Request) (*RecommendationSet, error) {
	raw, err := c.complete(ctx, recommendationsSystemPrompt, req)
	if err != nil {
		return nil, err
	}
	set, err := NormalizeRecommendations(raw)
	if err != nil {
		c.logger.Warn("advisory recommendations rejected",
			zap.String("op", "advisory.Recommendations"),
			zap.Error(err),
		)
		return nil, err
	}
	return set, nil
}

// RepaymentPlan asks the advisory service for a repayment plan and
// normalizes the response.
func (c *Client) RepaymentPlan(ctx context.Context, req Request) (*RepaymentPlan, error) {
	raw, err := c.complete(ctx, repaymentPlanSystemPrompt, req)
	if err != nil {
		return nil, err
	}
	plan, err := NormalizeRepaymentPlan(raw)
	if err != nil {
		c.logger.Warn("advisory repayment plan rejected",
			zap.String("op", "advisory.RepaymentPlan"),
			zap.Error(err),
		)
		return nil, err
	}
	return plan, nil
}

func (c *Client) complete(ctx context.Context, systemPrompt string, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal advisory request: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.callService(ctx, systemPrompt, string(payload))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *Client) callService(ctx context.Context, systemPrompt, userContent string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build advisory request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(snippet))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return chat.Choices[0].Message.Content, nil
}

// BreakerState exposes the current circuit state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

const recommendationsSystemPrompt = `You are a debt advisor. Given the user's debts and portfolio analysis, respond with ONLY a JSON object, no prose and no markdown fence, shaped as:
{"recommendations": [{"id": string, "recommendation_type": string, "title": string, "description": string, "potential_savings": number, "priority_score": integer 1-10}], "overall_strategy": string, "priority_order": [debt ids], "estimated_impact": string}`

const repaymentPlanSystemPrompt = `You are a debt advisor. Given the user's debts and portfolio analysis, respond with ONLY a JSON object, no prose and no markdown fence, shaped as:
{"strategy": string, "monthly_payment_amount": number, "total_debt": number, "time_to_debt_free": integer months, "total_interest_saved": number, "debt_order": [debt ids], "primary_strategy": {"name": string, "description": string, "benefits": [string], "drawbacks": [string], "reasoning": string}, "alternative_strategies": [same shape], "key_insights": [string], "action_items": [string], "risk_factors": [string]}`
