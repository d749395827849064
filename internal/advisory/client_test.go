package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"

	"github.com/debtease/planner/internal/debt"
)

func advisoryTestRequest() Request {
	return Request{
		Debts: []debt.Debt{
			{ID: "card", Name: "Card", CurrentBalance: 4500, InterestRate: 22.5, MinimumPayment: 135, Frequency: debt.FrequencyMonthly, Category: debt.CategoryCreditCard},
		},
	}
}

func completionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system then user", req.Messages)
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: content}})
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode chat response: %v", err)
		}
	}))
}

func TestRecommendationsRoundTrip(t *testing.T) {
	srv := completionServer(t, "```json\n"+validRecommendationsJSON+"\n```", http.StatusOK)
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Model: "test-model"}, nil)
	set, err := c.Recommendations(context.Background(), advisoryTestRequest())
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if set.OverallStrategy != "avalanche" {
		t.Errorf("OverallStrategy = %s, want avalanche", set.OverallStrategy)
	}
}

func TestRepaymentPlanRoundTrip(t *testing.T) {
	srv := completionServer(t, validRepaymentPlanJSON, http.StatusOK)
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	plan, err := c.RepaymentPlan(context.Background(), advisoryTestRequest())
	if err != nil {
		t.Fatalf("RepaymentPlan() error = %v", err)
	}
	if plan.TimeToDebtFree != 31 {
		t.Errorf("TimeToDebtFree = %d, want 31", plan.TimeToDebtFree)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := completionServer(t, "", http.StatusBadGateway)
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	_, err := c.Recommendations(context.Background(), advisoryTestRequest())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestMalformedPayloadIsNormalizationError(t *testing.T) {
	srv := completionServer(t, "I cannot help with that.", http.StatusOK)
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	_, err := c.Recommendations(context.Background(), advisoryTestRequest())
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("error = %v, want NormalizationError", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("malformed payload mistaken for transport failure")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := completionServer(t, "", http.StatusInternalServerError)
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		if _, err := c.Recommendations(ctx, advisoryTestRequest()); err == nil {
			t.Fatal("expected failure from failing upstream")
		}
	}

	_, err := c.Recommendations(ctx, advisoryTestRequest())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error after repeated failures = %v, want ErrUnavailable", err)
	}
	if got := c.BreakerState(); got != gobreaker.StateOpen {
		t.Errorf("BreakerState = %s, want open", got)
	}
}

func TestEmptyCompletionIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(chatResponse{}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	if _, err := c.RepaymentPlan(context.Background(), advisoryTestRequest()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}
