package advisory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizationError reports why an advisory payload was rejected. A
// payload is accepted whole or rejected whole; nothing is defaulted in.
type NormalizationError struct {
	Document string
	Issues   []string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Document, strings.Join(e.Issues, "; "))
}

// stripCodeFence removes a surrounding markdown code fence, with or
// without a language tag, from a model response.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// anything before the first newline is a language tag
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NormalizeRecommendations parses and validates a raw model response as
// a recommendation set. Any missing field, empty mandatory list, or
// out-of-range value rejects the whole payload with a NormalizationError.
func NormalizeRecommendations(raw string) (*RecommendationSet, error) {
	cleaned := stripCodeFence(raw)

	var w wireRecommendationSet
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return nil, &NormalizationError{
			Document: "recommendation set",
			Issues:   []string{fmt.Sprintf("invalid JSON: %v", err)},
		}
	}

	var issues []string
	if w.Recommendations == nil {
		issues = append(issues, "missing recommendations")
	} else if len(*w.Recommendations) == 0 {
		issues = append(issues, "empty recommendations")
	}
	if w.OverallStrategy == nil || *w.OverallStrategy == "" {
		issues = append(issues, "missing overall_strategy")
	}
	if w.PriorityOrder == nil {
		issues = append(issues, "missing priority_order")
	} else if len(*w.PriorityOrder) == 0 {
		issues = append(issues, "empty priority_order")
	}
	if w.EstimatedImpact == nil || *w.EstimatedImpact == "" {
		issues = append(issues, "missing estimated_impact")
	}

	set := &RecommendationSet{}
	if w.Recommendations != nil {
		for i, wr := range *w.Recommendations {
			rec, recIssues := normalizeRecommendation(i, wr)
			if len(recIssues) > 0 {
				issues = append(issues, recIssues...)
				continue
			}
			set.Recommendations = append(set.Recommendations, rec)
		}
	}
	if len(issues) > 0 {
		return nil, &NormalizationError{Document: "recommendation set", Issues: issues}
	}

	set.OverallStrategy = *w.OverallStrategy
	set.PriorityOrder = *w.PriorityOrder
	set.EstimatedImpact = *w.EstimatedImpact
	return set, nil
}

func normalizeRecommendation(i int, w wireRecommendation) (Recommendation, []string) {
	var issues []string
	if w.ID == nil || *w.ID == "" {
		issues = append(issues, fmt.Sprintf("recommendations[%d]: missing id", i))
	}
	if w.Type == nil || *w.Type == "" {
		issues = append(issues, fmt.Sprintf("recommendations[%d]: missing recommendation_type", i))
	}
	if w.Title == nil || *w.Title == "" {
		issues = append(issues, fmt.Sprintf("recommendations[%d]: missing title", i))
	}
	if w.Description == nil || *w.Description == "" {
		issues = append(issues, fmt.Sprintf("recommendations[%d]: missing description", i))
	}
	if w.PriorityScore == nil {
		issues = append(issues, fmt.Sprintf("recommendations[%d]: missing priority_score", i))
	} else if *w.PriorityScore < 1 || *w.PriorityScore > 10 {
		issues = append(issues, fmt.Sprintf("recommendations[%d]: priority_score %d out of range 1-10", i, *w.PriorityScore))
	}
	if len(issues) > 0 {
		return Recommendation{}, issues
	}

	rec := Recommendation{
		ID:            *w.ID,
		Type:          *w.Type,
		Title:         *w.Title,
		Description:   *w.Description,
		PriorityScore: *w.PriorityScore,
	}
	if w.PotentialSavings != nil {
		rec.PotentialSavings = *w.PotentialSavings
	}
	return rec, nil
}

// NormalizeRepaymentPlan parses and validates a raw model response as a
// repayment plan. Any missing field or empty mandatory list rejects the
// whole payload with a NormalizationError.
func NormalizeRepaymentPlan(raw string) (*RepaymentPlan, error) {
	cleaned := stripCodeFence(raw)

	var w wireRepaymentPlan
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return nil, &NormalizationError{
			Document: "repayment plan",
			Issues:   []string{fmt.Sprintf("invalid JSON: %v", err)},
		}
	}

	var issues []string
	if w.Strategy == nil || *w.Strategy == "" {
		issues = append(issues, "missing strategy")
	}
	if w.MonthlyPaymentAmount == nil {
		issues = append(issues, "missing monthly_payment_amount")
	}
	if w.TotalDebt == nil {
		issues = append(issues, "missing total_debt")
	}
	if w.TimeToDebtFree == nil {
		issues = append(issues, "missing time_to_debt_free")
	} else if *w.TimeToDebtFree < 0 {
		issues = append(issues, fmt.Sprintf("time_to_debt_free %d is negative", *w.TimeToDebtFree))
	}
	if w.TotalInterestSaved == nil {
		issues = append(issues, "missing total_interest_saved")
	}
	if w.DebtOrder == nil {
		issues = append(issues, "missing debt_order")
	} else if len(*w.DebtOrder) == 0 {
		issues = append(issues, "empty debt_order")
	}
	if w.KeyInsights == nil {
		issues = append(issues, "missing key_insights")
	} else if len(*w.KeyInsights) == 0 {
		issues = append(issues, "empty key_insights")
	}
	if w.ActionItems == nil {
		issues = append(issues, "missing action_items")
	} else if len(*w.ActionItems) == 0 {
		issues = append(issues, "empty action_items")
	}
	if w.RiskFactors == nil {
		issues = append(issues, "missing risk_factors")
	} else if len(*w.RiskFactors) == 0 {
		issues = append(issues, "empty risk_factors")
	}

	plan := &RepaymentPlan{}
	if w.PrimaryStrategy == nil {
		issues = append(issues, "missing primary_strategy")
	} else {
		detail, detailIssues := normalizeStrategyDetail("primary_strategy", *w.PrimaryStrategy)
		if len(detailIssues) > 0 {
			issues = append(issues, detailIssues...)
		} else {
			plan.PrimaryStrategy = detail
		}
	}
	if w.AlternativeStrategies != nil {
		for i, ws := range *w.AlternativeStrategies {
			detail, detailIssues := normalizeStrategyDetail(fmt.Sprintf("alternative_strategies[%d]", i), ws)
			if len(detailIssues) > 0 {
				issues = append(issues, detailIssues...)
				continue
			}
			plan.AlternativeStrategies = append(plan.AlternativeStrategies, detail)
		}
	}

	if len(issues) > 0 {
		return nil, &NormalizationError{Document: "repayment plan", Issues: issues}
	}

	plan.Strategy = *w.Strategy
	plan.MonthlyPaymentAmount = *w.MonthlyPaymentAmount
	plan.TotalDebt = *w.TotalDebt
	plan.TimeToDebtFree = *w.TimeToDebtFree
	plan.TotalInterestSaved = *w.TotalInterestSaved
	plan.DebtOrder = *w.DebtOrder
	plan.KeyInsights = *w.KeyInsights
	plan.ActionItems = *w.ActionItems
	plan.RiskFactors = *w.RiskFactors
	return plan, nil
}

func normalizeStrategyDetail(path string, w wireStrategyDetail) (StrategyDetail, []string) {
	var issues []string
	if w.Name == nil || *w.Name == "" {
		issues = append(issues, path+": missing name")
	}
	if w.Description == nil || *w.Description == "" {
		issues = append(issues, path+": missing description")
	}
	if w.Reasoning == nil || *w.Reasoning == "" {
		issues = append(issues, path+": missing reasoning")
	}
	if len(issues) > 0 {
		return StrategyDetail{}, issues
	}

	detail := StrategyDetail{
		Name:        *w.Name,
		Description: *w.Description,
		Reasoning:   *w.Reasoning,
	}
	if w.Benefits != nil {
		detail.Benefits = *w.Benefits
	}
	if w.Drawbacks != nil {
		detail.Drawbacks = *w.Drawbacks
	}
	return detail, nil
}
