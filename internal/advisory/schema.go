// Package advisory talks to a language-model advisory service and
// normalizes its free-form output into validated planning documents.
package advisory

// Recommendation is one normalized advisory suggestion.
type Recommendation struct {
	ID               string  `json:"id"`
	Type             string  `json:"recommendation_type"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	PotentialSavings float64 `json:"potential_savings,omitempty"`
	PriorityScore    int     `json:"priority_score"`
}

// RecommendationSet is a validated advisory recommendation document.
type RecommendationSet struct {
	Recommendations []Recommendation `json:"recommendations"`
	OverallStrategy string           `json:"overall_strategy"`
	PriorityOrder   []string         `json:"priority_order"`
	EstimatedImpact string           `json:"estimated_impact"`
}

// StrategyDetail describes one repayment strategy in a plan.
type StrategyDetail struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
	Drawbacks   []string `json:"drawbacks"`
	Reasoning   string   `json:"reasoning"`
}

// RepaymentPlan is a validated advisory repayment plan document.
type RepaymentPlan struct {
	Strategy              string           `json:"strategy"`
	MonthlyPaymentAmount  float64          `json:"monthly_payment_amount"`
	TotalDebt             float64          `json:"total_debt"`
	TimeToDebtFree        int              `json:"time_to_debt_free"`
	TotalInterestSaved    float64          `json:"total_interest_saved"`
	DebtOrder             []string         `json:"debt_order"`
	PrimaryStrategy       StrategyDetail   `json:"primary_strategy"`
	AlternativeStrategies []StrategyDetail `json:"alternative_strategies"`
	KeyInsights           []string         `json:"key_insights"`
	ActionItems           []string         `json:"action_items"`
	RiskFactors           []string         `json:"risk_factors"`
}

// wire counterparts use pointers so that absent fields are
// distinguishable from zero values during validation.

type wireRecommendation struct {
	ID               *string  `json:"id"`
	Type             *string  `json:"recommendation_type"`
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	PotentialSavings *float64 `json:"potential_savings"`
	PriorityScore    *int     `json:"priority_score"`
}

type wireRecommendationSet struct {
	Recommendations *[]wireRecommendation `json:"recommendations"`
	OverallStrategy *string               `json:"overall_strategy"`
	PriorityOrder   *[]string             `json:"priority_order"`
	EstimatedImpact *string               `json:"estimated_impact"`
}

type wireStrategyDetail struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Benefits    *[]string `json:"benefits"`
	Drawbacks   *[]string `json:"drawbacks"`
	Reasoning   *string   `json:"reasoning"`
}

type wireRepaymentPlan struct {
	Strategy              *string               `json:"strategy"`
	MonthlyPaymentAmount  *float64              `json:"monthly_payment_amount"`
	TotalDebt             *float64              `json:"total_debt"`
	TimeToDebtFree        *int                  `json:"time_to_debt_free"`
	TotalInterestSaved    *float64              `json:"total_interest_saved"`
	DebtOrder             *[]string             `json:"debt_order"`
	PrimaryStrategy       *wireStrategyDetail   `json:"primary_strategy"`
	AlternativeStrategies *[]wireStrategyDetail `json:"alternative_strategies"`
	KeyInsights           *[]string             `json:"key_insights"`
	ActionItems           *[]string             `json:"action_items"`
	RiskFactors           *[]string             `json:"risk_factors"`
}
