// Package store persists debt snapshots and borrower profiles keyed by
// subject. A memory implementation backs tests and single-process use;
// a Redis implementation backs shared deployments.
package store

import (
	"context"
	"errors"

	"github.com/debtease/planner/internal/debt"
)

// ErrNotFound indicates no record exists for the subject.
var ErrNotFound = errors.New("subject not found")

// ErrUnavailable indicates the backing store could not be reached.
var ErrUnavailable = errors.New("debt store unavailable")

// Profile holds per-subject planning inputs that are not debts.
type Profile struct {
	SubjectID     string  `json:"subject_id"`
	MonthlyIncome float64 `json:"monthly_income"`
	MonthlyBudget float64 `json:"monthly_budget,omitempty"`
}

// DebtStore is the persistence surface the planner reads from and
// writes to.
type DebtStore interface {
	DebtsBySubject(ctx context.Context, subjectID string) ([]debt.Debt, error)
	SaveDebts(ctx context.Context, subjectID string, debts []debt.Debt) error
	Profile(ctx context.Context, subjectID string) (Profile, error)
	SaveProfile(ctx context.Context, profile Profile) error
}
