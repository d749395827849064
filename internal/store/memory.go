package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/debtease/planner/internal/debt"
)

// MemoryStore is an in-process DebtStore. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	debts    map[string][]debt.Debt
	profiles map[string]Profile
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		debts:    make(map[string][]debt.Debt),
		profiles: make(map[string]Profile),
	}
}

// DebtsBySubject returns a copy of the subject's debt snapshot.
func (s *MemoryStore) DebtsBySubject(_ context.Context, subjectID string) ([]debt.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts, ok := s.debts[subjectID]
	if !ok {
		return nil, fmt.Errorf("debts for %q: %w", subjectID, ErrNotFound)
	}
	return debt.Clone(debts), nil
}

// SaveDebts replaces the subject's debt snapshot.
func (s *MemoryStore) SaveDebts(_ context.Context, subjectID string, debts []debt.Debt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debts[subjectID] = debt.Clone(debts)
	return nil
}

// Profile returns the subject's profile.
func (s *MemoryStore) Profile(_ context.Context, subjectID string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[subjectID]
	if !ok {
		return Profile{}, fmt.Errorf("profile for %q: %w", subjectID, ErrNotFound)
	}
	return p, nil
}

// SaveProfile stores the subject's profile keyed by its SubjectID.
func (s *MemoryStore) SaveProfile(_ context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.SubjectID] = profile
	return nil
}
