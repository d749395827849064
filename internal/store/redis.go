package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/debtease/planner/internal/debt"
)

const (
	debtKeyPrefix    = "debtease:debts:"
	profileKeyPrefix = "debtease:profile:"
)

// RedisStore is a Redis-backed DebtStore. Snapshots are stored as JSON
// under per-subject keys with no expiry; debts are the source of truth,
// not a cache.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore constructs a RedisStore around an existing client.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

// Ping verifies connectivity, typically at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DebtsBySubject loads and decodes the subject's debt snapshot.
func (s *RedisStore) DebtsBySubject(ctx context.Context, subjectID string) ([]debt.Debt, error) {
	raw, err := s.client.Get(ctx, debtKeyPrefix+subjectID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("debts for %q: %w", subjectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get debts: %v", ErrUnavailable, err)
	}

	var debts []debt.Debt
	if err := json.Unmarshal([]byte(raw), &debts); err != nil {
		return nil, fmt.Errorf("decode debts for %q: %w", subjectID, err)
	}
	return debts, nil
}

// SaveDebts encodes and stores the subject's debt snapshot.
func (s *RedisStore) SaveDebts(ctx context.Context, subjectID string, debts []debt.Debt) error {
	raw, err := json.Marshal(debts)
	if err != nil {
		return fmt.Errorf("encode debts for %q: %w", subjectID, err)
	}
	if err := s.client.Set(ctx, debtKeyPrefix+subjectID, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: set debts: %v", ErrUnavailable, err)
	}
	s.logger.Debug("debts saved",
		zap.String("op", "store.SaveDebts"),
		zap.String("subject_id", subjectID),
		zap.Int("count", len(debts)),
	)
	return nil
}

// Profile loads and decodes the subject's profile.
func (s *RedisStore) Profile(ctx context.Context, subjectID string) (Profile, error) {
	raw, err := s.client.Get(ctx, profileKeyPrefix+subjectID).Result()
	if errors.Is(err, redis.Nil) {
		return Profile{}, fmt.Errorf("profile for %q: %w", subjectID, ErrNotFound)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("%w: get profile: %v", ErrUnavailable, err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile for %q: %w", subjectID, err)
	}
	return p, nil
}

// SaveProfile encodes and stores the subject's profile.
func (s *RedisStore) SaveProfile(ctx context.Context, profile Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile for %q: %w", profile.SubjectID, err)
	}
	if err := s.client.Set(ctx, profileKeyPrefix+profile.SubjectID, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: set profile: %v", ErrUnavailable, err)
	}
	return nil
}
