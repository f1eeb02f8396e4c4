// Package usage is the accounting engine: it decides whether a user may
// invoke a feature, records consumption, applies the rolling-window
// reset, and advances the daily streak.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fonta-cloud/studymeter/internal/domain"
	"github.com/fonta-cloud/studymeter/internal/domain/ledger"
	"github.com/fonta-cloud/studymeter/internal/domain/quota"
)

const defaultPersistTimeout = 2 * time.Second

// Decision is the outcome of a consume attempt.
type Decision struct {
	Allowed bool
	// Reason names the cap that blocked a denied consume
	// (domain.ErrWindowQuotaExceeded or domain.ErrFeatureLimitReached).
	// Nil when allowed.
	Reason error
	// Remaining is the feature-level quota left after the decision.
	Remaining int
	// WindowRemaining is the shared rolling-window quota left.
	WindowRemaining int
	// StreakAdvanced is true when this consume extended the daily streak.
	StreakAdvanced bool
}

// Snapshot is the derived usage state for display.
type Snapshot struct {
	Tier            domain.Tier
	RollingCount    int
	WindowRemaining int
	Remaining       map[domain.Feature]int
	TimeUntilReset  time.Duration
	CurrentStreak   int
	LongestStreak   int
}

// Service is the usage engine. One instance serves all users; consume
// operations for the same user are serialized, different users proceed
// in parallel.
type Service struct {
	repo           Repository
	clock          domain.Clock
	locks          *keyedMutex
	persistTimeout time.Duration
}

// New creates a usage engine.
func New(repo Repository, clock domain.Clock) *Service {
	return &Service{
		repo:           repo,
		clock:          clock,
		locks:          newKeyedMutex(),
		persistTimeout: defaultPersistTimeout,
	}
}

// WithPersistTimeout overrides the per-call persistence deadline.
func (s *Service) WithPersistTimeout(d time.Duration) *Service {
	s.persistTimeout = d
	return s
}

// TryConsume records one use of a feature if quota allows.
//
// The read-decide-write sequence holds the user's lock so two
// concurrent calls cannot both spend the last unit. A denied attempt
// writes nothing. An allowed decision is confirmed only after the
// ledger persists; a failed save surfaces domain.ErrStoreUnavailable
// instead of granting unrecorded usage.
func (s *Service) TryConsume(ctx context.Context, userID string, feature domain.Feature) (Decision, error) {
	if userID == "" {
		return Decision{}, domain.ErrInvalidUser
	}
	if !feature.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", domain.ErrInvalidFeature, feature)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	l, err := s.load(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	now := s.clock.Now()
	l = ledger.MaybeResetWindow(l, now)

	if reason := quota.Check(l.Tier(), feature, l); reason != nil {
		return Decision{
			Allowed:         false,
			Reason:          reason,
			Remaining:       quota.Remaining(l.Tier(), feature, l),
			WindowRemaining: quota.WindowRemaining(l),
		}, nil
	}

	streakBefore := l.CurrentStreak()
	l = l.WithConsume(feature, now)
	l = ledger.Advance(l, now)

	if err := s.save(ctx, userID, l); err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:         true,
		Remaining:       quota.Remaining(l.Tier(), feature, l),
		WindowRemaining: quota.WindowRemaining(l),
		StreakAdvanced:  l.CurrentStreak() != streakBefore,
	}, nil
}

// CanUseFeature reports whether a consume of the feature would
// currently be allowed for the given tier. Read-only; consistent with
// TryConsume for the same inputs.
func (s *Service) CanUseFeature(ctx context.Context, userID string, tier domain.Tier, feature domain.Feature) (bool, error) {
	if userID == "" {
		return false, domain.ErrInvalidUser
	}
	if !feature.Valid() {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidFeature, feature)
	}

	l, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	l = ledger.MaybeResetWindow(l, s.clock.Now())

	return quota.CanConsume(tier, feature, l), nil
}

// SetTier switches a user's subscription tier and persists the change.
func (s *Service) SetTier(ctx context.Context, userID string, tier domain.Tier) error {
	if userID == "" {
		return domain.ErrInvalidUser
	}
	if _, err := domain.ParseTier(string(tier)); err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	l, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	return s.save(ctx, userID, l.WithTier(tier))
}

// Snapshot returns the derived usage state for display. Read-only; the
// in-memory window reset is applied so counters are never stale, but
// nothing is written back.
func (s *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, domain.ErrInvalidUser
	}

	l, err := s.load(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	now := s.clock.Now()
	l = ledger.MaybeResetWindow(l, now)

	remaining := make(map[domain.Feature]int, 3)
	for _, f := range domain.Features() {
		remaining[f] = quota.Remaining(l.Tier(), f, l)
	}

	return Snapshot{
		Tier:            l.Tier(),
		RollingCount:    l.RollingCount(),
		WindowRemaining: quota.WindowRemaining(l),
		Remaining:       remaining,
		TimeUntilReset:  ledger.TimeUntilReset(l, now),
		CurrentStreak:   l.CurrentStreak(),
		LongestStreak:   l.LongestStreak(),
	}, nil
}

// load fetches the user's ledger under the persistence deadline.
// A user never seen before gets a zero-valued free-tier ledger.
func (s *Service) load(ctx context.Context, userID string) (ledger.Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	l, err := s.repo.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return ledger.New(domain.TierFree), nil
		}
		return ledger.Ledger{}, fmt.Errorf("load ledger: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return l, nil
}

// save persists the ledger under the deadline, retrying once on
// failure before reporting the store unavailable.
func (s *Service) save(ctx context.Context, userID string, l ledger.Ledger) error {
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	err := s.repo.Save(ctx, userID, l)
	if err == nil {
		return nil
	}
	if retryErr := s.repo.Save(ctx, userID, l); retryErr == nil {
		return nil
	}
	return fmt.Errorf("save ledger: %w: %w", domain.ErrStoreUnavailable, err)
}
