package usage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/domain"
	"github.com/fonta-cloud/studymeter/internal/metrics"
)

// InstrumentedEngine wraps the usage engine with decision metrics and
// logging. The inner engine stays metrics-free so tests can exercise it
// without a Prometheus registry.
type InstrumentedEngine struct {
	inner  *Service
	logger *zap.Logger
}

// NewInstrumentedEngine wraps a usage engine with observability.
func NewInstrumentedEngine(inner *Service, logger *zap.Logger) *InstrumentedEngine {
	return &InstrumentedEngine{inner: inner, logger: logger}
}

// TryConsume delegates to the engine and records the decision outcome.
func (e *InstrumentedEngine) TryConsume(ctx context.Context, userID string, feature domain.Feature) (Decision, error) {
	start := time.Now()

	d, err := e.inner.TryConsume(ctx, userID, feature)

	duration := time.Since(start)

	if err != nil {
		e.logger.Error("consume failed",
			zap.String("user_id", userID),
			zap.String("feature", string(feature)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return Decision{}, err
	}

	metrics.ConsumeDecisionsTotal.WithLabelValues(string(feature), outcomeLabel(d)).Inc()
	if d.StreakAdvanced {
		metrics.StreakAdvancesTotal.Inc()
	}

	e.logger.Debug("consume decision",
		zap.String("user_id", userID),
		zap.String("feature", string(feature)),
		zap.Bool("allowed", d.Allowed),
		zap.Int("remaining", d.Remaining),
		zap.Int("window_remaining", d.WindowRemaining),
		zap.Duration("duration", duration),
	)

	return d, nil
}

// CanUseFeature delegates to the engine.
func (e *InstrumentedEngine) CanUseFeature(ctx context.Context, userID string, tier domain.Tier, feature domain.Feature) (bool, error) {
	return e.inner.CanUseFeature(ctx, userID, tier, feature)
}

// SetTier delegates to the engine.
func (e *InstrumentedEngine) SetTier(ctx context.Context, userID string, tier domain.Tier) error {
	return e.inner.SetTier(ctx, userID, tier)
}

// Snapshot delegates to the engine.
func (e *InstrumentedEngine) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	return e.inner.Snapshot(ctx, userID)
}

func outcomeLabel(d Decision) string {
	switch {
	case d.Allowed:
		return "allowed"
	case errors.Is(d.Reason, domain.ErrWindowQuotaExceeded):
		return "window_denied"
	case errors.Is(d.Reason, domain.ErrFeatureLimitReached):
		return "feature_denied"
	default:
		return "denied"
	}
}
