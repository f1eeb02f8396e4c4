package domain

import "errors"

var (
	// ErrInvalidFeature signals an unknown feature identifier.
	ErrInvalidFeature = errors.New("invalid feature")
	// ErrInvalidUser signals an absent or empty user id.
	ErrInvalidUser = errors.New("invalid user id")
	// ErrInvalidTier signals an unknown subscription tier.
	ErrInvalidTier = errors.New("invalid subscription tier")
	// ErrStoreUnavailable signals a failed or timed-out persistence operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrWindowQuotaExceeded signals the shared rolling-window cap is spent.
	ErrWindowQuotaExceeded = errors.New("rolling window quota exceeded")
	// ErrFeatureLimitReached signals a free-tier per-feature cap is spent.
	ErrFeatureLimitReached = errors.New("feature limit reached")

	// ErrProfileNotFound signals a user has no stored usage profile yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrArtifactNotFound signals a missing study artifact.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrGenerationFailed signals an AI provider failure.
	ErrGenerationFailed = errors.New("generation provider error")
)
