package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes.
// Use errors.Is() to check.
var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidFeature      = errors.New("invalid feature")
	ErrInvalidTier         = errors.New("invalid tier")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrWindowQuotaExceeded = errors.New("window quota exceeded")
	ErrFeatureLimitReached = errors.New("feature limit reached")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrGenerationFailed    = errors.New("generation failed")
)

// codeSentinels maps API error codes to package sentinels.
var codeSentinels = map[string]error{
	"bad_request":           ErrValidation,
	"validation_failed":     ErrValidation,
	"invalid_feature":       ErrInvalidFeature,
	"invalid_tier":          ErrInvalidTier,
	"artifact_not_found":    ErrArtifactNotFound,
	"window_quota_exceeded": ErrWindowQuotaExceeded,
	"feature_limit_reached": ErrFeatureLimitReached,
	"store_unavailable":     ErrStoreUnavailable,
	"generation_failed":     ErrGenerationFailed,
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("studymeter api: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap exposes the sentinel matching the API error code, if any.
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}
