package domain

import "fmt"

// Tier is a subscription level determining quota policy.
type Tier string

// Known tiers.
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// ParseTier validates a raw tier identifier. Empty defaults to free.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierPremium:
		return Tier(s), nil
	case "":
		return TierFree, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
}
