package patch

import "fmt"

// Tier represents the resolved severity tier of a patch.
type Tier string

const (
	// TierCritical indicates a patch that must lead the deployment plan.
	TierCritical Tier = "critical"

	// TierHigh indicates a high-urgency patch.
	TierHigh Tier = "high"

	// TierMedium indicates a routine patch.
	TierMedium Tier = "medium"

	// TierLow indicates a patch with no urgency.
	TierLow Tier = "low"
)

// tierWeights maps tiers to numeric weights for ordering decisions.
// Higher weights indicate more urgent tiers.
var tierWeights = map[Tier]int{
	TierCritical: 4,
	TierHigh:     3,
	TierMedium:   2,
	TierLow:      1,
}

// IsValid returns true if the tier is valid.
func (t Tier) IsValid() bool {
	switch t {
	case TierCritical, TierHigh, TierMedium, TierLow:
		return true
	default:
		return false
	}
}

// Weight returns the numeric weight of the tier.
// Returns 0 for invalid tiers.
func (t Tier) Weight() int {
	return tierWeights[t]
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// ParseTier parses a string into a Tier value.
func ParseTier(s string) (Tier, error) {
	tier := Tier(s)
	if !tier.IsValid() {
		return "", fmt.Errorf("invalid tier: %s", s)
	}
	return tier, nil
}

// CompareTiers compares two tiers by weight.
// Returns:
//   - negative if t1 < t2
//   - zero if t1 == t2
//   - positive if t1 > t2
func CompareTiers(t1, t2 Tier) int {
	return t1.Weight() - t2.Weight()
}

// AllTiers returns all valid tiers in order from critical to low.
func AllTiers() []Tier {
	return []Tier{TierCritical, TierHigh, TierMedium, TierLow}
}

// EstimatedDuration returns a coarse deployment duration estimate for the
// tier, carried into the plan for operator planning.
func (t Tier) EstimatedDuration() string {
	switch t {
	case TierCritical:
		return "2-4 hours"
	case TierHigh:
		return "1-3 hours"
	case TierMedium:
		return "30-60 minutes"
	default:
		return "15-30 minutes"
	}
}
