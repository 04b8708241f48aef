package model

import "fmt"

// Tier identifies one of the two inference backends.
type Tier string

const (
	TierLocal  Tier = "local"
	TierRemote Tier = "remote"
)

// Other returns the opposite tier.
func (t Tier) Other() Tier {
	if t == TierLocal {
		return TierRemote
	}
	return TierLocal
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// ParseTier validates a tier string. An empty value is allowed and means
// "no tier selected" (automatic routing).
func ParseTier(v string) (Tier, error) {
	switch Tier(v) {
	case TierLocal:
		return TierLocal, nil
	case TierRemote:
		return TierRemote, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown tier %q", v)
	}
}
