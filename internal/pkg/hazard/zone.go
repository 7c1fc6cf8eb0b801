package hazard

import "strings"

const (
	RedThreshold    = 0.70
	YellowThreshold = 0.40
)

// DangerZone is the three-tier risk bucket.
type DangerZone int

const (
	ZoneGreen DangerZone = iota
	ZoneYellow
	ZoneRed
)

// ZoneFor buckets a max hazard probability. Boundary values fall into the lower tier.
func ZoneFor(score float64) DangerZone {
	switch {
	case score > RedThreshold:
		return ZoneRed
	case score > YellowThreshold:
		return ZoneYellow
	default:
		return ZoneGreen
	}
}

// Classify returns the zone for a score map and the max hazard probability behind it.
func Classify(m ScoreMap, set *LabelSet) (DangerZone, float64) {
	peak := m.MaxHazard(set)
	return ZoneFor(peak), peak
}

// String returns the label shown to clients.
func (z DangerZone) String() string {
	switch z {
	case ZoneRed:
		return "🔴 Red Zone (High Danger)"
	case ZoneYellow:
		return "🟡 Yellow Zone (Moderate Danger)"
	default:
		return "🟢 Green Zone (Low Danger)"
	}
}

// Name is the short lowercase name used in metrics and query filters.
func (z DangerZone) Name() string {
	switch z {
	case ZoneRed:
		return "red"
	case ZoneYellow:
		return "yellow"
	default:
		return "green"
	}
}

// ParseZone accepts a short name ("red") or a client label ("🔴 Red Zone (High Danger)").
func ParseZone(s string) (DangerZone, bool) {
	s = strings.ToLower(s)
	switch {
	case s == "red" || strings.Contains(s, "red zone"):
		return ZoneRed, true
	case s == "yellow" || strings.Contains(s, "yellow zone"):
		return ZoneYellow, true
	case s == "green" || strings.Contains(s, "green zone"):
		return ZoneGreen, true
	}
	return ZoneGreen, false
}
