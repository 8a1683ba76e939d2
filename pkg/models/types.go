package models

import "fmt"

// ThrowType identifies how the grenade is released. The set is closed: every
// valid value maps to an initial speed through a SpeedTable supplied by
// configuration, never through package state.
type ThrowType string

const (
	// ThrowPrimary is the strong throw (attack button only).
	ThrowPrimary ThrowType = "primary"
	// ThrowSecondary is the weak underhand toss (secondary button only).
	ThrowSecondary ThrowType = "secondary"
	// ThrowCombined is the medium throw (both buttons).
	ThrowCombined ThrowType = "combined"
)

// ThrowTypes lists every valid throw type.
func ThrowTypes() []ThrowType {
	return []ThrowType{ThrowPrimary, ThrowSecondary, ThrowCombined}
}

// ParseThrowType converts a string into a ThrowType, rejecting unknown values.
func ParseThrowType(s string) (ThrowType, error) {
	switch ThrowType(s) {
	case ThrowPrimary, ThrowSecondary, ThrowCombined:
		return ThrowType(s), nil
	default:
		return "", fmt.Errorf("unknown throw type: %q", s)
	}
}

// SpeedTable maps each throw type to its initial speed in units per second.
// Built once from configuration; lookups on a complete table cannot miss.
type SpeedTable map[ThrowType]float64

// Validate checks that every throw type has a positive speed entry.
func (t SpeedTable) Validate() error {
	for _, tt := range ThrowTypes() {
		speed, ok := t[tt]
		if !ok {
			return fmt.Errorf("speed table missing throw type %q", tt)
		}
		if speed <= 0 {
			return fmt.Errorf("speed table: throw type %q has non-positive speed %f", tt, speed)
		}
	}
	return nil
}

// Speed returns the configured initial speed for a throw type.
func (t SpeedTable) Speed(tt ThrowType) (float64, error) {
	speed, ok := t[tt]
	if !ok {
		return 0, fmt.Errorf("speed table missing throw type %q", tt)
	}
	return speed, nil
}

// LaunchConfiguration is one point in the search space: where the thrower
// stands, where they aim and how hard they throw. Immutable once constructed.
type LaunchConfiguration struct {
	Origin    Vec3      `json:"origin"`
	YawDeg    float64   `json:"yaw_deg"`
	PitchDeg  float64   `json:"pitch_deg"`
	ThrowType ThrowType `json:"throw_type"`
	Speed     float64   `json:"speed"`
}

// Commands renders the configuration as console command strings ready for
// the presentation layer. The "combined" entry is a single paste-able line.
func (c LaunchConfiguration) Commands() map[string]string {
	setpos := fmt.Sprintf("setpos %.1f %.1f %.1f", c.Origin.X, c.Origin.Y, c.Origin.Z)
	setang := fmt.Sprintf("setang %.1f %.1f 0", c.PitchDeg, c.YawDeg)
	return map[string]string{
		"setpos":   setpos,
		"setang":   setang,
		"combined": setpos + "; " + setang,
	}
}

// TrajectoryOutcome is the oracle's report for one simulated throw. Valid is
// false when the simulation aborted (body left the map bounds, the step
// budget ran out before the body settled, or the origin was inside solid
// geometry); the rest of the fields then describe the state at abort time.
type TrajectoryOutcome struct {
	FinalPosition Vec3    `json:"final_position"`
	FlightTime    float64 `json:"flight_time"`
	Bounces       int     `json:"bounces"`
	Valid         bool    `json:"valid"`
	// Trajectory holds decimated sample positions for presentation.
	Trajectory []Vec3 `json:"trajectory,omitempty"`
}

// TargetPoint is the caller-supplied goal: a position plus the radius within
// which a resting grenade counts as a hit.
type TargetPoint struct {
	Position         Vec3    `json:"position"`
	AcceptanceRadius float64 `json:"acceptance_radius"`
}

// Validate rejects malformed targets before any search work starts.
func (t TargetPoint) Validate() error {
	if !t.Position.IsFinite() {
		return fmt.Errorf("target position must be finite, got %+v", t.Position)
	}
	if t.AcceptanceRadius <= 0 {
		return fmt.Errorf("acceptance radius must be positive, got %f", t.AcceptanceRadius)
	}
	return nil
}

// Solution is an accepted (or candidate) launch configuration with its
// simulated outcome and score. Lower score is better. Never mutated after
// creation.
type Solution struct {
	Config   LaunchConfiguration `json:"config"`
	Outcome  TrajectoryOutcome   `json:"outcome"`
	Score    float64             `json:"score"`
	Commands map[string]string   `json:"commands"`
}
