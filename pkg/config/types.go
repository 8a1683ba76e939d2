package config

import (
	"github.com/smoke-finder/search-core/pkg/models"
)

// Config is the top-level daemon configuration document.
type Config struct {
	LogLevel    string             `yaml:"log_level"`
	Physics     PhysicsConfig      `yaml:"physics"`
	ThrowSpeeds map[string]float64 `yaml:"throw_speeds"`
	Search      SearchDefaults     `yaml:"search"`
	Maps        MapsConfig         `yaml:"maps"`
}

// PhysicsConfig holds the physical constants the trajectory simulator runs
// with. The search core never reads these directly; it hands them to the
// simulator and scorer at construction time.
type PhysicsConfig struct {
	// Gravity is the downward acceleration in units/s^2.
	Gravity float64 `yaml:"gravity"`
	// TimeStep is the fixed integration step in seconds.
	TimeStep float64 `yaml:"time_step"`
	// Restitution is the velocity fraction kept normal to a surface on bounce.
	Restitution float64 `yaml:"restitution"`
	// Friction is the tangential velocity fraction lost on each bounce.
	Friction float64 `yaml:"friction"`
	// LinearDamping is the per-second air drag factor.
	LinearDamping float64 `yaml:"linear_damping"`
	// GrenadeRadius is the projectile radius in units.
	GrenadeRadius float64 `yaml:"grenade_radius"`
	// StanceHeight is the hand height above the ground for a standing throw,
	// in units. Stance origins are placed at this height.
	StanceHeight float64 `yaml:"stance_height"`
	// MaxFlightTime bounds a single simulated throw, in seconds.
	MaxFlightTime float64 `yaml:"max_flight_time"`
	// SettleSpeed is the speed (units/s) below which the body counts as at rest.
	SettleSpeed float64 `yaml:"settle_speed"`
}

// SearchDefaults holds the search tuning values used when a request does not
// override them.
type SearchDefaults struct {
	// SearchRadius bounds the stance region around the target, in units.
	SearchRadius float64 `yaml:"search_radius"`
	// GridStep is the XY lattice spacing for grid search, in units.
	GridStep float64 `yaml:"grid_step"`
	// PitchMin/PitchMax bound the throwable pitch range, in degrees.
	PitchMin float64 `yaml:"pitch_min"`
	PitchMax float64 `yaml:"pitch_max"`
	// PitchSteps is the number of pitch samples per grid stance.
	PitchSteps int `yaml:"pitch_steps"`
	// AcceptanceRadius is the default hit tolerance in units when a request
	// does not supply one.
	AcceptanceRadius float64 `yaml:"acceptance_radius"`
	// InvalidPenalty is added to the fitness of aborted simulations so they
	// always rank worse than any valid outcome.
	InvalidPenalty float64 `yaml:"invalid_penalty"`
	// DedupPositionEps / DedupAngleEps define when two solutions count as
	// duplicates: every position dimension within DedupPositionEps units AND
	// both angles within DedupAngleEps degrees.
	DedupPositionEps float64 `yaml:"dedup_position_eps"`
	DedupAngleEps    float64 `yaml:"dedup_angle_eps"`
	// TieBreak orders equal-score solutions: "bounces" (fewer first, then
	// shorter flight) or "flight_time" (shorter first, then fewer bounces).
	TieBreak string `yaml:"tie_break"`
	// MaxEvaluations caps oracle calls per search (0 = unlimited).
	MaxEvaluations int `yaml:"max_evaluations"`
	// Workers sets the evaluation pool size (1 = sequential).
	Workers int `yaml:"workers"`
}

// MapsConfig points the daemon at its map documents.
type MapsConfig struct {
	// Dir is the directory holding <name>.yaml map files.
	Dir string `yaml:"dir"`
	// Default is the map loaded at startup.
	Default string `yaml:"default"`
}

// DefaultConfig returns the configuration used when no file is supplied.
// Constants follow the target game's movement units (inches, 64 ticks).
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Physics: PhysicsConfig{
			Gravity:       800.0,
			TimeStep:      1.0 / 120.0,
			Restitution:   0.45,
			Friction:      0.5,
			LinearDamping: 0.03,
			GrenadeRadius: 4.0,
			StanceHeight:  72.0,
			MaxFlightTime: 10.0,
			SettleSpeed:   10.0,
		},
		ThrowSpeeds: map[string]float64{
			string(models.ThrowPrimary):   1000.0,
			string(models.ThrowSecondary): 400.0,
			string(models.ThrowCombined):  600.0,
		},
		Search: SearchDefaults{
			SearchRadius:     500.0,
			GridStep:         100.0,
			PitchMin:         -20.0,
			PitchMax:         60.0,
			PitchSteps:       10,
			AcceptanceRadius: 150.0,
			InvalidPenalty:   1e6,
			DedupPositionEps: 25.0,
			DedupAngleEps:    2.0,
			TieBreak:         "bounces",
			MaxEvaluations:   0,
			Workers:          1,
		},
		Maps: MapsConfig{
			Dir:     "maps",
			Default: "",
		},
	}
}

// SpeedTable converts the configured throw-speed entries into the closed
// lookup table the core consumes, rejecting unknown or incomplete entries.
func (c *Config) SpeedTable() (models.SpeedTable, error) {
	table := make(models.SpeedTable, len(c.ThrowSpeeds))
	for name, speed := range c.ThrowSpeeds {
		tt, err := models.ParseThrowType(name)
		if err != nil {
			return nil, err
		}
		table[tt] = speed
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
