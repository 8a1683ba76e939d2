package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration.
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if err := validatePhysics(&cfg.Physics); err != nil {
		return fmt.Errorf("physics validation failed: %w", err)
	}

	if len(cfg.ThrowSpeeds) == 0 {
		return fmt.Errorf("at least one throw speed must be defined")
	}
	if _, err := cfg.SpeedTable(); err != nil {
		return fmt.Errorf("throw_speeds validation failed: %w", err)
	}

	if err := validateSearch(&cfg.Search); err != nil {
		return fmt.Errorf("search validation failed: %w", err)
	}

	return nil
}

// validatePhysics validates the physics constants.
func validatePhysics(p *PhysicsConfig) error {
	if p.Gravity <= 0 {
		return fmt.Errorf("gravity must be positive, got %f", p.Gravity)
	}
	if p.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %f", p.TimeStep)
	}
	if p.Restitution < 0 || p.Restitution > 1 {
		return fmt.Errorf("restitution must be between 0 and 1, got %f", p.Restitution)
	}
	if p.Friction < 0 || p.Friction > 1 {
		return fmt.Errorf("friction must be between 0 and 1, got %f", p.Friction)
	}
	if p.LinearDamping < 0 || p.LinearDamping >= 1 {
		return fmt.Errorf("linear_damping must be in [0, 1), got %f", p.LinearDamping)
	}
	if p.GrenadeRadius <= 0 {
		return fmt.Errorf("grenade_radius must be positive, got %f", p.GrenadeRadius)
	}
	if p.StanceHeight <= 0 {
		return fmt.Errorf("stance_height must be positive, got %f", p.StanceHeight)
	}
	if p.MaxFlightTime <= 0 {
		return fmt.Errorf("max_flight_time must be positive, got %f", p.MaxFlightTime)
	}
	if p.SettleSpeed <= 0 {
		return fmt.Errorf("settle_speed must be positive, got %f", p.SettleSpeed)
	}
	return nil
}

// validateSearch validates the search tuning defaults.
func validateSearch(s *SearchDefaults) error {
	if s.SearchRadius <= 0 {
		return fmt.Errorf("search_radius must be positive, got %f", s.SearchRadius)
	}
	if s.GridStep <= 0 {
		return fmt.Errorf("grid_step must be positive, got %f", s.GridStep)
	}
	if s.GridStep > 2*s.SearchRadius {
		return fmt.Errorf("grid_step %f exceeds the searchable region (search_radius %f)", s.GridStep, s.SearchRadius)
	}
	if s.PitchMin >= s.PitchMax {
		return fmt.Errorf("pitch range is inverted: [%f, %f]", s.PitchMin, s.PitchMax)
	}
	if s.PitchMin < -90 || s.PitchMax > 90 {
		return fmt.Errorf("pitch range must stay within [-90, 90], got [%f, %f]", s.PitchMin, s.PitchMax)
	}
	if s.PitchSteps < 2 {
		return fmt.Errorf("pitch_steps must be at least 2, got %d", s.PitchSteps)
	}
	if s.AcceptanceRadius <= 0 {
		return fmt.Errorf("acceptance_radius must be positive, got %f", s.AcceptanceRadius)
	}
	if s.InvalidPenalty <= 0 {
		return fmt.Errorf("invalid_penalty must be positive, got %f", s.InvalidPenalty)
	}
	if s.DedupPositionEps < 0 || s.DedupAngleEps < 0 {
		return fmt.Errorf("dedup epsilons cannot be negative")
	}
	switch s.TieBreak {
	case "bounces", "flight_time":
	default:
		return fmt.Errorf("invalid tie_break: %s (must be bounces or flight_time)", s.TieBreak)
	}
	if s.MaxEvaluations < 0 {
		return fmt.Errorf("max_evaluations cannot be negative, got %d", s.MaxEvaluations)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	return nil
}
