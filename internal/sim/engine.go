// Package sim integrates grenade flight through a static collision world.
// It is the expensive oracle the search strategies query: one call simulates
// one complete throw with fixed-step integration.
package sim

import (
	"github.com/smoke-finder/search-core/internal/mapgeom"
	"github.com/smoke-finder/search-core/pkg/config"
	"github.com/smoke-finder/search-core/pkg/models"
)

// trajectorySampleEvery decimates the recorded path to every Nth step so the
// presentation payload stays small at a 120 Hz integration rate.
const trajectorySampleEvery = 4

// Engine simulates projectile flight against one map. Engines are stateless
// between calls and safe for concurrent use.
type Engine struct {
	phys config.PhysicsConfig
	m    *mapgeom.Map
}

// NewEngine creates an engine for the given physics constants and map.
func NewEngine(phys config.PhysicsConfig, m *mapgeom.Map) *Engine {
	return &Engine{phys: phys, m: m}
}

// Map returns the collision world this engine simulates against.
func (e *Engine) Map() *mapgeom.Map {
	return e.m
}

// Simulate runs one throw to completion and reports where the grenade came to
// rest. The outcome is invalid when the origin is embedded in solid geometry,
// the body leaves the map bounds, or the step budget runs out before the body
// settles; FinalPosition then holds the last integrated position.
func (e *Engine) Simulate(cfg models.LaunchConfiguration) models.TrajectoryOutcome {
	pos := cfg.Origin
	radius := e.phys.GrenadeRadius

	if !e.m.Bounds.Contains(pos) || e.m.InsideSolid(pos, radius) {
		return models.TrajectoryOutcome{
			FinalPosition: pos,
			Valid:         false,
			Trajectory:    []models.Vec3{pos},
		}
	}

	vel := models.DirectionFromAngles(cfg.YawDeg, cfg.PitchDeg).Scale(cfg.Speed)

	dt := e.phys.TimeStep
	maxSteps := int(e.phys.MaxFlightTime / dt)
	trajectory := []models.Vec3{pos}

	bounces := 0
	elapsed := 0.0

	for step := 1; step <= maxSteps; step++ {
		vel.Z -= e.phys.Gravity * dt
		vel = vel.Scale(1 - e.phys.LinearDamping*dt)
		pos = pos.Add(vel.Scale(dt))
		elapsed += dt

		if !e.m.Bounds.Contains(pos) {
			return models.TrajectoryOutcome{
				FinalPosition: pos,
				FlightTime:    elapsed,
				Bounces:       bounces,
				Valid:         false,
				Trajectory:    append(trajectory, pos),
			}
		}

		contact, hit := e.m.SphereContact(pos, radius)
		if hit {
			pos = pos.Add(contact.Normal.Scale(contact.Depth))

			if vn := vel.Dot(contact.Normal); vn < 0 {
				normal := contact.Normal.Scale(vn)
				tangent := vel.Sub(normal)
				vel = tangent.Scale(1 - e.phys.Friction).Sub(normal.Scale(e.phys.Restitution))
				// Rolling contact regains a little normal speed from gravity
				// every step; only genuine impacts count as bounces.
				if -vn > e.phys.SettleSpeed {
					bounces++
				}
			}

			if vel.Length() < e.phys.SettleSpeed {
				return models.TrajectoryOutcome{
					FinalPosition: pos,
					FlightTime:    elapsed,
					Bounces:       bounces,
					Valid:         true,
					Trajectory:    append(trajectory, pos),
				}
			}
		}

		if step%trajectorySampleEvery == 0 {
			trajectory = append(trajectory, pos)
		}
	}

	// Step budget exhausted without settling.
	return models.TrajectoryOutcome{
		FinalPosition: pos,
		FlightTime:    elapsed,
		Bounces:       bounces,
		Valid:         false,
		Trajectory:    append(trajectory, pos),
	}
}

// LineOfSight reports whether the straight segment between two points is free
// of map geometry.
func (e *Engine) LineOfSight(from, to models.Vec3) bool {
	return !e.m.SegmentBlocked(from, to)
}
