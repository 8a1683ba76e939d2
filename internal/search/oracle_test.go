package search

import (
	"math"
	"sync/atomic"

	"github.com/smoke-finder/search-core/pkg/models"
)

// planeOracle is an analytic stand-in for the physics simulator: drag-free
// ballistic flight onto a horizontal plane, no bounces. Deterministic and
// cheap, which lets the strategy tests assert exact search behavior.
type planeOracle struct {
	planeZ  float64
	gravity float64
	calls   int64
}

func newPlaneOracle(planeZ float64) *planeOracle {
	return &planeOracle{planeZ: planeZ, gravity: 800}
}

func (o *planeOracle) Simulate(cfg models.LaunchConfiguration) models.TrajectoryOutcome {
	atomic.AddInt64(&o.calls, 1)

	vel := models.DirectionFromAngles(cfg.YawDeg, cfg.PitchDeg).Scale(cfg.Speed)
	drop := cfg.Origin.Z - o.planeZ
	if drop < 0 && vel.Z <= 0 {
		return models.TrajectoryOutcome{FinalPosition: cfg.Origin, Valid: false}
	}

	disc := vel.Z*vel.Z + 2*o.gravity*drop
	if disc < 0 {
		return models.TrajectoryOutcome{FinalPosition: cfg.Origin, Valid: false}
	}
	t := (vel.Z + math.Sqrt(disc)) / o.gravity

	return models.TrajectoryOutcome{
		FinalPosition: models.Vec3{
			X: cfg.Origin.X + vel.X*t,
			Y: cfg.Origin.Y + vel.Y*t,
			Z: o.planeZ,
		},
		FlightTime: t,
		Valid:      true,
	}
}

func (o *planeOracle) Calls() int {
	return int(atomic.LoadInt64(&o.calls))
}

// invalidOracle aborts every simulation, for penalty-path tests.
type invalidOracle struct{}

func (invalidOracle) Simulate(cfg models.LaunchConfiguration) models.TrajectoryOutcome {
	return models.TrajectoryOutcome{FinalPosition: cfg.Origin, Valid: false}
}

// testSpace is the space most strategy tests search: stances around the
// usual example target at standing height, primary throw speed.
func testSpace() *Space {
	return &Space{
		Target:       models.Vec3{X: 500, Y: 500, Z: 50},
		SearchRadius: 500,
		PitchMin:     -20,
		PitchMax:     60,
		YawSpread:    45,
		StanceZ:      72,
		ThrowType:    models.ThrowPrimary,
		Speed:        1000,
	}
}

func testTarget() models.TargetPoint {
	return models.TargetPoint{
		Position:         models.Vec3{X: 500, Y: 500, Z: 50},
		AcceptanceRadius: 50,
	}
}

// testOptions are deterministic strategy options matched to testSpace.
func testOptions() Options {
	return Options{
		SearchRadius:       500,
		PitchMin:           -20,
		PitchMax:           60,
		YawSpread:          45,
		GridStep:           100,
		PitchSteps:         10,
		YawSteps:           1,
		PopulationSize:     40,
		MaxGenerations:     50,
		EliteCount:         4,
		MutationRate:       0.25,
		MutationStrength:   0.15,
		CrossoverRate:      0.8,
		Seed:               1,
		CoarseFactor:       2,
		PromisingThreshold: 0.5,
		SeedFraction:       0.5,
	}
}
