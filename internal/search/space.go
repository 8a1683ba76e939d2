// Package search implements the grenade-launch search engine: the strategies
// that explore the space of launch configurations against an expensive
// trajectory oracle, plus the scoring and ranking that turn raw outcomes into
// accepted solutions.
package search

import (
	"fmt"

	"github.com/smoke-finder/search-core/pkg/models"
	"github.com/smoke-finder/search-core/pkg/utils"
)

// Dimensions is the size of the search vector: stance offset east/north from
// the target, aim pitch, and yaw offset from the direct bearing to the target.
const Dimensions = 4

// Vector dimension indices.
const (
	DimOffsetX = iota
	DimOffsetY
	DimPitch
	DimYawOffset
)

// Vector is one point of the parameter space in encoded form. Strategies
// sample and mutate Vectors; the Space decodes them into launch
// configurations the oracle accepts.
type Vector [Dimensions]float64

// Space defines the parameter ranges a strategy samples from and how an
// encoded vector becomes a LaunchConfiguration. Stances are offsets around
// the target in the XY plane at standing hand height; yaw is encoded relative
// to the direct bearing so a zero yaw offset always aims at the target.
type Space struct {
	// Target anchors the stance region.
	Target models.Vec3
	// SearchRadius bounds the stance offsets, in units.
	SearchRadius float64
	// PitchMin and PitchMax bound the aim pitch, in degrees.
	PitchMin float64
	PitchMax float64
	// YawSpread bounds the yaw offset to +/-YawSpread degrees around the
	// direct bearing.
	YawSpread float64
	// StanceZ is the absolute hand height launches start from.
	StanceZ float64
	// ThrowType and Speed are fixed for the whole search.
	ThrowType models.ThrowType
	Speed     float64
}

// Validate rejects a degenerate space before any search work starts.
func (s *Space) Validate() error {
	if !s.Target.IsFinite() {
		return fmt.Errorf("space target must be finite, got %+v", s.Target)
	}
	if s.SearchRadius <= 0 {
		return fmt.Errorf("search radius must be positive, got %f", s.SearchRadius)
	}
	if s.PitchMin >= s.PitchMax {
		return fmt.Errorf("pitch range is empty: [%f, %f]", s.PitchMin, s.PitchMax)
	}
	if s.YawSpread < 0 {
		return fmt.Errorf("yaw spread must be non-negative, got %f", s.YawSpread)
	}
	if s.Speed <= 0 {
		return fmt.Errorf("throw speed must be positive, got %f", s.Speed)
	}
	return nil
}

// Bounds returns the valid [min, max] range of one vector dimension.
func (s *Space) Bounds(dim int) (min, max float64) {
	switch dim {
	case DimOffsetX, DimOffsetY:
		return -s.SearchRadius, s.SearchRadius
	case DimPitch:
		return s.PitchMin, s.PitchMax
	case DimYawOffset:
		return -s.YawSpread, s.YawSpread
	default:
		return 0, 0
	}
}

// Clip clamps every dimension of v into its valid range.
func (s *Space) Clip(v Vector) Vector {
	for dim := 0; dim < Dimensions; dim++ {
		min, max := s.Bounds(dim)
		v[dim] = utils.ClampFloat64(v[dim], min, max)
	}
	return v
}

// Sample draws a uniformly distributed vector from the space.
func (s *Space) Sample(rng *utils.RandSource) Vector {
	var v Vector
	for dim := 0; dim < Dimensions; dim++ {
		min, max := s.Bounds(dim)
		v[dim] = rng.UniformFloat64(min, max)
	}
	return v
}

// Decode converts an encoded vector into the launch configuration the oracle
// accepts. The caller is expected to have clipped v first.
func (s *Space) Decode(v Vector) models.LaunchConfiguration {
	origin := models.Vec3{
		X: s.Target.X + v[DimOffsetX],
		Y: s.Target.Y + v[DimOffsetY],
		Z: s.StanceZ,
	}
	yaw := models.NormalizeYaw(models.YawToward(origin, s.Target) + v[DimYawOffset])
	return models.LaunchConfiguration{
		Origin:    origin,
		YawDeg:    yaw,
		PitchDeg:  v[DimPitch],
		ThrowType: s.ThrowType,
		Speed:     s.Speed,
	}
}
