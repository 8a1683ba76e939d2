package search

import (
	"math"
	"testing"

	"github.com/smoke-finder/search-core/pkg/models"
	"github.com/smoke-finder/search-core/pkg/utils"
)

func TestSpaceValidate(t *testing.T) {
	if err := testSpace().Validate(); err != nil {
		t.Fatalf("expected valid space: %v", err)
	}

	s := testSpace()
	s.SearchRadius = 0
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for zero search radius")
	}

	s = testSpace()
	s.PitchMin, s.PitchMax = 30, 30
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for empty pitch range")
	}

	s = testSpace()
	s.Speed = -1
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for non-positive speed")
	}
}

func TestSpaceClip(t *testing.T) {
	s := testSpace()
	v := s.Clip(Vector{9999, -9999, 90, -90})
	if v[DimOffsetX] != 500 || v[DimOffsetY] != -500 {
		t.Fatalf("expected offsets clipped to radius, got %v", v)
	}
	if v[DimPitch] != 60 || v[DimYawOffset] != -45 {
		t.Fatalf("expected angles clipped, got %v", v)
	}
}

func TestSpaceSampleInBounds(t *testing.T) {
	s := testSpace()
	rng := utils.NewRandSource(7)
	for i := 0; i < 200; i++ {
		v := s.Sample(rng)
		for dim := 0; dim < Dimensions; dim++ {
			min, max := s.Bounds(dim)
			if v[dim] < min || v[dim] >= max {
				t.Fatalf("sample dim %d out of bounds: %f not in [%f, %f)", dim, v[dim], min, max)
			}
		}
	}
}

func TestSpaceDecodeAimsAtTarget(t *testing.T) {
	s := testSpace()

	// Stance due east of the target, zero yaw offset: aim points due west.
	cfg := s.Decode(Vector{100, 0, 30, 0})
	if cfg.Origin.X != 600 || cfg.Origin.Y != 500 || cfg.Origin.Z != 72 {
		t.Fatalf("unexpected origin %+v", cfg.Origin)
	}
	if math.Abs(math.Abs(cfg.YawDeg)-180) > 1e-9 {
		t.Fatalf("expected yaw toward target (+/-180), got %f", cfg.YawDeg)
	}
	if cfg.PitchDeg != 30 {
		t.Fatalf("expected pitch 30, got %f", cfg.PitchDeg)
	}
	if cfg.ThrowType != models.ThrowPrimary || cfg.Speed != 1000 {
		t.Fatalf("expected throw type/speed carried through, got %+v", cfg)
	}

	// Yaw offset shifts the bearing.
	cfg = s.Decode(Vector{0, -100, 0, 15})
	wantYaw := models.NormalizeYaw(90 + 15)
	if math.Abs(cfg.YawDeg-wantYaw) > 1e-9 {
		t.Fatalf("expected yaw %f, got %f", wantYaw, cfg.YawDeg)
	}
}
