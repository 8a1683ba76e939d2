package models

import (
	"math"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -2, 1}

	sum := a.Add(b)
	if sum != (Vec3{5, 0, 4}) {
		t.Fatalf("unexpected sum: %+v", sum)
	}

	diff := a.Sub(b)
	if diff != (Vec3{-3, 4, 2}) {
		t.Fatalf("unexpected diff: %+v", diff)
	}

	scaled := a.Scale(2)
	if scaled != (Vec3{2, 4, 6}) {
		t.Fatalf("unexpected scale: %+v", scaled)
	}

	if dot := a.Dot(b); dot != 3 {
		t.Fatalf("expected dot 3, got %f", dot)
	}
}

func TestVec3Distance(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{3, 4, 0}
	if d := a.Distance(b); math.Abs(d-5) > 1e-12 {
		t.Fatalf("expected distance 5, got %f", d)
	}
}

func TestDirectionFromAngles(t *testing.T) {
	// Straight east, level.
	dir := DirectionFromAngles(0, 0)
	if math.Abs(dir.X-1) > 1e-12 || math.Abs(dir.Y) > 1e-12 || math.Abs(dir.Z) > 1e-12 {
		t.Fatalf("expected +X direction, got %+v", dir)
	}

	// Straight up.
	dir = DirectionFromAngles(0, 90)
	if math.Abs(dir.Z-1) > 1e-12 {
		t.Fatalf("expected +Z direction, got %+v", dir)
	}

	// North.
	dir = DirectionFromAngles(90, 0)
	if math.Abs(dir.Y-1) > 1e-12 {
		t.Fatalf("expected +Y direction, got %+v", dir)
	}

	// Always unit length.
	dir = DirectionFromAngles(37, -22)
	if math.Abs(dir.Length()-1) > 1e-12 {
		t.Fatalf("expected unit direction, got length %f", dir.Length())
	}
}

func TestYawToward(t *testing.T) {
	from := Vec3{0, 0, 0}
	if yaw := YawToward(from, Vec3{10, 0, 5}); math.Abs(yaw) > 1e-12 {
		t.Fatalf("expected yaw 0, got %f", yaw)
	}
	if yaw := YawToward(from, Vec3{0, 10, 0}); math.Abs(yaw-90) > 1e-12 {
		t.Fatalf("expected yaw 90, got %f", yaw)
	}
}

func TestNormalizeYaw(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{180, -180},
		{-180, -180},
		{270, -90},
		{-270, 90},
		{540, -180},
	}
	for _, c := range cases {
		if got := NormalizeYaw(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("NormalizeYaw(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}
