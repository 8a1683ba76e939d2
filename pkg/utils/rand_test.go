package utils

import "testing"

func TestRandSourceDeterminism(t *testing.T) {
	a := NewRandSource(42)
	b := NewRandSource(42)

	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("same seed should produce identical sequences (diverged at %d)", i)
		}
	}
}

func TestRandSourceUniformFloat64(t *testing.T) {
	r := NewRandSource(1)
	for i := 0; i < 1000; i++ {
		v := r.UniformFloat64(-5, 5)
		if v < -5 || v >= 5 {
			t.Fatalf("uniform value out of range: %f", v)
		}
	}
}

func TestRandSourceIntn(t *testing.T) {
	r := NewRandSource(7)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.Intn(4)
		if v < 0 || v >= 4 {
			t.Fatalf("Intn value out of range: %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected all 4 values over 1000 draws, got %d", len(seen))
	}
}

func TestRandSourceBernoulliBool(t *testing.T) {
	r := NewRandSource(3)
	trueCount := 0
	for i := 0; i < 10000; i++ {
		if r.BernoulliBool(0.3) {
			trueCount++
		}
	}
	rate := float64(trueCount) / 10000
	if rate < 0.25 || rate > 0.35 {
		t.Fatalf("expected rate near 0.3, got %f", rate)
	}
}
