package mapgeom

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleMapYAML = `
name: de_sample
ground_z: 0
bounds:
  min: {x: -1000, y: -1000, z: -100}
  max: {x: 1000, y: 1000, z: 500}
boxes:
  - name: mid_wall
    center: {x: 0, y: 0, z: 50}
    half_extents: {x: 100, y: 10, z: 50}
spawns:
  t:
    - {x: -900, y: 0, z: 16}
bombsites:
  A: {x: 900, y: 0, z: 16}
`

func TestParseMapYAML(t *testing.T) {
	m, err := ParseMapYAML([]byte(sampleMapYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "de_sample" {
		t.Fatalf("expected name de_sample, got %s", m.Name)
	}
	if len(m.Boxes) != 1 || m.Boxes[0].Name != "mid_wall" {
		t.Fatalf("expected one box named mid_wall, got %+v", m.Boxes)
	}
	if len(m.Spawns["t"]) != 1 {
		t.Fatalf("expected one t spawn")
	}
}

func TestParseMapYAMLInvalid(t *testing.T) {
	if _, err := ParseMapYAML([]byte("name: [broken")); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
	if _, err := ParseMapYAML([]byte("name: x\nbounds:\n  min: {x: 1, y: 1, z: 1}\n  max: {x: 0, y: 0, z: 0}")); err == nil {
		t.Fatalf("expected error for inverted bounds")
	}
}

func TestLoaderLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "de_sample.yaml"), []byte(sampleMapYAML), 0o644); err != nil {
		t.Fatalf("failed to write map file: %v", err)
	}

	loader := NewLoader(dir)
	m, err := loader.Load("de_sample")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "de_sample" {
		t.Fatalf("expected de_sample, got %s", m.Name)
	}

	// Second load comes from cache and returns the same instance.
	again, err := loader.Load("de_sample")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != m {
		t.Fatalf("expected cached map instance")
	}
}

func TestLoaderFallbackToTestScene(t *testing.T) {
	loader := NewLoader(t.TempDir())
	m, err := loader.Load("de_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "test_scene" {
		t.Fatalf("expected test scene fallback, got %s", m.Name)
	}
}

func TestLoaderEmptyName(t *testing.T) {
	loader := NewLoader(t.TempDir())
	m, err := loader.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "test_scene" {
		t.Fatalf("expected test scene for empty name, got %s", m.Name)
	}
}

func TestLoaderInvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: [broken"), 0o644); err != nil {
		t.Fatalf("failed to write map file: %v", err)
	}
	loader := NewLoader(dir)
	if _, err := loader.Load("bad"); err == nil {
		t.Fatalf("expected error for invalid map file")
	}
}
