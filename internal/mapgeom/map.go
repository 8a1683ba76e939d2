package mapgeom

import (
	"fmt"
	"math"

	"github.com/smoke-finder/search-core/pkg/models"
)

// Box is a static axis-aligned solid: a wall, crate or platform.
type Box struct {
	Name        string      `yaml:"name" json:"name,omitempty"`
	Center      models.Vec3 `yaml:"center" json:"center"`
	HalfExtents models.Vec3 `yaml:"half_extents" json:"half_extents"`
}

// Bounds is the axis-aligned playable volume. A body leaving it counts as
// lost and its simulation aborts.
type Bounds struct {
	Min models.Vec3 `yaml:"min" json:"min"`
	Max models.Vec3 `yaml:"max" json:"max"`
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p models.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Map is a static collision world: one infinite ground plane at GroundZ plus
// axis-aligned solids, with named reference points for presentation.
type Map struct {
	Name      string                   `yaml:"name" json:"name"`
	GroundZ   float64                  `yaml:"ground_z" json:"ground_z"`
	Bounds    Bounds                   `yaml:"bounds" json:"bounds"`
	Boxes     []Box                    `yaml:"boxes" json:"boxes"`
	Spawns    map[string][]models.Vec3 `yaml:"spawns" json:"spawns,omitempty"`
	Bombsites map[string]models.Vec3   `yaml:"bombsites" json:"bombsites,omitempty"`
}

// Contact describes a sphere-vs-world overlap.
type Contact struct {
	// Normal points out of the surface toward the sphere center.
	Normal models.Vec3
	// Depth is the penetration distance along Normal.
	Depth float64
}

// SphereContact returns the deepest contact between a sphere and the map
// geometry, or ok=false when the sphere is free.
func (m *Map) SphereContact(center models.Vec3, radius float64) (Contact, bool) {
	best := Contact{}
	found := false

	// Ground plane.
	if depth := m.GroundZ + radius - center.Z; depth > 0 {
		best = Contact{Normal: models.Vec3{Z: 1}, Depth: depth}
		found = true
	}

	for i := range m.Boxes {
		if c, ok := sphereBoxContact(center, radius, &m.Boxes[i]); ok {
			if !found || c.Depth > best.Depth {
				best = c
				found = true
			}
		}
	}

	return best, found
}

// sphereBoxContact tests a sphere against one axis-aligned box.
func sphereBoxContact(center models.Vec3, radius float64, box *Box) (Contact, bool) {
	min := box.Center.Sub(box.HalfExtents)
	max := box.Center.Add(box.HalfExtents)

	closest := models.Vec3{
		X: clamp(center.X, min.X, max.X),
		Y: clamp(center.Y, min.Y, max.Y),
		Z: clamp(center.Z, min.Z, max.Z),
	}

	delta := center.Sub(closest)
	dist := delta.Length()

	if dist > 0 {
		// Center outside the box.
		if dist >= radius {
			return Contact{}, false
		}
		return Contact{Normal: delta.Scale(1 / dist), Depth: radius - dist}, true
	}

	// Center inside the box: push out along the axis of least penetration.
	axisDepths := [6]float64{
		center.X - min.X, max.X - center.X,
		center.Y - min.Y, max.Y - center.Y,
		center.Z - min.Z, max.Z - center.Z,
	}
	normals := [6]models.Vec3{
		{X: -1}, {X: 1},
		{Y: -1}, {Y: 1},
		{Z: -1}, {Z: 1},
	}
	bestIdx := 0
	for i := 1; i < 6; i++ {
		if axisDepths[i] < axisDepths[bestIdx] {
			bestIdx = i
		}
	}
	return Contact{Normal: normals[bestIdx], Depth: axisDepths[bestIdx] + radius}, true
}

// InsideSolid reports whether a sphere at p overlaps solid geometry. Used to
// reject launch origins embedded in walls or below the floor.
func (m *Map) InsideSolid(p models.Vec3, radius float64) bool {
	_, hit := m.SphereContact(p, radius)
	return hit
}

// SegmentBlocked reports whether the straight segment from a to b intersects
// map geometry (ground plane or any box). Used for line-of-sight queries.
func (m *Map) SegmentBlocked(a, b models.Vec3) bool {
	dir := b.Sub(a)

	// Ground plane z = GroundZ.
	if dir.Z != 0 {
		t := (m.GroundZ - a.Z) / dir.Z
		if t > 0 && t < 1 {
			return true
		}
	} else if a.Z == m.GroundZ {
		return true
	}

	for i := range m.Boxes {
		if segmentHitsBox(a, dir, &m.Boxes[i]) {
			return true
		}
	}
	return false
}

// segmentHitsBox is the slab test for segment a + t*dir, t in [0,1].
func segmentHitsBox(a, dir models.Vec3, box *Box) bool {
	min := box.Center.Sub(box.HalfExtents)
	max := box.Center.Add(box.HalfExtents)

	tMin, tMax := 0.0, 1.0
	origins := [3]float64{a.X, a.Y, a.Z}
	dirs := [3]float64{dir.X, dir.Y, dir.Z}
	mins := [3]float64{min.X, min.Y, min.Z}
	maxs := [3]float64{max.X, max.Y, max.Z}

	for i := 0; i < 3; i++ {
		if dirs[i] == 0 {
			if origins[i] < mins[i] || origins[i] > maxs[i] {
				return false
			}
			continue
		}
		t1 := (mins[i] - origins[i]) / dirs[i]
		t2 := (maxs[i] - origins[i]) / dirs[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}

// Validate checks the map document for geometric consistency.
func (m *Map) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("map name cannot be empty")
	}
	if m.Bounds.Min.X >= m.Bounds.Max.X ||
		m.Bounds.Min.Y >= m.Bounds.Max.Y ||
		m.Bounds.Min.Z >= m.Bounds.Max.Z {
		return fmt.Errorf("map %s: bounds are inverted or empty", m.Name)
	}
	if m.GroundZ < m.Bounds.Min.Z || m.GroundZ > m.Bounds.Max.Z {
		return fmt.Errorf("map %s: ground_z %f outside bounds", m.Name, m.GroundZ)
	}
	names := make(map[string]bool)
	for i, box := range m.Boxes {
		if box.HalfExtents.X <= 0 || box.HalfExtents.Y <= 0 || box.HalfExtents.Z <= 0 {
			return fmt.Errorf("map %s: box %d has non-positive half extents", m.Name, i)
		}
		if box.Name != "" {
			if names[box.Name] {
				return fmt.Errorf("map %s: duplicate box name %s", m.Name, box.Name)
			}
			names[box.Name] = true
		}
	}
	return nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
