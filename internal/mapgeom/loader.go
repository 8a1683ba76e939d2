package mapgeom

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/smoke-finder/search-core/pkg/logger"
	"github.com/smoke-finder/search-core/pkg/models"
)

// Loader resolves map names to parsed Map documents, caching results. A
// missing map falls back to the built-in test scene so the daemon stays
// usable without map assets.
type Loader struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Map
}

// NewLoader creates a loader reading <name>.yaml files from dir.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]*Map),
	}
}

// Load returns the map with the given name. An empty name, or a name with no
// matching file, yields the test scene.
func (l *Loader) Load(name string) (*Map, error) {
	if name == "" {
		return TestScene(), nil
	}

	l.mu.RLock()
	if m, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return m, nil
	}
	l.mu.RUnlock()

	path := filepath.Join(l.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("map file not found, using test scene", "map", name, "path", path)
			m := TestScene()
			l.mu.Lock()
			l.cache[name] = m
			l.mu.Unlock()
			return m, nil
		}
		return nil, fmt.Errorf("failed to read map file %s: %w", path, err)
	}

	m, err := ParseMapYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse map file %s: %w", path, err)
	}

	l.mu.Lock()
	l.cache[name] = m
	l.mu.Unlock()

	logger.Info("map loaded", "map", m.Name, "boxes", len(m.Boxes))
	return m, nil
}

// ClearCache drops all cached maps.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache = make(map[string]*Map)
	l.mu.Unlock()
}

// ParseMapYAML parses and validates a map document.
func ParseMapYAML(data []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse map yaml: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid map: %w", err)
	}
	return &m, nil
}

// TestScene builds the built-in debugging map: flat ground with a few walls,
// a crate and a raised platform around the usual target region.
func TestScene() *Map {
	return &Map{
		Name:    "test_scene",
		GroundZ: 0,
		Bounds: Bounds{
			Min: models.Vec3{X: -4096, Y: -4096, Z: -64},
			Max: models.Vec3{X: 4096, Y: 4096, Z: 2048},
		},
		Boxes: []Box{
			{
				Name:        "wall_east",
				Center:      models.Vec3{X: 900, Y: 200, Z: 64},
				HalfExtents: models.Vec3{X: 16, Y: 256, Z: 64},
			},
			{
				Name:        "wall_north",
				Center:      models.Vec3{X: 200, Y: 900, Z: 96},
				HalfExtents: models.Vec3{X: 256, Y: 16, Z: 96},
			},
			{
				Name:        "crate",
				Center:      models.Vec3{X: 250, Y: 650, Z: 32},
				HalfExtents: models.Vec3{X: 32, Y: 32, Z: 32},
			},
			{
				Name:        "platform",
				Center:      models.Vec3{X: 650, Y: 250, Z: 48},
				HalfExtents: models.Vec3{X: 96, Y: 96, Z: 8},
			},
		},
		Spawns: map[string][]models.Vec3{
			"t": {
				{X: 256, Y: 640, Z: 16},
				{X: 300, Y: 600, Z: 16},
			},
			"ct": {
				{X: 768, Y: 640, Z: 16},
				{X: 800, Y: 600, Z: 16},
			},
		},
		Bombsites: map[string]models.Vec3{
			"A": {X: 500, Y: 500, Z: 16},
			"B": {X: 700, Y: 700, Z: 16},
		},
	}
}
