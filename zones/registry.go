package zones

import (
	_ "embed"
	"fmt"
	"math"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"go-floodline/types"
)

//go:embed registry.yaml
var registryYAML []byte

const earthRadiusKM = 6371.0

// Registry holds the fixed zone set and merges the two independent refresh
// streams (satellite inundation/cloud and real-time precipitation) into zone
// state. Zones are never created or destroyed after seeding.
type Registry struct {
	mu    sync.RWMutex
	zones map[string]*types.Zone
	order []string

	origin         types.LatLng
	unitsPerDegree float64

	clock clockwork.Clock
	log   *logrus.Logger
}

type seedFile struct {
	Projection struct {
		Origin         types.LatLng `yaml:"origin"`
		UnitsPerDegree float64      `yaml:"unitsPerDegree"`
	} `yaml:"projection"`
	Zones []types.Zone `yaml:"zones"`
}

// NewRegistry seeds zones from the embedded registry file.
func NewRegistry(log *logrus.Logger, clock clockwork.Clock) (*Registry, error) {
	var seed seedFile
	if err := yaml.Unmarshal(registryYAML, &seed); err != nil {
		return nil, fmt.Errorf("parse zone registry: %w", err)
	}
	if len(seed.Zones) == 0 {
		return nil, fmt.Errorf("zone registry is empty")
	}

	r := &Registry{
		zones:          make(map[string]*types.Zone, len(seed.Zones)),
		origin:         seed.Projection.Origin,
		unitsPerDegree: seed.Projection.UnitsPerDegree,
		clock:          clock,
		log:            log,
	}

	for i := range seed.Zones {
		z := seed.Zones[i]
		if len(z.Boundary) < 3 {
			return nil, fmt.Errorf("zone %s: boundary needs at least 3 vertices", z.ID)
		}
		z.CloudStatus = types.CloudClear
		z.LastRefresh = "awaiting first satellite pass"
		r.zones[z.ID] = z.Clone()
		r.order = append(r.order, z.ID)
	}

	log.WithField("zones", len(r.order)).Info("Zone registry seeded")
	return r, nil
}

// Project converts a geodetic point into the local schematic grid.
func (r *Registry) Project(ll types.LatLng) types.GridPoint {
	return types.GridPoint{
		X: (ll.Lng - r.origin.Lng) * r.unitsPerDegree,
		Y: (r.origin.Lat - ll.Lat) * r.unitsPerDegree,
	}
}

// Get returns a copy of the zone.
func (r *Registry) Get(id string) (*types.Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	z, ok := r.zones[id]
	if !ok {
		return nil, fmt.Errorf("zone %s: %w", id, types.ErrNotFound)
	}
	return z.Clone(), nil
}

// All returns copies of every zone in seed order.
func (r *Registry) All() []*types.Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.Zone, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.zones[id].Clone())
	}
	return out
}

// Resolve finds the zone whose boundary contains the grid point, falling back
// to the zone with the nearest centroid for points outside every polygon.
func (r *Registry) Resolve(p types.GridPoint) (*types.Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		z := r.zones[id]
		if containsPoint(z.Boundary, p) {
			return z.Clone(), nil
		}
	}

	ll := r.unproject(p)
	var nearest *types.Zone
	best := math.MaxFloat64
	for _, id := range r.order {
		z := r.zones[id]
		d := haversineDistance(ll.Lat, ll.Lng, z.Centroid.Lat, z.Centroid.Lng)
		if d < best {
			best = d
			nearest = z
		}
	}
	if nearest == nil {
		return nil, fmt.Errorf("resolve grid point: %w", types.ErrNotFound)
	}
	return nearest.Clone(), nil
}

// ApplyInundationUpdate merges a satellite refresh: the level is clamped to
// [0,1], cloud status overwritten and the refresh marker stamped.
// Precipitation is untouched, so this commutes with ApplyPrecipitationUpdate.
func (r *Registry) ApplyInundationUpdate(id string, level float64, status types.CloudStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	z, ok := r.zones[id]
	if !ok {
		return fmt.Errorf("zone %s: %w", id, types.ErrNotFound)
	}

	z.Inundation = clamp01(level)
	z.CloudStatus = status
	z.LastRefresh = "updated " + r.clock.Now().Format("15:04")

	r.log.WithFields(logrus.Fields{
		"zone":       id,
		"inundation": z.Inundation,
		"cloud":      status,
	}).Debug("Satellite refresh applied")
	return nil
}

// ApplyPrecipitationUpdate merges a weather refresh. Only precipitation
// changes; the refresh marker tracks satellite passes, not weather ticks.
func (r *Registry) ApplyPrecipitationUpdate(id string, mm float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	z, ok := r.zones[id]
	if !ok {
		return fmt.Errorf("zone %s: %w", id, types.ErrNotFound)
	}

	if mm < 0 {
		mm = 0
	}
	z.PrecipitationMM = mm
	return nil
}

func (r *Registry) unproject(p types.GridPoint) types.LatLng {
	return types.LatLng{
		Lat: r.origin.Lat - p.Y/r.unitsPerDegree,
		Lng: r.origin.Lng + p.X/r.unitsPerDegree,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// containsPoint runs a ray cast along +X counting boundary crossings.
func containsPoint(poly []types.GridPoint, p types.GridPoint) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// haversineDistance calculates the great-circle distance between two points
// on the earth (specified in decimal degrees).
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	radLat1 := lat1 * math.Pi / 180
	radLon1 := lon1 * math.Pi / 180
	radLat2 := lat2 * math.Pi / 180
	radLon2 := lon2 * math.Pi / 180

	deltaLat := radLat2 - radLat1
	deltaLon := radLon2 - radLon1

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(radLat1)*math.Cos(radLat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}
