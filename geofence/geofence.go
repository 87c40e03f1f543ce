// Package geofence decides whether a reported coordinate lies inside one of the
// configured attendance zones.
package geofence

import (
	"math"
	"sort"
)

// EarthRadiusMeters is the mean earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Zone is a circle on the earth surface, identified by ID.
type Zone struct {
	ID           string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Distance returns the great-circle distance in meters between two points given in degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	// rounding can push a slightly above 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	return 2 * math.Asin(math.Sqrt(a)) * EarthRadiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Checker tests coordinates against a fixed set of zones. It is safe for concurrent use.
type Checker struct {
	zones []Zone
}

// NewChecker builds a Checker from a zone-id to zone mapping. Zones are evaluated in id order.
func NewChecker(zones map[string]Zone) *Checker {
	ids := make([]string, 0, len(zones))
	for id := range zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c := &Checker{zones: make([]Zone, 0, len(ids))}
	for _, id := range ids {
		z := zones[id]
		z.ID = id
		c.zones = append(c.zones, z)
	}
	return c
}

// Zones returns a copy of the configured zones.
func (c *Checker) Zones() []Zone {
	return append([]Zone(nil), c.zones...)
}

// Contains reports whether (lat, lon) is within the radius of any zone. The boundary is inclusive.
func (c *Checker) Contains(lat, lon float64) bool {
	_, ok := c.Match(lat, lon)
	return ok
}

// Match returns the first zone containing (lat, lon).
func (c *Checker) Match(lat, lon float64) (Zone, bool) {
	if !valid(lat, lon) {
		return Zone{}, false
	}
	for _, z := range c.zones {
		if Distance(lat, lon, z.Latitude, z.Longitude) <= z.RadiusMeters {
			return z, true
		}
	}
	return Zone{}, false
}

// Nearest returns the zone whose center is closest to (lat, lon) and the distance to it.
// ok is false when no zones are configured or the input is not a valid coordinate.
func (c *Checker) Nearest(lat, lon float64) (zone Zone, meters float64, ok bool) {
	if !valid(lat, lon) {
		return Zone{}, 0, false
	}
	meters = math.Inf(1)
	for _, z := range c.zones {
		if d := Distance(lat, lon, z.Latitude, z.Longitude); d < meters {
			zone, meters, ok = z, d, true
		}
	}
	return zone, meters, ok
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// valid rejects non-finite and out of range coordinates.
func valid(lat, lon float64) bool {
	return finite(lat) && finite(lon) && math.Abs(lat) <= 90 && math.Abs(lon) <= 180
}
