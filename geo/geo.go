// Package geo ranks restaurants by great-circle distance from a customer.
package geo

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"swiftserve/models"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine.
	EarthRadiusKm = 6371.0
	// DefaultRadiusKm bounds "nearby" when the caller gives no radius.
	DefaultRadiusKm = 10.0
)

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p lies within the usual latitude/longitude ranges.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dlon/2), 2)
	// rounding can push a a hair past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Nearby is one ranked restaurant with its rounded distance.
type Nearby struct {
	Restaurant models.Restaurant `json:"restaurant"`
	Distance   float64           `json:"distance"`
}

// FindNearby keeps restaurants strictly closer than radiusKm to user and
// returns them sorted by ascending distance, rounded to two decimals.
// Restaurants without coordinates are skipped.
func FindNearby(user Point, restaurants []models.Restaurant, radiusKm float64) []Nearby {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	type ranked struct {
		r    models.Restaurant
		dist float64
	}
	var hits []ranked
	for _, r := range restaurants {
		if !r.HasLocation() {
			continue
		}
		d := Haversine(user.Lat, user.Lon, *r.Latitude, *r.Longitude)
		if d < radiusKm {
			hits = append(hits, ranked{r: r, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]Nearby, len(hits))
	for i, h := range hits {
		out[i] = Nearby{Restaurant: h.r, Distance: round2(h.dist)}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseCoordinate converts user input to a float, returning nil for blank or
// malformed values so callers can store "no location".
func ParseCoordinate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParsePoint parses a lat/lon pair; ok is false if either part is invalid.
func ParsePoint(lat, lon string) (Point, bool) {
	la, lo := ParseCoordinate(lat), ParseCoordinate(lon)
	if la == nil || lo == nil {
		return Point{}, false
	}
	p := Point{Lat: *la, Lon: *lo}
	return p, p.Valid()
}
