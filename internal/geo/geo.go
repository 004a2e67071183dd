// Package geo provides pure distance, ETA, and match-score computation for
// crisis-to-agency ranking. It holds no state beyond an injectable jitter
// source and knows nothing about registries or transports.
package geo

import (
	"math"
	"math/rand"
	"sync"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle (haversine) distance between two
// points in kilometers. Symmetric; zero iff the coordinates are identical.
func DistanceKm(a, b Point) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

const (
	baseSpeedKmh     = 40.0
	criticalSpeedKmh = 60.0
	// Applied to effective speed on critical runs: lights and sirens move
	// faster but still hit congestion.
	criticalCongestionFactor = 0.8

	severityCritical = "critical"
)

// Scorer computes ETAs and match scores. The jitter source adds 0-3 minutes
// to every ETA so callers don't read false precision into the estimate.
type Scorer struct {
	mu     sync.Mutex
	jitter func() int
}

// NewScorer creates a Scorer with a random jitter source.
func NewScorer() *Scorer {
	rng := rand.New(rand.NewSource(rand.Int63()))
	return &Scorer{jitter: func() int { return rng.Intn(4) }}
}

// NewScorerWithJitter creates a Scorer with a fixed jitter source, for
// deterministic tests.
func NewScorerWithJitter(jitter func() int) *Scorer {
	return &Scorer{jitter: jitter}
}

// ETAMinutes estimates travel time in minutes for the given distance.
// Base speed is 40 km/h, raised to 60 km/h (with the congestion factor) for
// critical severity. The result is floored at 1 minute.
func (s *Scorer) ETAMinutes(distanceKm float64, severity string) int {
	speed := baseSpeedKmh
	trafficFactor := 1.0
	if severity == severityCritical {
		speed = criticalSpeedKmh
		trafficFactor *= criticalCongestionFactor
	}

	travelMinutes := distanceKm / (speed * trafficFactor) * 60

	s.mu.Lock()
	travelMinutes += float64(s.jitter())
	s.mu.Unlock()

	if travelMinutes < 1 {
		return 1
	}
	return int(travelMinutes)
}

const (
	affinityBaseline  = 1.0
	affinityTypeMatch = 2.0
	// NDRF-style units take priority on natural disasters regardless of the
	// reported category matching.
	affinityDisasterOverride = 3.0

	crisisTypeNaturalDisaster  = "natural_disaster"
	agencyTypeDisasterResponse = "disaster_management"
)

// TypeAffinity returns the type-affinity multiplier for an agency responding
// to a crisis of the given type.
func TypeAffinity(agencyType, crisisType string) float64 {
	if crisisType == crisisTypeNaturalDisaster && agencyType == agencyTypeDisasterResponse {
		return affinityDisasterOverride
	}
	if agencyType == crisisType {
		return affinityTypeMatch
	}
	return affinityBaseline
}

// MatchScore ranks an agency for a crisis. Lower is better: distance divided
// by type affinity plus a small ETA penalty.
func MatchScore(distanceKm float64, etaMinutes int, agencyType, crisisType string) float64 {
	return distanceKm/TypeAffinity(agencyType, crisisType) + 0.1*float64(etaMinutes)
}
