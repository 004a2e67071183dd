package matching

import (
	"fmt"
	"math/rand"
	"sync"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/geo"
	"crisisnet_backend/platform/logger"
)

// SyntheticSupplyPolicy backfills candidate lists when real coverage around
// a crisis falls below the minimum. Spawned agencies are registered in the
// directory like any other, tagged Synthetic so dashboards and notification
// transports can tell them apart.
type SyntheticSupplyPolicy struct {
	dir *directory.Directory
	log *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
	seq int
}

// NewSyntheticSupplyPolicy creates a policy over the given directory.
func NewSyntheticSupplyPolicy(dir *directory.Directory, log *logger.Logger, seed int64) *SyntheticSupplyPolicy {
	return &SyntheticSupplyPolicy{
		dir: dir,
		log: log,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Backfill spawns count synthetic agencies near the origin, registers them,
// and returns them as ranked candidates appended after the real ones.
func (p *SyntheticSupplyPolicy) Backfill(origin geo.Point, crisisType string, severity domain.Severity, count int, scorer *geo.Scorer) []domain.Candidate {
	if count <= 0 {
		return nil
	}

	agencyType := syntheticTypeFor(crisisType)
	candidates := make([]domain.Candidate, 0, count)
	for i := 0; i < count; i++ {
		agency := p.spawn(origin, agencyType)
		p.dir.Upsert(agency)

		distance := geo.DistanceKm(origin, agency.Location)
		eta := scorer.ETAMinutes(distance, string(severity))
		candidates = append(candidates, domain.Candidate{
			AgencyID:   agency.ID,
			Name:       agency.Name,
			Type:       agency.Type,
			Location:   agency.Location,
			DistanceKm: distance,
			ETAMinutes: eta,
			MatchScore: geo.MatchScore(distance, eta, agency.Type, crisisType),
			Synthetic:  true,
		})
	}
	p.log.Warn("synthetic supply backfill", "origin_lat", origin.Lat, "origin_lon", origin.Lon, "spawned", count, "type", agencyType)
	return candidates
}

// spawn builds one synthetic agency within roughly 2km of the origin.
func (p *SyntheticSupplyPolicy) spawn(origin geo.Point, agencyType string) directory.Agency {
	p.mu.Lock()
	p.seq++
	id := fmt.Sprintf("dummy_%04d", p.seq)
	latOffset := (p.rng.Float64() - 0.5) * 0.04
	lonOffset := (p.rng.Float64() - 0.5) * 0.04
	capacity := 5 + p.rng.Intn(16)
	p.mu.Unlock()

	return directory.Agency{
		ID:        id,
		Name:      fmt.Sprintf("Reserve Unit %s", id),
		Type:      agencyType,
		Location:  geo.Point{Lat: origin.Lat + latOffset, Lon: origin.Lon + lonOffset},
		Capacity:  capacity,
		Synthetic: true,
	}
}

// syntheticTypeFor picks the agency type a synthetic unit should carry so
// it ranks with the right affinity for the crisis.
func syntheticTypeFor(crisisType string) string {
	switch crisisType {
	case domain.TypeMedical:
		return "medical"
	case domain.TypeFire:
		return "fire"
	case domain.TypeNaturalDisaster:
		return "disaster_management"
	case domain.TypeCrime:
		return "police"
	default:
		return "rescue"
	}
}
