// Package matching ranks directory agencies against a crisis. The engine is
// stateless; candidate ordering is deterministic apart from ETA jitter, with
// agency id as the tie-break.
package matching

import (
	"sort"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/geo"
)

// Params describes one candidate search.
type Params struct {
	Origin      geo.Point
	CrisisType  string
	Severity    domain.Severity
	MaxDistance float64
	MaxResults  int
	// Exclude holds agency ids already proposed for the crisis; escalation
	// sweeps pass the accumulated candidate set here.
	Exclude map[string]struct{}
}

// Engine selects and ranks candidate agencies from the directory.
type Engine struct {
	dir    *directory.Directory
	scorer *geo.Scorer
}

// New creates a matching engine over the given directory.
func New(dir *directory.Directory, scorer *geo.Scorer) *Engine {
	return &Engine{dir: dir, scorer: scorer}
}

// FindCandidates returns up to MaxResults agencies within MaxDistance of the
// origin, ranked by match score ascending, plus the number of agencies that
// matched before truncation. Coverage decisions use the matched count, not
// the truncated slice. Busy agencies never appear; excluded ids are skipped
// before ranking.
func (e *Engine) FindCandidates(p Params) ([]domain.Candidate, int) {
	candidates := make([]domain.Candidate, 0)
	for _, agency := range e.dir.ListAvailable(p.Origin, p.MaxDistance) {
		if _, excluded := p.Exclude[agency.ID]; excluded {
			continue
		}
		distance := geo.DistanceKm(p.Origin, agency.Location)
		eta := e.scorer.ETAMinutes(distance, string(p.Severity))
		candidates = append(candidates, domain.Candidate{
			AgencyID:   agency.ID,
			Name:       agency.Name,
			Type:       agency.Type,
			Location:   agency.Location,
			DistanceKm: distance,
			ETAMinutes: eta,
			MatchScore: geo.MatchScore(distance, eta, agency.Type, p.CrisisType),
			Synthetic:  agency.Synthetic,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].MatchScore != candidates[j].MatchScore {
			return candidates[i].MatchScore < candidates[j].MatchScore
		}
		return candidates[i].AgencyID < candidates[j].AgencyID
	})

	matched := len(candidates)
	if p.MaxResults > 0 && matched > p.MaxResults {
		candidates = candidates[:p.MaxResults]
	}
	return candidates, matched
}
