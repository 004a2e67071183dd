package service

import (
	"context"
	"fmt"
	"math/rand"

	"crisisnet_backend/internal/crisis/domain"

	"github.com/google/uuid"
)

// Drill scenarios spawn around the default coverage area.
var drillScenarios = []struct {
	title       string
	description string
	crisisType  string
	severity    string
}{
	{"Apartment fire reported", "Smoke visible from third floor, residents evacuating", domain.TypeFire, "high"},
	{"Multi-vehicle collision", "Three vehicles involved, injuries reported", domain.TypeAccident, "medium"},
	{"Cardiac emergency", "Elderly patient unresponsive, bystander CPR in progress", domain.TypeMedical, "critical"},
	{"Flash flooding", "Water rising in low-lying settlement, families stranded", domain.TypeNaturalDisaster, "critical"},
	{"Armed robbery in progress", "Suspects on scene, shots reported", domain.TypeCrime, "high"},
}

// SimulateCrisis creates a randomized drill crisis near the given point and
// runs it through the normal intake path.
func (s *Service) SimulateCrisis(ctx context.Context, lat, lon float64) (*CreateResult, error) {
	scenario := drillScenarios[rand.Intn(len(drillScenarios))]
	return s.CreateCrisis(ctx, CreateInput{
		Title:       "[DRILL] " + scenario.title,
		Description: scenario.description,
		Type:        scenario.crisisType,
		Severity:    scenario.severity,
		Latitude:    lat + (rand.Float64()-0.5)*0.02,
		Longitude:   lon + (rand.Float64()-0.5)*0.02,
		ReportedBy:  "simulation",
	})
}

// SimulateResponses makes each notified candidate answer the crisis with a
// 70% acceptance probability, exercising the full negotiation path.
func (s *Service) SimulateResponses(ctx context.Context, crisisID uuid.UUID) ([]NegotiationResult, error) {
	crisis, err := s.reg.Get(crisisID)
	if err != nil {
		return nil, err
	}

	results := make([]NegotiationResult, 0)
	for _, candidate := range crisis.Candidates {
		if !candidate.Notified {
			continue
		}
		accepts := rand.Float64() < 0.7
		in := ResponseInput{
			AgencyID:        candidate.AgencyID,
			AgencyName:      candidate.Name,
			Accepts:         accepts,
			ETAMinutes:      candidate.ETAMinutes,
			CapacityOffered: 1 + rand.Intn(5),
		}
		if !accepts {
			in.Reason = fmt.Sprintf("unit %s unavailable", candidate.AgencyID)
		}
		result, err := s.RecordResponse(ctx, crisisID, in)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}
