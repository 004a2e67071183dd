package service

import (
	"context"
	"log/slog"

	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/crisis/matching"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	escalationMaxResults = 10
	escalationNotifyTopN = 5
	// Each escalation widens the search past the base match radius.
	escalationRadiusMultiplier = 5.0
)

// EscalationResult reports a widened candidate sweep.
type EscalationResult struct {
	Crisis        domain.Crisis      `json:"crisis"`
	Level         int                `json:"level"`
	NewCandidates []domain.Candidate `json:"newCandidates"`
	Notified      []domain.Candidate `json:"notified"`
}

// Escalate re-runs matching over a wider radius, excluding every agency
// already proposed, and appends the unique finds to the candidate pool.
// Prior acceptances are never touched; an already-notified agency is never
// re-notified.
func (s *Service) Escalate(ctx context.Context, crisisID uuid.UUID) (*EscalationResult, error) {
	var newCandidates []domain.Candidate
	var notified []domain.Candidate
	var level int

	snapshot, err := s.reg.Update(crisisID, func(c *domain.Crisis) error {
		if c.Status == domain.StatusClosed {
			return apperr.New(apperr.KindConflict, "crisis is closed")
		}

		// Directory reads take no locks the registry depends on, so the
		// sweep can run inside the critical section and stay atomic with
		// the candidate append.
		found, _ := s.engine.FindCandidates(matching.Params{
			Origin:      c.Location,
			CrisisType:  c.Type,
			Severity:    c.Severity,
			MaxDistance: s.cfg.GetMatchRadiusKm() * escalationRadiusMultiplier,
			MaxResults:  escalationMaxResults,
			Exclude:     c.CandidateIDs(),
		})

		topN := escalationNotifyTopN
		if topN > len(found) {
			topN = len(found)
		}
		for i := 0; i < topN; i++ {
			found[i].Notified = true
		}

		c.Candidates = append(c.Candidates, found...)
		c.EscalationLevel++

		newCandidates = found
		notified = append([]domain.Candidate(nil), found[:topN]...)
		level = c.EscalationLevel
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.CrisisEscalated{
		BaseEvent:     events.NewBaseEvent(),
		CrisisID:      crisisID,
		Crisis:        snapshot,
		Level:         level,
		NewCandidates: newCandidates,
	})
	s.log.DispatchEvent("crisis escalated", crisisID.String(),
		slog.Int("level", level),
		slog.Int("new_candidates", len(newCandidates)),
		slog.Int("notified", len(notified)),
	)

	return &EscalationResult{
		Crisis:        snapshot,
		Level:         level,
		NewCandidates: newCandidates,
		Notified:      notified,
	}, nil
}

// EscalateIfUncovered is the scheduled coverage check: it escalates only
// when the crisis is still open and short of its quota, and re-arms the
// next sweep while coverage remains thin.
func (s *Service) EscalateIfUncovered(ctx context.Context, crisisID uuid.UUID) error {
	crisis, err := s.reg.Get(crisisID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	if crisis.Status == domain.StatusClosed || crisis.Status == domain.StatusFullyAssigned {
		return nil
	}

	if _, err := s.Escalate(ctx, crisisID); err != nil {
		return err
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleEscalationCheck(ctx, crisisID, s.cfg.GetEscalationSweepInterval()); err != nil {
			s.log.CollaboratorFailure("escalation scheduler", err)
		}
	}
	return nil
}
