package service

import (
	"context"
	"log/slog"
	"time"

	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/platform/apperr"
	"crisisnet_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ResponseInput is one agency's answer to a crisis notification.
type ResponseInput struct {
	AgencyID        string
	AgencyName      string
	Accepts         bool
	ETAMinutes      int
	CapacityOffered int
	Reason          string
}

// NegotiationResult reports how a response landed against the quotas.
type NegotiationResult struct {
	Crisis   domain.Crisis         `json:"crisis"`
	Response domain.ResponseRecord `json:"response"`
	// Counted is true when an accept landed in the accepted list.
	Counted bool `json:"counted"`
	// QuotaSatisfied is true when an accept arrived after its type quota
	// was already met. Informational, not an error.
	QuotaSatisfied bool `json:"quotaSatisfied"`
	// Duplicate is true when the agency had already accepted this crisis.
	Duplicate bool `json:"duplicate"`
	// AgencyKnown is false when the agency id is not in the directory; the
	// response is still logged but cannot count toward any quota.
	AgencyKnown bool `json:"agencyKnown"`
}

// RecordResponse applies an accept or decline to a crisis. Quota checks run
// inside the crisis's critical section so concurrent accepts of the same
// type cannot both pass; directory marks and broadcasting happen after the
// lock is released.
func (s *Service) RecordResponse(ctx context.Context, crisisID uuid.UUID, in ResponseInput) (*NegotiationResult, error) {
	agency, known := s.dir.Get(in.AgencyID)

	agencyName := sanitize.Text(in.AgencyName)
	agencyType := ""
	if known {
		agencyName = agency.Name
		agencyType = agency.Type
	}

	result := &NegotiationResult{AgencyKnown: known}
	now := time.Now().UTC()

	snapshot, err := s.reg.Update(crisisID, func(c *domain.Crisis) error {
		if c.Status == domain.StatusClosed {
			return apperr.New(apperr.KindConflict, "crisis is closed")
		}

		record := domain.ResponseRecord{
			AgencyID:        in.AgencyID,
			AgencyName:      agencyName,
			Accepts:         in.Accepts,
			ETAMinutes:      in.ETAMinutes,
			CapacityOffered: in.CapacityOffered,
			RespondedAt:     now,
			ResponseTime:    now.Sub(c.CreatedAt),
		}

		switch {
		case !in.Accepts:
			c.Rejected = append(c.Rejected, domain.RejectRecord{
				AgencyID:   in.AgencyID,
				AgencyName: agencyName,
				Reason:     sanitize.Text(in.Reason),
				RejectedAt: now,
			})

		case !known:
			// Unknown agency: log the response but nothing to enforce a
			// type quota against, so it cannot be counted.

		case c.HasAccepted(in.AgencyID):
			result.Duplicate = true

		case c.AcceptedOfType(agencyType) < c.Needed.PerType[agencyType]:
			c.Accepted = append(c.Accepted, domain.AcceptRecord{
				AgencyID:        in.AgencyID,
				AgencyName:      agencyName,
				AgencyType:      agencyType,
				ETAMinutes:      in.ETAMinutes,
				CapacityOffered: in.CapacityOffered,
				AcceptedAt:      now,
			})
			record.Counted = true
			result.Counted = true

		default:
			result.QuotaSatisfied = true
		}

		c.Responses = append(c.Responses, record)
		c.RecomputeStatus()
		c.RecomputeAverageETA()
		result.Response = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Crisis = snapshot

	// Accepting agencies go busy even when the quota was already met, to
	// avoid stranding a unit that believes it is en route.
	if in.Accepts && known && !result.Duplicate {
		s.dir.MarkBusy(in.AgencyID, crisisID.String())
	}

	s.publish(ctx, events.AgencyResponded{
		BaseEvent: events.NewBaseEvent(),
		CrisisID:  crisisID,
		Crisis:    snapshot,
		Response:  result.Response,
	})
	s.log.DispatchEvent("response recorded", crisisID.String(),
		slog.String("agency_id", in.AgencyID),
		slog.Bool("accepts", in.Accepts),
		slog.Bool("counted", result.Counted),
		slog.String("status", string(snapshot.Status)),
	)

	return result, nil
}
