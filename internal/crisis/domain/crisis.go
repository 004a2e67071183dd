// Package domain holds the crisis aggregate and its negotiation records.
// All mutation happens inside the registry's per-crisis critical section;
// the types here carry no locks of their own.
package domain

import (
	"math"
	"time"

	"crisisnet_backend/internal/geo"

	"github.com/google/uuid"
)

// Severity of a crisis. Supplied by the external analyzer and treated as
// opaque beyond ordering dispatch speed.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether the value is a known severity level.
func ValidSeverity(value string) bool {
	switch Severity(value) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Known crisis type taxonomy. The type is an open string: unknown categories
// rank with baseline affinity rather than being rejected.
const (
	TypeMedical         = "medical"
	TypeFire            = "fire"
	TypeNaturalDisaster = "natural_disaster"
	TypeAccident        = "accident"
	TypeCrime           = "crime"
	TypeOther           = "other"
)

// Status is the assignment state of a crisis. Transitions only move forward:
// pending -> partially_assigned -> fully_assigned, and closed from anywhere.
// Escalation is tracked as a level counter, not a status value.
type Status string

const (
	StatusPending           Status = "pending"
	StatusPartiallyAssigned Status = "partially_assigned"
	StatusFullyAssigned     Status = "fully_assigned"
	StatusClosed            Status = "closed"
)

// Quotas is the required agency count per type plus the overall total.
type Quotas struct {
	PerType map[string]int `json:"perType"`
	Total   int            `json:"total"`
}

// DefaultQuotas builds the fallback quota set when the analyzer supplied
// none: one agency per inferred type, total equal to the number of types.
func DefaultQuotas(types ...string) Quotas {
	perType := make(map[string]int, len(types))
	for _, t := range types {
		if t == "" {
			continue
		}
		perType[t] = 1
	}
	return Quotas{PerType: perType, Total: len(perType)}
}

// Candidate is a ranked agency proposed for a crisis at matching time.
type Candidate struct {
	AgencyID   string    `json:"agencyId"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Location   geo.Point `json:"location"`
	DistanceKm float64   `json:"distanceKm"`
	ETAMinutes int       `json:"etaMinutes"`
	MatchScore float64   `json:"matchScore"`
	Synthetic  bool      `json:"synthetic,omitempty"`
	Notified   bool      `json:"notified"`
}

// AcceptRecord is one counted acceptance.
type AcceptRecord struct {
	AgencyID        string    `json:"agencyId"`
	AgencyName      string    `json:"agencyName"`
	AgencyType      string    `json:"agencyType"`
	ETAMinutes      int       `json:"etaMinutes"`
	CapacityOffered int       `json:"capacityOffered"`
	AcceptedAt      time.Time `json:"acceptedAt"`
}

// RejectRecord is one declined response.
type RejectRecord struct {
	AgencyID   string    `json:"agencyId"`
	AgencyName string    `json:"agencyName"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejectedAt"`
}

// ResponseRecord is the full log entry for any response, counted or not.
type ResponseRecord struct {
	AgencyID        string        `json:"agencyId"`
	AgencyName      string        `json:"agencyName"`
	Accepts         bool          `json:"accepts"`
	ETAMinutes      int           `json:"etaMinutes"`
	CapacityOffered int           `json:"capacityOffered"`
	RespondedAt     time.Time     `json:"respondedAt"`
	ResponseTime    time.Duration `json:"-"`
	// Counted is true when the accept landed in the accepted list.
	// An accept with Counted=false arrived after its type quota was met.
	Counted bool `json:"counted"`
}

// LocationUpdate is one positional ping from a responding unit.
type LocationUpdate struct {
	AgencyID string    `json:"agencyId"`
	Location geo.Point `json:"location"`
	Note     string    `json:"note,omitempty"`
	At       time.Time `json:"at"`
}

// Assessment is the severity analyzer's output, opaque to dispatch logic
// beyond the severity level and the required-resources quota input.
type Assessment struct {
	AssessedSeverity   string         `json:"assessedSeverity"`
	Confidence         float64        `json:"confidenceScore"`
	Reasoning          string         `json:"reasoning"`
	RequiredResources  map[string]int `json:"requiredResources"`
	RecommendedActions []string       `json:"recommendedActions"`
}

// Crisis is the aggregate root for one reported incident.
type Crisis struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Type          string      `json:"crisisType"`
	Severity      Severity    `json:"severity"`
	Location      geo.Point   `json:"location"`
	ContactNumber string      `json:"contactNumber"`
	ReportedBy    string      `json:"reportedBy"`
	ReporterID    string      `json:"reporterId,omitempty"`
	PhotoURL      string      `json:"photoUrl,omitempty"`
	Analysis      *Assessment `json:"aiAnalysis,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`

	Status          Status           `json:"status"`
	Needed          Quotas           `json:"agenciesNeeded"`
	Candidates      []Candidate      `json:"candidateAgencies"`
	Accepted        []AcceptRecord   `json:"acceptedAgencies"`
	Rejected        []RejectRecord   `json:"rejectedAgencies"`
	Responses       []ResponseRecord `json:"responses"`
	AverageETA      float64          `json:"averageEta"`
	EscalationLevel int              `json:"escalationLevel"`
	LocationUpdates []LocationUpdate `json:"locationUpdates"`
	ClosedAt        *time.Time       `json:"closedAt,omitempty"`
}

// AcceptedOfType counts counted acceptances for one agency type.
func (c *Crisis) AcceptedOfType(agencyType string) int {
	count := 0
	for _, record := range c.Accepted {
		if record.AgencyType == agencyType {
			count++
		}
	}
	return count
}

// HasAccepted reports whether the agency already has a counted acceptance.
func (c *Crisis) HasAccepted(agencyID string) bool {
	for _, record := range c.Accepted {
		if record.AgencyID == agencyID {
			return true
		}
	}
	return false
}

// CandidateIDs returns the set of every agency ever proposed for this
// crisis, across creation and all escalations.
func (c *Crisis) CandidateIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Candidates))
	for _, candidate := range c.Candidates {
		ids[candidate.AgencyID] = struct{}{}
	}
	return ids
}

// RecomputeStatus moves status forward from the accepted counts. It never
// regresses an assignment level and never touches closed crises.
func (c *Crisis) RecomputeStatus() {
	if c.Status == StatusClosed {
		return
	}
	accepted := len(c.Accepted)
	switch {
	case c.Needed.Total > 0 && accepted >= c.Needed.Total:
		c.Status = StatusFullyAssigned
	case accepted > 0 && c.Status != StatusFullyAssigned:
		c.Status = StatusPartiallyAssigned
	}
}

// RecomputeAverageETA refreshes the mean ETA over accepted agencies,
// rounded to one decimal.
func (c *Crisis) RecomputeAverageETA() {
	if len(c.Accepted) == 0 {
		c.AverageETA = 0
		return
	}
	sum := 0
	for _, record := range c.Accepted {
		sum += record.ETAMinutes
	}
	mean := float64(sum) / float64(len(c.Accepted))
	c.AverageETA = math.Round(mean*10) / 10
}

// Clone returns a deep copy safe to hand outside the registry's lock.
func (c *Crisis) Clone() Crisis {
	clone := *c

	clone.Candidates = append([]Candidate(nil), c.Candidates...)
	clone.Accepted = append([]AcceptRecord(nil), c.Accepted...)
	clone.Rejected = append([]RejectRecord(nil), c.Rejected...)
	clone.Responses = append([]ResponseRecord(nil), c.Responses...)
	clone.LocationUpdates = append([]LocationUpdate(nil), c.LocationUpdates...)

	if c.Analysis != nil {
		analysis := *c.Analysis
		if c.Analysis.RequiredResources != nil {
			analysis.RequiredResources = make(map[string]int, len(c.Analysis.RequiredResources))
			for k, v := range c.Analysis.RequiredResources {
				analysis.RequiredResources[k] = v
			}
		}
		analysis.RecommendedActions = append([]string(nil), c.Analysis.RecommendedActions...)
		clone.Analysis = &analysis
	}

	if c.Needed.PerType != nil {
		perType := make(map[string]int, len(c.Needed.PerType))
		for k, v := range c.Needed.PerType {
			perType[k] = v
		}
		clone.Needed.PerType = perType
	}

	if c.ClosedAt != nil {
		closedAt := *c.ClosedAt
		clone.ClosedAt = &closedAt
	}

	return clone
}
