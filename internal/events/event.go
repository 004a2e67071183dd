// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event     = events.Event
	Bus       = events.Bus
	Handler   = events.Handler
	BaseEvent = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Crisis Domain Events
// =============================================================================

// CrisisReported is published after a crisis is created and its initial
// candidate agencies have been selected.
type CrisisReported struct {
	BaseEvent
	CrisisID uuid.UUID          `json:"crisisId"`
	Crisis   domain.Crisis      `json:"crisis"`
	Notified []domain.Candidate `json:"notified"`
}

func (e CrisisReported) EventName() string { return "crisis.reported" }

// AgencyResponded is published after an agency's accept or reject has been
// recorded against a crisis.
type AgencyResponded struct {
	BaseEvent
	CrisisID uuid.UUID             `json:"crisisId"`
	Crisis   domain.Crisis         `json:"crisis"`
	Response domain.ResponseRecord `json:"response"`
}

func (e AgencyResponded) EventName() string { return "crisis.response.recorded" }

// CrisisEscalated is published when a coverage sweep widened the candidate
// pool. NewCandidates holds only agencies not previously proposed.
type CrisisEscalated struct {
	BaseEvent
	CrisisID      uuid.UUID          `json:"crisisId"`
	Crisis        domain.Crisis      `json:"crisis"`
	Level         int                `json:"level"`
	NewCandidates []domain.Candidate `json:"newCandidates"`
}

func (e CrisisEscalated) EventName() string { return "crisis.escalated" }

// CrisisClosed is published when a crisis is resolved and its accepted
// agencies are released back to the available pool.
type CrisisClosed struct {
	BaseEvent
	CrisisID uuid.UUID     `json:"crisisId"`
	Crisis   domain.Crisis `json:"crisis"`
	Released []string      `json:"released"`
}

func (e CrisisClosed) EventName() string { return "crisis.closed" }

// CrisisLocationUpdated is published when a responding unit reports a
// positional update for an active crisis.
type CrisisLocationUpdated struct {
	BaseEvent
	CrisisID uuid.UUID             `json:"crisisId"`
	Update   domain.LocationUpdate `json:"update"`
}

func (e CrisisLocationUpdated) EventName() string { return "crisis.location_updated" }

// =============================================================================
// Agency Domain Events
// =============================================================================

// AgencyStatusChanged is published when an agency transitions between
// available, busy, and offline.
type AgencyStatusChanged struct {
	BaseEvent
	AgencyID string           `json:"agencyId"`
	Agency   directory.Agency `json:"agency"`
}

func (e AgencyStatusChanged) EventName() string { return "agency.status_changed" }

// AgencyRegistered is published when a new agency joins the directory.
type AgencyRegistered struct {
	BaseEvent
	AgencyID string           `json:"agencyId"`
	Agency   directory.Agency `json:"agency"`
}

func (e AgencyRegistered) EventName() string { return "agency.registered" }
