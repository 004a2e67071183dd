package service

import (
	"context"
	"math"
	"time"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
)

// Summary is the operational analytics snapshot for dashboards.
type Summary struct {
	TotalCrises  int            `json:"totalCrises"`
	ActiveCrises int            `json:"activeCrises"`
	ByStatus     map[string]int `json:"byStatus"`
	BySeverity   map[string]int `json:"bySeverity"`
	ByType       map[string]int `json:"byType"`

	CrisesLastHour int `json:"crisesLastHour"`

	TotalResponses        int     `json:"totalResponses"`
	TotalAccepts          int     `json:"totalAccepts"`
	TotalRejects          int     `json:"totalRejects"`
	AcceptanceRate        float64 `json:"acceptanceRate"`
	AverageResponseMins   float64 `json:"averageResponseMinutes"`
	AverageAcceptedETA    float64 `json:"averageAcceptedEta"`
	EscalatedCrises       int     `json:"escalatedCrises"`
	TotalEscalationLevels int     `json:"totalEscalationLevels"`

	Agencies AgencySummary `json:"agencies"`

	// ConnectedAgencies counts agencies with a live SSE stream. Zero when
	// no stream service is wired.
	ConnectedAgencies int `json:"connectedAgencies"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// AgencySummary is the directory-side half of the analytics snapshot.
type AgencySummary struct {
	Total      int   `json:"total"`
	Available  int   `json:"available"`
	Busy       int   `json:"busy"`
	Offline    int   `json:"offline"`
	Synthetic  int   `json:"synthetic"`
	StaleMarks int64 `json:"staleMarks"`
}

// AnalyticsSummary aggregates the current registry and directory state.
func (s *Service) AnalyticsSummary(_ context.Context) Summary {
	summary := Summary{
		ByStatus:    make(map[string]int),
		BySeverity:  make(map[string]int),
		ByType:      make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}

	var responseMinutes float64
	var responseSamples int
	var acceptingResponses int
	var etaSum int
	var etaSamples int

	hourAgo := time.Now().Add(-time.Hour)
	for _, crisis := range s.reg.List() {
		summary.TotalCrises++
		if crisis.Status != domain.StatusClosed {
			summary.ActiveCrises++
		}
		if crisis.CreatedAt.After(hourAgo) {
			summary.CrisesLastHour++
		}
		summary.ByStatus[string(crisis.Status)]++
		summary.BySeverity[string(crisis.Severity)]++
		summary.ByType[crisis.Type]++

		summary.TotalResponses += len(crisis.Responses)
		summary.TotalRejects += len(crisis.Rejected)
		summary.TotalAccepts += len(crisis.Accepted)

		for _, response := range crisis.Responses {
			responseMinutes += response.ResponseTime.Minutes()
			responseSamples++
			if response.Accepts {
				acceptingResponses++
			}
		}
		for _, accept := range crisis.Accepted {
			etaSum += accept.ETAMinutes
			etaSamples++
		}
		if crisis.EscalationLevel > 0 {
			summary.EscalatedCrises++
			summary.TotalEscalationLevels += crisis.EscalationLevel
		}
	}

	if responseSamples > 0 {
		summary.AverageResponseMins = math.Round(responseMinutes/float64(responseSamples)*10) / 10
	}
	if summary.TotalResponses > 0 {
		summary.AcceptanceRate = math.Round(float64(acceptingResponses)/float64(summary.TotalResponses)*1000) / 1000
	}
	if etaSamples > 0 {
		summary.AverageAcceptedETA = math.Round(float64(etaSum)/float64(etaSamples)*10) / 10
	}

	for _, agency := range s.dir.List() {
		summary.Agencies.Total++
		switch agency.Status {
		case directory.StatusBusy:
			summary.Agencies.Busy++
		case directory.StatusOffline:
			summary.Agencies.Offline++
		default:
			summary.Agencies.Available++
		}
		if agency.Synthetic {
			summary.Agencies.Synthetic++
		}
	}
	summary.Agencies.StaleMarks = s.dir.StaleMarkCount()

	if s.connections != nil {
		summary.ConnectedAgencies = s.connections.ConnectedAgencies()
	}

	return summary
}

// CrisisMetrics is the per-crisis response digest attached to detail reads.
type CrisisMetrics struct {
	TotalResponses      int     `json:"totalResponses"`
	Accepts             int     `json:"accepts"`
	Rejects             int     `json:"rejects"`
	AcceptanceRate      float64 `json:"acceptanceRate"`
	AverageResponseMins float64 `json:"averageResponseMinutes"`
}

// MetricsFor digests one crisis's response history.
func MetricsFor(crisis domain.Crisis) CrisisMetrics {
	metrics := CrisisMetrics{
		TotalResponses: len(crisis.Responses),
		Rejects:        len(crisis.Rejected),
	}

	var minutes float64
	for _, response := range crisis.Responses {
		minutes += response.ResponseTime.Minutes()
		if response.Accepts {
			metrics.Accepts++
		}
	}
	if metrics.TotalResponses > 0 {
		metrics.AcceptanceRate = math.Round(float64(metrics.Accepts)/float64(metrics.TotalResponses)*1000) / 1000
		metrics.AverageResponseMins = math.Round(minutes/float64(metrics.TotalResponses)*10) / 10
	}
	return metrics
}
