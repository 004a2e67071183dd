package analyzer

import (
	"context"
	"strings"

	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/crisis/service"
)

// KeywordAnalyzer scores severity from trigger words in the report text.
// It is deterministic and needs no network, so it doubles as the test
// analyzer and as the degraded mode when Gemini is unreachable.
type KeywordAnalyzer struct{}

func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

var criticalWords = []string{
	"trapped", "unconscious", "not breathing", "collapsed", "explosion",
	"multiple casualties", "mass casualty", "spreading fast", "drowning",
}

var highWords = []string{
	"fire", "bleeding", "injured", "flood", "armed", "smoke", "severe",
	"chest pain", "overturned", "landslide",
}

var lowWords = []string{
	"minor", "small", "no injuries", "contained", "stable",
}

func (a *KeywordAnalyzer) Analyze(_ context.Context, in service.AnalyzeInput) (domain.Assessment, error) {
	text := strings.ToLower(in.Title + " " + in.Description)

	severity := string(domain.SeverityMedium)
	confidence := 0.4
	reason := "no strong indicators, defaulting to medium"
	switch {
	case containsAny(text, criticalWords):
		severity, confidence = string(domain.SeverityCritical), 0.75
		reason = "life-threatening keywords present"
	case containsAny(text, highWords):
		severity, confidence = string(domain.SeverityHigh), 0.6
		reason = "hazard keywords present"
	case containsAny(text, lowWords):
		severity, confidence = string(domain.SeverityLow), 0.55
		reason = "report indicates a contained incident"
	}
	if in.ReportedSeverity == string(domain.SeverityCritical) && severity != string(domain.SeverityCritical) {
		// trust an explicit critical report over the heuristic
		severity, confidence = string(domain.SeverityCritical), 0.5
		reason = "reporter marked critical"
	}

	return domain.Assessment{
		AssessedSeverity:   severity,
		Confidence:         confidence,
		Reasoning:          reason,
		RequiredResources:  resourcesFor(in.CrisisType, severity),
		RecommendedActions: actionsFor(in.CrisisType),
	}, nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// resourcesFor mirrors the per-type dispatch defaults, scaled up one unit
// per type for critical incidents.
func resourcesFor(crisisType, severity string) map[string]int {
	var types []string
	switch crisisType {
	case domain.TypeMedical:
		types = []string{"medical"}
	case domain.TypeFire:
		types = []string{"fire", "medical"}
	case domain.TypeNaturalDisaster:
		types = []string{"disaster_management", "rescue", "medical"}
	case domain.TypeAccident:
		types = []string{"medical", "rescue"}
	case domain.TypeCrime:
		types = []string{"police"}
	default:
		types = []string{"rescue"}
	}

	count := 1
	if severity == string(domain.SeverityCritical) {
		count = 2
	}
	out := make(map[string]int, len(types))
	for _, t := range types {
		out[t] = count
	}
	return out
}

func actionsFor(crisisType string) []string {
	switch crisisType {
	case domain.TypeMedical:
		return []string{"Keep the patient still", "Clear access for responders"}
	case domain.TypeFire:
		return []string{"Evacuate the area", "Stay out of smoke"}
	case domain.TypeNaturalDisaster:
		return []string{"Move to higher or open ground", "Account for everyone nearby"}
	case domain.TypeAccident:
		return []string{"Do not move the injured", "Warn oncoming traffic"}
	case domain.TypeCrime:
		return []string{"Move to a safe location", "Do not confront anyone"}
	default:
		return []string{"Stay clear of the area and await responders"}
	}
}
