package analyzer

import (
	"context"
	"testing"

	"crisisnet_backend/internal/crisis/service"
)

func TestKeywordSeverityEscalatesOnTriggerWords(t *testing.T) {
	a := NewKeywordAnalyzer()

	cases := []struct {
		name        string
		title, desc string
		want        string
	}{
		{"critical wording", "Building collapse", "people trapped under rubble", "critical"},
		{"hazard wording", "Kitchen fire", "smoke visible from the street", "high"},
		{"contained wording", "Fender bender", "minor scrape, no injuries", "low"},
		{"neutral wording", "Assistance needed", "please send someone", "medium"},
	}
	for _, tc := range cases {
		got, err := a.Analyze(context.Background(), service.AnalyzeInput{
			Title:       tc.title,
			Description: tc.desc,
			CrisisType:  "other",
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.AssessedSeverity != tc.want {
			t.Fatalf("%s: severity = %q, want %q", tc.name, got.AssessedSeverity, tc.want)
		}
	}
}

func TestKeywordTrustsReportedCritical(t *testing.T) {
	a := NewKeywordAnalyzer()

	got, err := a.Analyze(context.Background(), service.AnalyzeInput{
		Title:            "Need help",
		Description:      "situation is bad",
		CrisisType:       "medical",
		ReportedSeverity: "critical",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AssessedSeverity != "critical" {
		t.Fatalf("severity = %q, want critical", got.AssessedSeverity)
	}
	if got.RequiredResources["medical"] != 2 {
		t.Fatalf("critical medical quota = %d, want 2", got.RequiredResources["medical"])
	}
}

func TestKeywordResourcesFollowCrisisType(t *testing.T) {
	a := NewKeywordAnalyzer()

	got, err := a.Analyze(context.Background(), service.AnalyzeInput{
		Title:       "River overflowing",
		Description: "water rising in the settlement",
		CrisisType:  "natural_disaster",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, typ := range []string{"disaster_management", "rescue", "medical"} {
		if got.RequiredResources[typ] < 1 {
			t.Fatalf("missing %s quota in %v", typ, got.RequiredResources)
		}
	}
	if len(got.RecommendedActions) == 0 {
		t.Fatalf("expected recommended actions")
	}
}
