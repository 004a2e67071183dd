// Package analyzer assesses incoming alerts: severity, confidence, and the
// resource quotas dispatch should materialize. A Gemini-backed assessor is
// used when configured, with a keyword heuristic as offline fallback.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/crisis/service"
	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/logger"
)

const assessTimeout = 8 * time.Second

const promptTemplate = `You are a crisis dispatch triage assistant. Assess the incident below.

Incident type: %s
Reporter-assessed severity: %s
Title: %s
Description: %s

Respond with a single JSON object:
{
  "severity": "low" | "medium" | "high" | "critical",
  "confidence_score": <0.0-1.0>,
  "reasoning": "<one or two sentences>",
  "required_resources": {"<agency type>": <count>, ...},
  "recommended_actions": ["<action>", ...]
}
Agency types are: medical, fire, police, rescue, disaster_management, ngo.`

// GeminiAnalyzer implements service.SeverityAnalyzer over the Gemini API.
// Any model or transport failure falls through to the keyword heuristic so
// intake never waits on a broken collaborator.
type GeminiAnalyzer struct {
	client   *genai.Client
	model    string
	fallback *KeywordAnalyzer
	log      *logger.Logger
}

// New builds the configured analyzer: Gemini when an API key is present,
// otherwise the keyword heuristic alone.
func New(ctx context.Context, cfg config.AnalyzerConfig, log *logger.Logger) service.SeverityAnalyzer {
	keyword := NewKeywordAnalyzer()
	if cfg.GetGeminiAPIKey() == "" {
		log.Info("severity analyzer running on keyword heuristic")
		return keyword
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.CollaboratorFailure("gemini client init", err)
		return keyword
	}

	log.Info("severity analyzer using gemini", "model", cfg.GetGeminiModel())
	return &GeminiAnalyzer{
		client:   client,
		model:    cfg.GetGeminiModel(),
		fallback: keyword,
		log:      log,
	}
}

type geminiAssessment struct {
	Severity           string         `json:"severity"`
	ConfidenceScore    float64        `json:"confidence_score"`
	Reasoning          string         `json:"reasoning"`
	RequiredResources  map[string]int `json:"required_resources"`
	RecommendedActions []string       `json:"recommended_actions"`
}

// Analyze asks the model for an assessment, falling back to keywords on any
// failure or malformed reply.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, in service.AnalyzeInput) (domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, assessTimeout)
	defer cancel()

	prompt := fmt.Sprintf(promptTemplate, in.CrisisType, in.ReportedSeverity, in.Title, in.Description)
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		a.log.CollaboratorFailure("gemini generate", err)
		return a.fallback.Analyze(ctx, in)
	}

	var parsed geminiAssessment
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		a.log.CollaboratorFailure("gemini response parse", err)
		return a.fallback.Analyze(ctx, in)
	}
	if !domain.ValidSeverity(parsed.Severity) {
		return a.fallback.Analyze(ctx, in)
	}

	return domain.Assessment{
		AssessedSeverity:   parsed.Severity,
		Confidence:         parsed.ConfidenceScore,
		Reasoning:          parsed.Reasoning,
		RequiredResources:  parsed.RequiredResources,
		RecommendedActions: parsed.RecommendedActions,
	}, nil
}
