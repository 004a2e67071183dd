// Package service implements the crisis dispatch workflow: alert intake,
// candidate matching, response negotiation, escalation, and closure.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/crisis/matching"
	"crisisnet_backend/internal/crisis/registry"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/internal/geo"
	"crisisnet_backend/platform/apperr"
	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/logger"
	"crisisnet_backend/platform/phone"
	"crisisnet_backend/platform/sanitize"

	"github.com/google/uuid"
)

// SeverityAnalyzer assesses incoming alerts. Implementations are best-effort
// collaborators: any error falls back to reporter-supplied data.
type SeverityAnalyzer interface {
	Analyze(ctx context.Context, in AnalyzeInput) (domain.Assessment, error)
}

// AnalyzeInput is the raw alert material handed to the analyzer.
type AnalyzeInput struct {
	Title            string
	Description      string
	CrisisType       string
	ReportedSeverity string
}

// EscalationScheduler enqueues a delayed coverage check for a crisis.
type EscalationScheduler interface {
	ScheduleEscalationCheck(ctx context.Context, crisisID uuid.UUID, delay time.Duration) error
}

// ConnectionCounter reports live agency stream connections for analytics.
type ConnectionCounter interface {
	ConnectedAgencies() int
}

// Service coordinates the dispatch workflow over the in-memory registry
// and agency directory.
type Service struct {
	reg       *registry.Registry
	dir       *directory.Directory
	engine    *matching.Engine
	synthetic *matching.SyntheticSupplyPolicy
	scorer    *geo.Scorer
	analyzer  SeverityAnalyzer
	scheduler EscalationScheduler
	bus       events.Bus
	cfg       config.DispatchConfig
	log       *logger.Logger

	connections ConnectionCounter
}

// SetConnectionCounter wires the live stream service in after construction.
// The stream service subscribes to this service's events, so it cannot be a
// constructor dependency.
func (s *Service) SetConnectionCounter(counter ConnectionCounter) {
	s.connections = counter
}

// New creates the dispatch service. analyzer and scheduler may be nil; the
// service then runs with reporter-supplied severity and manual escalation
// only.
func New(
	reg *registry.Registry,
	dir *directory.Directory,
	engine *matching.Engine,
	synthetic *matching.SyntheticSupplyPolicy,
	scorer *geo.Scorer,
	analyzer SeverityAnalyzer,
	scheduler EscalationScheduler,
	bus events.Bus,
	cfg config.DispatchConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		reg:       reg,
		dir:       dir,
		engine:    engine,
		synthetic: synthetic,
		scorer:    scorer,
		analyzer:  analyzer,
		scheduler: scheduler,
		bus:       bus,
		cfg:       cfg,
		log:       log,
	}
}

// CreateInput is a validated alert submission.
type CreateInput struct {
	Title         string
	Description   string
	Type          string
	Severity      string
	Latitude      float64
	Longitude     float64
	ContactNumber string
	ReportedBy    string
	ReporterID    string
	PhotoURL      string
}

// CreateResult is the outcome of alert intake.
type CreateResult struct {
	Crisis         domain.Crisis      `json:"crisis"`
	Notified       []domain.Candidate `json:"notified"`
	SyntheticCount int                `json:"syntheticCount"`
}

// CreateCrisis registers a new crisis: analyzes severity, materializes
// quotas, ranks candidates, backfills synthetic supply when coverage is
// thin, and notifies the top candidates.
func (s *Service) CreateCrisis(ctx context.Context, in CreateInput) (*CreateResult, error) {
	crisisType := normalizeType(in.Type)
	origin := geo.Point{Lat: in.Latitude, Lon: in.Longitude}

	assessment := s.assess(ctx, in, crisisType)
	severity := resolveSeverity(in.Severity, assessment)

	crisis := &domain.Crisis{
		ID:            uuid.New(),
		Title:         sanitize.Text(in.Title),
		Description:   sanitize.Text(in.Description),
		Type:          crisisType,
		Severity:      severity,
		Location:      origin,
		ContactNumber: phone.NormalizeE164(in.ContactNumber),
		ReportedBy:    sanitize.Text(in.ReportedBy),
		ReporterID:    in.ReporterID,
		PhotoURL:      in.PhotoURL,
		Analysis:      assessment,
		CreatedAt:     time.Now().UTC(),
		Status:        domain.StatusPending,
		Needed:        quotasFor(crisisType, assessment),
	}

	candidates, matched := s.engine.FindCandidates(matching.Params{
		Origin:      origin,
		CrisisType:  crisisType,
		Severity:    severity,
		MaxDistance: s.cfg.GetMatchRadiusKm(),
		MaxResults:  s.cfg.GetMatchMaxResults(),
	})

	// Backfill keys off real supply within the radius, not the result cap:
	// a tight MaxResults must not fabricate units when coverage was there.
	syntheticCount := 0
	if shortfall := s.cfg.GetMinCoverage() - matched; shortfall > 0 && s.synthetic != nil {
		spawned := s.synthetic.Backfill(origin, crisisType, severity, shortfall, s.scorer)
		candidates = append(candidates, spawned...)
		syntheticCount = len(spawned)
	}

	notified := markNotified(candidates, s.cfg.GetNotifyTopN())
	crisis.Candidates = candidates

	if err := s.reg.Insert(crisis); err != nil {
		return nil, err
	}
	snapshot := crisis.Clone()

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleEscalationCheck(ctx, crisis.ID, s.cfg.GetEscalationDelay()); err != nil {
			s.log.CollaboratorFailure("escalation scheduler", err)
		}
	}

	s.publish(ctx, events.CrisisReported{
		BaseEvent: events.NewBaseEvent(),
		CrisisID:  snapshot.ID,
		Crisis:    snapshot,
		Notified:  notified,
	})
	s.log.DispatchEvent("crisis created", snapshot.ID.String(),
		slog.String("type", crisisType),
		slog.String("severity", string(severity)),
		slog.Int("candidates", len(candidates)),
		slog.Int("synthetic", syntheticCount),
	)

	return &CreateResult{Crisis: snapshot, Notified: notified, SyntheticCount: syntheticCount}, nil
}

// Get returns one crisis snapshot.
func (s *Service) Get(_ context.Context, id uuid.UUID) (domain.Crisis, error) {
	return s.reg.Get(id)
}

// ListActive returns all non-closed crises, newest first.
func (s *Service) ListActive(_ context.Context) []domain.Crisis {
	return s.reg.ListActive()
}

// ListAll returns every crisis, closed included, newest first.
func (s *Service) ListAll(_ context.Context) []domain.Crisis {
	return s.reg.List()
}

// Close resolves a crisis and releases its accepted agencies back to the
// available pool. Closing an already-closed crisis is a no-op.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (domain.Crisis, error) {
	var released []string
	var closedNow bool
	snapshot, err := s.reg.Update(id, func(c *domain.Crisis) error {
		if c.Status == domain.StatusClosed {
			return nil
		}
		now := time.Now().UTC()
		c.Status = domain.StatusClosed
		c.ClosedAt = &now
		closedNow = true
		released = make([]string, 0, len(c.Accepted))
		for _, record := range c.Accepted {
			released = append(released, record.AgencyID)
		}
		return nil
	})
	if err != nil {
		return domain.Crisis{}, err
	}

	for _, agencyID := range released {
		s.dir.MarkAvailable(agencyID)
	}

	if closedNow {
		s.publish(ctx, events.CrisisClosed{
			BaseEvent: events.NewBaseEvent(),
			CrisisID:  id,
			Crisis:    snapshot,
			Released:  released,
		})
		s.log.DispatchEvent("crisis closed", id.String(), slog.Int("released", len(released)))
	}
	return snapshot, nil
}

// LocationInput is one positional ping from a responding unit.
type LocationInput struct {
	AgencyID  string
	Latitude  float64
	Longitude float64
	Note      string
}

// AddLocationUpdate appends a positional ping to an active crisis.
func (s *Service) AddLocationUpdate(ctx context.Context, id uuid.UUID, in LocationInput) (domain.LocationUpdate, error) {
	update := domain.LocationUpdate{
		AgencyID: in.AgencyID,
		Location: geo.Point{Lat: in.Latitude, Lon: in.Longitude},
		Note:     sanitize.Text(in.Note),
		At:       time.Now().UTC(),
	}
	_, err := s.reg.Update(id, func(c *domain.Crisis) error {
		if c.Status == domain.StatusClosed {
			return apperr.New(apperr.KindConflict, "crisis is closed")
		}
		c.LocationUpdates = append(c.LocationUpdates, update)
		return nil
	})
	if err != nil {
		return domain.LocationUpdate{}, err
	}

	s.publish(ctx, events.CrisisLocationUpdated{
		BaseEvent: events.NewBaseEvent(),
		CrisisID:  id,
		Update:    update,
	})
	return update, nil
}

// assess runs the severity analyzer, tolerating absence and failure.
func (s *Service) assess(ctx context.Context, in CreateInput, crisisType string) *domain.Assessment {
	if s.analyzer == nil {
		return nil
	}
	assessment, err := s.analyzer.Analyze(ctx, AnalyzeInput{
		Title:            in.Title,
		Description:      in.Description,
		CrisisType:       crisisType,
		ReportedSeverity: in.Severity,
	})
	if err != nil {
		s.log.CollaboratorFailure("severity analyzer", err)
		return nil
	}
	return &assessment
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

// markNotified flags the first topN candidates as notified and returns them.
func markNotified(candidates []domain.Candidate, topN int) []domain.Candidate {
	if topN > len(candidates) {
		topN = len(candidates)
	}
	for i := 0; i < topN; i++ {
		candidates[i].Notified = true
	}
	return append([]domain.Candidate(nil), candidates[:topN]...)
}

// resolveSeverity prefers the reporter's valid severity, then the analyzer's
// assessment, then medium.
func resolveSeverity(reported string, assessment *domain.Assessment) domain.Severity {
	if domain.ValidSeverity(reported) {
		return domain.Severity(reported)
	}
	if assessment != nil && domain.ValidSeverity(assessment.AssessedSeverity) {
		return domain.Severity(assessment.AssessedSeverity)
	}
	return domain.SeverityMedium
}

// quotasFor materializes agencies_needed at creation time. The analyzer's
// required-resources map wins when present; otherwise one agency per type
// inferred from the crisis category.
func quotasFor(crisisType string, assessment *domain.Assessment) domain.Quotas {
	if assessment != nil && len(assessment.RequiredResources) > 0 {
		perType := make(map[string]int, len(assessment.RequiredResources))
		total := 0
		for agencyType, count := range assessment.RequiredResources {
			if count <= 0 {
				continue
			}
			perType[agencyType] = count
			total += count
		}
		if total > 0 {
			return domain.Quotas{PerType: perType, Total: total}
		}
	}
	return domain.DefaultQuotas(inferAgencyTypes(crisisType)...)
}

// inferAgencyTypes maps a crisis category to the agency types it needs.
func inferAgencyTypes(crisisType string) []string {
	switch crisisType {
	case domain.TypeMedical:
		return []string{"medical"}
	case domain.TypeFire:
		return []string{"fire", "medical"}
	case domain.TypeNaturalDisaster:
		return []string{"disaster_management", "rescue", "medical"}
	case domain.TypeAccident:
		return []string{"medical", "rescue"}
	case domain.TypeCrime:
		return []string{"police"}
	default:
		return []string{"rescue"}
	}
}

func normalizeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return domain.TypeOther
	}
	return t
}
