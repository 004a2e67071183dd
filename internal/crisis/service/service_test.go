package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/crisis/matching"
	"crisisnet_backend/internal/crisis/registry"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/internal/geo"
	"crisisnet_backend/platform/apperr"
	"crisisnet_backend/platform/logger"
)

type testConfig struct {
	radiusKm    float64
	maxResults  int
	notifyTopN  int
	minCoverage int
}

func (c testConfig) GetMatchRadiusKm() float64 { return c.radiusKm }
func (c testConfig) GetMatchMaxResults() int   { return c.maxResults }
func (c testConfig) GetNotifyTopN() int        { return c.notifyTopN }
func (c testConfig) GetMinCoverage() int       { return c.minCoverage }
func (c testConfig) GetEscalationDelay() time.Duration {
	return time.Minute
}
func (c testConfig) GetEscalationSweepInterval() time.Duration {
	return time.Minute
}

func defaultTestConfig() testConfig {
	return testConfig{radiusKm: 10, maxResults: 8, notifyTopN: 5, minCoverage: 3}
}

// newTestService builds a service over a fresh directory with jitter-free
// ETAs so expectations stay deterministic. Synthetic supply is off unless
// the test seeds a thin directory on purpose.
func newTestService(t *testing.T, cfg testConfig, agencies ...directory.Agency) (*Service, *directory.Directory) {
	t.Helper()
	log := logger.New("development")
	dir := directory.New(log)
	for _, agency := range agencies {
		dir.Upsert(agency)
	}
	scorer := geo.NewScorerWithJitter(func() int { return 0 })
	engine := matching.New(dir, scorer)
	synthetic := matching.NewSyntheticSupplyPolicy(dir, log, 1)
	svc := New(registry.New(), dir, engine, synthetic, scorer, nil, nil, nil, cfg, log)
	return svc, dir
}

func testAgency(id, agencyType string, lat, lon float64) directory.Agency {
	return directory.Agency{
		ID:       id,
		Name:     "Agency " + id,
		Type:     agencyType,
		Location: geo.Point{Lat: lat, Lon: lon},
		Capacity: 10,
	}
}

func createCrisis(t *testing.T, svc *Service, crisisType, severity string) domain.Crisis {
	t.Helper()
	result, err := svc.CreateCrisis(context.Background(), CreateInput{
		Title:     "test incident",
		Type:      crisisType,
		Severity:  severity,
		Latitude:  28.61,
		Longitude: 77.21,
	})
	if err != nil {
		t.Fatalf("CreateCrisis: %v", err)
	}
	return result.Crisis
}

func TestCreateCrisisRanksAndNotifies(t *testing.T) {
	svc, _ := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.67, 77.23),
		testAgency("fire1", "fire", 28.61, 77.22),
	)

	result, err := svc.CreateCrisis(context.Background(), CreateInput{
		Title:     "chest pain",
		Type:      "medical",
		Severity:  "high",
		Latitude:  28.61,
		Longitude: 77.21,
	})
	if err != nil {
		t.Fatalf("CreateCrisis: %v", err)
	}

	crisis := result.Crisis
	if crisis.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", crisis.Status)
	}
	if len(crisis.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(crisis.Candidates))
	}
	// med1 is both closest and type-matched, so it must rank first.
	if crisis.Candidates[0].AgencyID != "med1" {
		t.Fatalf("top candidate = %s, want med1", crisis.Candidates[0].AgencyID)
	}
	for i := 1; i < len(crisis.Candidates); i++ {
		if crisis.Candidates[i].MatchScore < crisis.Candidates[i-1].MatchScore {
			t.Fatalf("candidates not sorted by score at %d", i)
		}
	}
	if len(result.Notified) != 3 {
		t.Fatalf("notified = %d, want 3", len(result.Notified))
	}
	if result.SyntheticCount != 0 {
		t.Fatalf("synthetic = %d, want 0", result.SyntheticCount)
	}
	if crisis.Needed.PerType["medical"] != 1 || crisis.Needed.Total != 1 {
		t.Fatalf("quotas = %+v, want medical:1 total:1", crisis.Needed)
	}
}

func TestCreateCrisisBackfillsThinCoverage(t *testing.T) {
	svc, dir := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
	)

	result, err := svc.CreateCrisis(context.Background(), CreateInput{
		Title:     "warehouse fire",
		Type:      "fire",
		Severity:  "critical",
		Latitude:  28.61,
		Longitude: 77.21,
	})
	if err != nil {
		t.Fatalf("CreateCrisis: %v", err)
	}

	if result.SyntheticCount != 2 {
		t.Fatalf("synthetic = %d, want 2", result.SyntheticCount)
	}
	if len(result.Crisis.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(result.Crisis.Candidates))
	}
	syntheticSeen := 0
	for _, candidate := range result.Crisis.Candidates {
		if candidate.Synthetic {
			syntheticSeen++
			if agency, ok := dir.Get(candidate.AgencyID); !ok || !agency.Synthetic {
				t.Fatalf("synthetic candidate %s not registered in directory", candidate.AgencyID)
			}
		}
	}
	if syntheticSeen != 2 {
		t.Fatalf("synthetic candidates = %d, want 2", syntheticSeen)
	}
}

func TestCreateCrisisResultCapDoesNotTriggerBackfill(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.maxResults = 2
	svc, _ := newTestService(t, cfg,
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("med3", "medical", 28.64, 77.21),
	)

	// Three real units are in range; only the result cap shrinks the list.
	result, err := svc.CreateCrisis(context.Background(), CreateInput{
		Title:     "collapse",
		Type:      "medical",
		Severity:  "high",
		Latitude:  28.61,
		Longitude: 77.21,
	})
	if err != nil {
		t.Fatalf("CreateCrisis: %v", err)
	}
	if result.SyntheticCount != 0 {
		t.Fatalf("synthetic = %d, want 0", result.SyntheticCount)
	}
	if len(result.Crisis.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(result.Crisis.Candidates))
	}
	for _, candidate := range result.Crisis.Candidates {
		if candidate.Synthetic {
			t.Fatalf("candidate %s is synthetic despite full real coverage", candidate.AgencyID)
		}
	}
}

func TestRecordResponseAcceptCountsAndMarksBusy(t *testing.T) {
	svc, dir := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	result, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med1", Accepts: true, ETAMinutes: 12, CapacityOffered: 3,
	})
	if err != nil {
		t.Fatalf("RecordResponse: %v", err)
	}
	if !result.Counted {
		t.Fatal("accept within quota not counted")
	}
	if result.Crisis.Status != domain.StatusFullyAssigned {
		t.Fatalf("status = %s, want fully_assigned", result.Crisis.Status)
	}
	if result.Crisis.AverageETA != 12.0 {
		t.Fatalf("average eta = %v, want 12.0", result.Crisis.AverageETA)
	}

	agency, _ := dir.Get("med1")
	if agency.Status != directory.StatusBusy || agency.CurrentCrisis != crisis.ID.String() {
		t.Fatalf("agency after accept = %+v, want busy on crisis", agency)
	}
}

func TestRecordResponseDeclineLeavesAvailable(t *testing.T) {
	svc, dir := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	result, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med1", Accepts: false, Reason: "all units deployed",
	})
	if err != nil {
		t.Fatalf("RecordResponse: %v", err)
	}
	if result.Counted {
		t.Fatal("decline must not count")
	}
	if len(result.Crisis.Rejected) != 1 || result.Crisis.Rejected[0].Reason != "all units deployed" {
		t.Fatalf("rejected = %+v", result.Crisis.Rejected)
	}
	if result.Crisis.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", result.Crisis.Status)
	}

	agency, _ := dir.Get("med1")
	if agency.Status != directory.StatusAvailable {
		t.Fatalf("agency status = %s, want available", agency.Status)
	}
}

func TestRecordResponseQuotaSatisfiedStillMarksBusy(t *testing.T) {
	svc, dir := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	if _, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med1", Accepts: true, ETAMinutes: 10,
	}); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	result, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med2", Accepts: true, ETAMinutes: 20,
	})
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if result.Counted || !result.QuotaSatisfied {
		t.Fatalf("result = %+v, want quota satisfied and not counted", result)
	}
	if len(result.Crisis.Accepted) != 1 {
		t.Fatalf("accepted = %d, want 1", len(result.Crisis.Accepted))
	}
	if len(result.Crisis.Responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(result.Crisis.Responses))
	}
	// The over-quota accepter still goes busy rather than being stranded.
	agency, _ := dir.Get("med2")
	if agency.Status != directory.StatusBusy {
		t.Fatalf("med2 status = %s, want busy", agency.Status)
	}
}

func TestRecordResponseDuplicateAcceptIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	if _, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med1", Accepts: true,
	}); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	result, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med1", Accepts: true,
	})
	if err != nil {
		t.Fatalf("repeat accept: %v", err)
	}
	if !result.Duplicate || result.Counted {
		t.Fatalf("result = %+v, want duplicate and not counted", result)
	}
	if len(result.Crisis.Accepted) != 1 {
		t.Fatalf("accepted = %d, want 1", len(result.Crisis.Accepted))
	}
}

func TestRecordResponseUnknownAgencyDegrades(t *testing.T) {
	svc, _ := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	result, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "ghost", AgencyName: "Ghost Unit", Accepts: true,
	})
	if err != nil {
		t.Fatalf("RecordResponse: %v", err)
	}
	if result.AgencyKnown || result.Counted {
		t.Fatalf("result = %+v, want unknown and not counted", result)
	}
	if len(result.Crisis.Responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(result.Crisis.Responses))
	}
	if len(result.Crisis.Accepted) != 0 {
		t.Fatalf("accepted = %d, want 0", len(result.Crisis.Accepted))
	}
}

func TestRecordResponseUnknownCrisis(t *testing.T) {
	svc, _ := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	bogus := crisis.ID
	bogus[0] ^= 0xff
	if _, err := svc.RecordResponse(context.Background(), bogus, ResponseInput{
		AgencyID: "med1", Accepts: true,
	}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

// Two agencies of the same type race a quota of one. Exactly one accept may
// land regardless of interleaving.
func TestRecordResponseConcurrentAcceptsRespectQuota(t *testing.T) {
	for round := 0; round < 20; round++ {
		svc, _ := newTestService(t, defaultTestConfig(),
			testAgency("med1", "medical", 28.62, 77.21),
			testAgency("med2", "medical", 28.63, 77.21),
			testAgency("rescue1", "rescue", 28.61, 77.22),
		)
		crisis := createCrisis(t, svc, "medical", "high")

		var wg sync.WaitGroup
		for _, agencyID := range []string{"med1", "med2"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
					AgencyID: id, Accepts: true, ETAMinutes: 15,
				})
				if err != nil {
					t.Errorf("RecordResponse(%s): %v", id, err)
				}
			}(agencyID)
		}
		wg.Wait()

		final, err := svc.Get(context.Background(), crisis.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(final.Accepted) != 1 {
			t.Fatalf("round %d: accepted = %d, want exactly 1", round, len(final.Accepted))
		}
		if final.Status != domain.StatusFullyAssigned {
			t.Fatalf("round %d: status = %s, want fully_assigned", round, final.Status)
		}
		if len(final.Responses) != 2 {
			t.Fatalf("round %d: responses = %d, want 2", round, len(final.Responses))
		}
	}
}

func TestEscalateAppendsUniqueCandidates(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.maxResults = 2
	svc, _ := newTestService(t, cfg,
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("med3", "medical", 28.64, 77.21),
		testAgency("far1", "medical", 28.95, 77.60),
	)
	crisis := createCrisis(t, svc, "medical", "high")
	if len(crisis.Candidates) != 2 {
		t.Fatalf("initial candidates = %d, want 2", len(crisis.Candidates))
	}

	result, err := svc.Escalate(context.Background(), crisis.ID)
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if result.Level != 1 {
		t.Fatalf("level = %d, want 1", result.Level)
	}
	if len(result.NewCandidates) == 0 {
		t.Fatal("expected new candidates from the widened sweep")
	}

	seen := make(map[string]int)
	for _, candidate := range result.Crisis.Candidates {
		seen[candidate.AgencyID]++
	}
	for id, count := range seen {
		if count > 1 {
			t.Fatalf("agency %s appears %d times in candidate pool", id, count)
		}
	}

	// A second escalation finds nothing new and never re-proposes.
	again, err := svc.Escalate(context.Background(), crisis.ID)
	if err != nil {
		t.Fatalf("second Escalate: %v", err)
	}
	if again.Level != 2 {
		t.Fatalf("level = %d, want 2", again.Level)
	}
	if len(again.NewCandidates) != 0 {
		t.Fatalf("new candidates on repeat = %d, want 0", len(again.NewCandidates))
	}
}

func TestEscalatePreservesAcceptances(t *testing.T) {
	svc, _ := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	if _, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med1", Accepts: true,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	result, err := svc.Escalate(context.Background(), crisis.ID)
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if len(result.Crisis.Accepted) != 1 || result.Crisis.Accepted[0].AgencyID != "med1" {
		t.Fatalf("accepted after escalation = %+v", result.Crisis.Accepted)
	}
}

func TestCloseReleasesAcceptedAgencies(t *testing.T) {
	svc, dir := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")
	if _, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med1", Accepts: true,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	closed, err := svc.Close(context.Background(), crisis.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != domain.StatusClosed || closed.ClosedAt == nil {
		t.Fatalf("closed crisis = status %s, closedAt %v", closed.Status, closed.ClosedAt)
	}

	agency, _ := dir.Get("med1")
	if agency.Status != directory.StatusAvailable || agency.CurrentCrisis != "" {
		t.Fatalf("agency after close = %+v, want available and unassigned", agency)
	}

	// Closed crises reject further responses.
	if _, err := svc.RecordResponse(context.Background(), crisis.ID, ResponseInput{
		AgencyID: "med2", Accepts: true,
	}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("respond after close: err = %v, want Conflict", err)
	}
	if _, err := svc.Escalate(context.Background(), crisis.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("escalate after close: err = %v, want Conflict", err)
	}
}

// recordingBus captures published events for assertion.
type recordingBus struct {
	mu       sync.Mutex
	captured []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.captured = append(b.captured, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) countOf(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.captured {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

func TestCloseRepeatDoesNotRepublish(t *testing.T) {
	log := logger.New("development")
	dir := directory.New(log)
	dir.Upsert(testAgency("med1", "medical", 28.62, 77.21))
	scorer := geo.NewScorerWithJitter(func() int { return 0 })
	bus := &recordingBus{}
	svc := New(registry.New(), dir, matching.New(dir, scorer),
		matching.NewSyntheticSupplyPolicy(dir, log, 1), scorer, nil, nil, bus,
		defaultTestConfig(), log)

	crisis := createCrisis(t, svc, "medical", "high")
	for i := 0; i < 3; i++ {
		if _, err := svc.Close(context.Background(), crisis.ID); err != nil {
			t.Fatalf("Close %d: %v", i, err)
		}
	}

	if n := bus.countOf(events.CrisisClosed{}.EventName()); n != 1 {
		t.Fatalf("crisis.closed published %d times, want 1", n)
	}
}

func TestAddLocationUpdate(t *testing.T) {
	svc, _ := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	crisis := createCrisis(t, svc, "medical", "high")

	update, err := svc.AddLocationUpdate(context.Background(), crisis.ID, LocationInput{
		AgencyID: "med1", Latitude: 28.615, Longitude: 77.212, Note: "en route",
	})
	if err != nil {
		t.Fatalf("AddLocationUpdate: %v", err)
	}
	if update.AgencyID != "med1" || update.Note != "en route" {
		t.Fatalf("update = %+v", update)
	}

	stored, err := svc.Get(context.Background(), crisis.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.LocationUpdates) != 1 {
		t.Fatalf("location updates = %d, want 1", len(stored.LocationUpdates))
	}
}

func TestAnalyticsSummary(t *testing.T) {
	svc, _ := newTestService(t, defaultTestConfig(),
		testAgency("med1", "medical", 28.62, 77.21),
		testAgency("med2", "medical", 28.63, 77.21),
		testAgency("rescue1", "rescue", 28.61, 77.22),
	)
	first := createCrisis(t, svc, "medical", "high")
	createCrisis(t, svc, "fire", "critical")

	if _, err := svc.RecordResponse(context.Background(), first.ID, ResponseInput{
		AgencyID: "med1", Accepts: true, ETAMinutes: 10,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	summary := svc.AnalyticsSummary(context.Background())
	if summary.TotalCrises != 2 || summary.ActiveCrises != 2 {
		t.Fatalf("crises = %d total %d active, want 2/2", summary.TotalCrises, summary.ActiveCrises)
	}
	if summary.TotalAccepts != 1 {
		t.Fatalf("accepts = %d, want 1", summary.TotalAccepts)
	}
	if summary.BySeverity["high"] != 1 || summary.BySeverity["critical"] != 1 {
		t.Fatalf("by severity = %+v", summary.BySeverity)
	}
	if summary.Agencies.Busy != 1 {
		t.Fatalf("busy agencies = %d, want 1", summary.Agencies.Busy)
	}
	if summary.AverageAcceptedETA != 10.0 {
		t.Fatalf("average eta = %v, want 10.0", summary.AverageAcceptedETA)
	}
}

func TestQuotasFromAssessment(t *testing.T) {
	quotas := quotasFor("fire", &domain.Assessment{
		RequiredResources: map[string]int{"fire": 2, "medical": 1, "ignored": 0},
	})
	if quotas.PerType["fire"] != 2 || quotas.PerType["medical"] != 1 {
		t.Fatalf("per type = %+v", quotas.PerType)
	}
	if quotas.Total != 3 {
		t.Fatalf("total = %d, want 3", quotas.Total)
	}
	if _, ok := quotas.PerType["ignored"]; ok {
		t.Fatal("zero-count resource must be dropped")
	}
}

func TestQuotasDefaultByType(t *testing.T) {
	quotas := quotasFor("natural_disaster", nil)
	want := map[string]int{"disaster_management": 1, "rescue": 1, "medical": 1}
	if quotas.Total != 3 {
		t.Fatalf("total = %d, want 3", quotas.Total)
	}
	for agencyType, count := range want {
		if quotas.PerType[agencyType] != count {
			t.Fatalf("per type = %+v, want %+v", quotas.PerType, want)
		}
	}
}

func TestResolveSeverity(t *testing.T) {
	if got := resolveSeverity("critical", nil); got != domain.SeverityCritical {
		t.Fatalf("reported severity ignored: %s", got)
	}
	assessment := &domain.Assessment{AssessedSeverity: "high"}
	if got := resolveSeverity("", assessment); got != domain.SeverityHigh {
		t.Fatalf("assessed severity ignored: %s", got)
	}
	if got := resolveSeverity("bogus", nil); got != domain.SeverityMedium {
		t.Fatalf("fallback severity = %s, want medium", got)
	}
}
