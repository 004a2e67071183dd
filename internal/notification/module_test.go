package notification

import (
	"context"
	"sync"
	"testing"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/internal/geo"
	"crisisnet_backend/internal/notification/sse"
	"crisisnet_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingSMS struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSMS) SendMessage(_ context.Context, phoneNumber, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, phoneNumber)
	return nil
}

type recordingEmail struct {
	mu     sync.Mutex
	alerts []string
	escal  []string
	closed []string
}

func (r *recordingEmail) SendCrisisAlertEmail(_ context.Context, toEmail, _, _, _, _, _, _ string, _ int, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, toEmail)
	return nil
}

func (r *recordingEmail) SendEscalationEmail(_ context.Context, toEmail, _, _, _ string, _ int, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escal = append(r.escal, toEmail)
	return nil
}

func (r *recordingEmail) SendCrisisClosedEmail(_ context.Context, toEmail, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, toEmail)
	return nil
}

type staticConfig struct{ base string }

func (c staticConfig) GetAppBaseURL() string { return c.base }

func newTestModule(t *testing.T) (*Module, *recordingSMS, *recordingEmail) {
	t.Helper()
	log := logger.New("development")
	dir := directory.New(log)
	dir.Upsert(directory.Agency{
		ID: "med1", Name: "City Hospital", Type: "medical",
		Location:     geo.Point{Lat: 28.62, Lon: 77.21},
		Capacity:     10,
		ContactPhone: "+919876543210",
		ContactEmail: "dispatch@cityhospital.example",
	})
	dir.Upsert(directory.Agency{
		ID: "quiet1", Name: "Unlisted Unit", Type: "rescue",
		Location: geo.Point{Lat: 28.63, Lon: 77.22},
		Capacity: 5,
	})

	sms := &recordingSMS{}
	sender := &recordingEmail{}
	m := New(sse.New(), sms, sender, dir, staticConfig{base: "https://crisisnet.example"}, log)
	return m, sms, sender
}

func testCrisis() domain.Crisis {
	return domain.Crisis{
		ID:       uuid.New(),
		Title:    "warehouse fire",
		Type:     "fire",
		Severity: domain.SeverityHigh,
	}
}

func TestCrisisReportedPagesNotifiedAgencies(t *testing.T) {
	m, sms, sender := newTestModule(t)
	crisis := testCrisis()

	err := m.Handle(context.Background(), events.CrisisReported{
		CrisisID: crisis.ID,
		Crisis:   crisis,
		Notified: []domain.Candidate{
			{AgencyID: "med1", Name: "City Hospital", DistanceKm: 1.2, ETAMinutes: 5},
			{AgencyID: "dummy_0001", Name: "Reserve Unit", Synthetic: true},
			{AgencyID: "quiet1", Name: "Unlisted Unit"},
		},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sms.sent) != 1 || sms.sent[0] != "+919876543210" {
		t.Fatalf("sms sent = %v, want only med1's number", sms.sent)
	}
	if len(sender.alerts) != 1 || sender.alerts[0] != "dispatch@cityhospital.example" {
		t.Fatalf("emails sent = %v, want only med1's address", sender.alerts)
	}
}

func TestEscalationPagesOnlyNotifiedCandidates(t *testing.T) {
	m, sms, sender := newTestModule(t)
	crisis := testCrisis()

	err := m.Handle(context.Background(), events.CrisisEscalated{
		CrisisID: crisis.ID,
		Crisis:   crisis,
		Level:    2,
		NewCandidates: []domain.Candidate{
			{AgencyID: "med1", Name: "City Hospital", Notified: true},
			{AgencyID: "quiet1", Name: "Unlisted Unit", Notified: false},
		},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sms.sent) != 1 {
		t.Fatalf("sms sent = %v, want only the notified candidate", sms.sent)
	}
	if len(sender.escal) != 1 {
		t.Fatalf("escalation emails = %v, want 1", sender.escal)
	}
	if len(sender.alerts) != 0 {
		t.Fatalf("alert emails on escalation = %v, want none", sender.alerts)
	}
}

func TestCountedAcceptanceTextsReporter(t *testing.T) {
	m, sms, _ := newTestModule(t)
	crisis := testCrisis()
	crisis.ContactNumber = "+911234567890"

	err := m.Handle(context.Background(), events.AgencyResponded{
		CrisisID: crisis.ID,
		Crisis:   crisis,
		Response: domain.ResponseRecord{
			AgencyID: "med1", AgencyName: "City Hospital",
			Accepts: true, Counted: true, ETAMinutes: 7,
		},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sms.sent) != 1 || sms.sent[0] != "+911234567890" {
		t.Fatalf("sms sent = %v, want the reporter's number", sms.sent)
	}

	// An uncounted accept must not text the reporter again.
	err = m.Handle(context.Background(), events.AgencyResponded{
		CrisisID: crisis.ID,
		Crisis:   crisis,
		Response: domain.ResponseRecord{AgencyID: "late1", Accepts: true, Counted: false},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("sms sent = %v, want no confirmation for uncounted accept", sms.sent)
	}
}

func TestCrisisClosedEmailsReleasedAgencies(t *testing.T) {
	m, _, sender := newTestModule(t)
	crisis := testCrisis()

	err := m.Handle(context.Background(), events.CrisisClosed{
		CrisisID: crisis.ID,
		Crisis:   crisis,
		Released: []string{"med1", "quiet1", "ghost"},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	// Only med1 has a contact address; quiet1 and the stale id are skipped.
	if len(sender.closed) != 1 || sender.closed[0] != "dispatch@cityhospital.example" {
		t.Fatalf("closed emails = %v", sender.closed)
	}
}

func TestNilTransportsAreSafe(t *testing.T) {
	log := logger.New("development")
	dir := directory.New(log)
	m := New(sse.New(), nil, nil, dir, staticConfig{}, log)

	err := m.Handle(context.Background(), events.CrisisReported{
		CrisisID: uuid.New(),
		Crisis:   testCrisis(),
		Notified: []domain.Candidate{{AgencyID: "anyone"}},
	})
	if err != nil {
		t.Fatalf("Handle with nil transports: %v", err)
	}
}
