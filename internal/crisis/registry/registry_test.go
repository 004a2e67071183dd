package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/platform/apperr"
)

func newCrisis(title string) *domain.Crisis {
	return &domain.Crisis{
		ID:        uuid.New(),
		Title:     title,
		Type:      domain.TypeFire,
		Severity:  domain.SeverityHigh,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	r := New()
	crisis := newCrisis("warehouse fire")

	if err := r.Insert(crisis); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := r.Insert(crisis); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate insert error = %v, want conflict", err)
	}
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	r := New()
	crisis := newCrisis("gas leak")
	if err := r.Insert(crisis); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	first, err := r.Get(crisis.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	first.Title = "mutated"
	first.Responses = append(first.Responses, domain.ResponseRecord{AgencyID: "x"})

	second, err := r.Get(crisis.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second.Title != "gas leak" || len(second.Responses) != 0 {
		t.Fatalf("stored crisis mutated through a returned copy: %+v", second)
	}
}

func TestUpdateErrorAbandonsSnapshot(t *testing.T) {
	r := New()
	crisis := newCrisis("flood")
	if err := r.Insert(crisis); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := r.Update(crisis.ID, func(c *domain.Crisis) error {
		return apperr.New(apperr.KindConflict, "crisis is closed")
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("Update error = %v, want conflict", err)
	}

	if _, err := r.Update(uuid.New(), func(*domain.Crisis) error { return nil }); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown id error = %v, want not found", err)
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	r := New()
	crisis := newCrisis("pileup")
	if err := r.Insert(crisis); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	const workers = 8
	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				_, err := r.Update(crisis.ID, func(c *domain.Crisis) error {
					c.EscalationLevel++
					return nil
				})
				if err != nil {
					t.Errorf("Update: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := r.Get(crisis.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.EscalationLevel != workers*rounds {
		t.Fatalf("escalation level = %d, want %d", got.EscalationLevel, workers*rounds)
	}
}

func TestListNewestFirstAndActiveFilter(t *testing.T) {
	r := New()
	older := newCrisis("older")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newCrisis("newer")
	closed := newCrisis("closed")
	closed.Status = domain.StatusClosed

	for _, c := range []*domain.Crisis{older, newer, closed} {
		if err := r.Insert(c); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	all := r.List()
	if len(all) != 3 {
		t.Fatalf("List = %d crises, want 3", len(all))
	}
	if all[len(all)-1].ID != older.ID {
		t.Fatalf("oldest crisis not last: %v", all)
	}

	active := r.ListActive()
	if len(active) != 2 {
		t.Fatalf("ListActive = %d, want 2", len(active))
	}
	for _, c := range active {
		if c.Status == domain.StatusClosed {
			t.Fatalf("closed crisis in active listing")
		}
	}
	if r.Count() != 3 {
		t.Fatalf("Count = %d, want 3", r.Count())
	}
}
