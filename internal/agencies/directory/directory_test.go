package directory

import (
	"sync"
	"testing"

	"crisisnet_backend/internal/geo"
)

func seeded() *Directory {
	d := New(nil)
	d.SeedDefaults()
	return d
}

func TestListAvailable_ExcludesBusy(t *testing.T) {
	d := seeded()
	origin := geo.Point{Lat: 28.6139, Lon: 77.2090}

	before := len(d.ListAvailable(origin, 10))
	d.MarkBusy("fire1", "crisis-1")
	after := d.ListAvailable(origin, 10)

	if len(after) != before-1 {
		t.Fatalf("expected %d available agencies after busy mark, got %d", before-1, len(after))
	}
	for _, agency := range after {
		if agency.ID == "fire1" {
			t.Fatalf("busy agency fire1 still listed as available")
		}
	}
}

func TestListAvailable_RespectsRadius(t *testing.T) {
	d := seeded()
	d.Upsert(Agency{ID: "far1", Name: "Far Unit", Type: "medical", Location: geo.Point{Lat: 30.0, Lon: 80.0}, Capacity: 3})

	results := d.ListAvailable(geo.Point{Lat: 28.6139, Lon: 77.2090}, 10)
	for _, agency := range results {
		if agency.ID == "far1" {
			t.Fatalf("agency outside radius included in results")
		}
	}
}

func TestMarkBusy_SetsCurrentCrisis(t *testing.T) {
	d := seeded()
	d.MarkBusy("med1", "crisis-9")

	agency, ok := d.Get("med1")
	if !ok {
		t.Fatalf("expected med1 to exist")
	}
	if agency.Status != StatusBusy || agency.CurrentCrisis != "crisis-9" {
		t.Fatalf("expected busy/crisis-9, got %s/%s", agency.Status, agency.CurrentCrisis)
	}

	d.MarkAvailable("med1")
	agency, _ = d.Get("med1")
	if agency.Status != StatusAvailable || agency.CurrentCrisis != "" {
		t.Fatalf("expected available with no crisis, got %s/%s", agency.Status, agency.CurrentCrisis)
	}
}

func TestMark_UnknownIDIsCountedNoOp(t *testing.T) {
	d := seeded()

	d.MarkBusy("ghost", "crisis-1")
	d.MarkAvailable("ghost")
	d.MarkOffline("ghost")

	if got := d.StaleMarkCount(); got != 3 {
		t.Fatalf("expected 3 stale marks, got %d", got)
	}
}

func TestDirectory_ConcurrentMarks(t *testing.T) {
	d := seeded()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.MarkBusy("med1", "crisis-1")
		}()
		go func() {
			defer wg.Done()
			d.MarkAvailable("med1")
		}()
	}
	wg.Wait()

	agency, _ := d.Get("med1")
	busy := agency.Status == StatusBusy && agency.CurrentCrisis == "crisis-1"
	free := agency.Status == StatusAvailable && agency.CurrentCrisis == ""
	if !busy && !free {
		t.Fatalf("agency in torn state: %s/%q", agency.Status, agency.CurrentCrisis)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	d := seeded()

	agency, _ := d.Get("fire1")
	agency.Specialties[0] = "mutated"

	fresh, _ := d.Get("fire1")
	if fresh.Specialties[0] == "mutated" {
		t.Fatalf("Get leaked internal specialties slice")
	}
}
