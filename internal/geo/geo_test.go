package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_ZeroForIdenticalPoints(t *testing.T) {
	p := Point{Lat: 28.6139, Lon: 77.2090}
	if d := DistanceKm(p, p); d != 0 {
		t.Fatalf("expected 0 distance for identical points, got %f", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := Point{Lat: 28.6139, Lon: 77.2090}
	b := Point{Lat: 28.7041, Lon: 77.1025}

	ab := DistanceKm(a, b)
	ba := DistanceKm(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %f vs %f", ab, ba)
	}
	if ab <= 0 {
		t.Fatalf("expected positive distance, got %f", ab)
	}
}

func TestDistanceKm_KnownNearbyPair(t *testing.T) {
	// Connaught Place to the fire station a block away, roughly 60 meters.
	crisis := Point{Lat: 28.6139, Lon: 77.2090}
	station := Point{Lat: 28.6140, Lon: 77.2095}

	d := DistanceKm(crisis, station)
	if d < 0.03 || d > 0.09 {
		t.Fatalf("expected ~0.05km, got %f", d)
	}
}

func TestETAMinutes_FlooredAtOne(t *testing.T) {
	s := NewScorerWithJitter(func() int { return 0 })
	if eta := s.ETAMinutes(0.06, "critical"); eta != 1 {
		t.Fatalf("expected floor of 1 minute, got %d", eta)
	}
}

func TestETAMinutes_CriticalFasterThanBase(t *testing.T) {
	s := NewScorerWithJitter(func() int { return 0 })

	base := s.ETAMinutes(40, "medium")
	critical := s.ETAMinutes(40, "critical")

	// 40km at 40km/h = 60 minutes; at 60*0.8 = 48km/h = 50 minutes.
	if base != 60 {
		t.Fatalf("expected 60 minute base ETA, got %d", base)
	}
	if critical != 50 {
		t.Fatalf("expected 50 minute critical ETA, got %d", critical)
	}
}

func TestETAMinutes_JitterBounded(t *testing.T) {
	s := NewScorer()
	lower := 60
	for i := 0; i < 50; i++ {
		eta := s.ETAMinutes(40, "medium")
		if eta < lower || eta > lower+3 {
			t.Fatalf("expected ETA within [%d,%d], got %d", lower, lower+3, eta)
		}
	}
}

func TestTypeAffinity(t *testing.T) {
	if a := TypeAffinity("medical", "fire"); a != 1.0 {
		t.Fatalf("expected baseline affinity 1.0, got %f", a)
	}
	if a := TypeAffinity("fire", "fire"); a != 2.0 {
		t.Fatalf("expected type-match affinity 2.0, got %f", a)
	}
	if a := TypeAffinity("disaster_management", "natural_disaster"); a != 3.0 {
		t.Fatalf("expected disaster override affinity 3.0, got %f", a)
	}
}

func TestMatchScore_TypeMatchRanksAboveBaseline(t *testing.T) {
	// Same distance and ETA: a fire agency must outrank a medical agency on
	// a fire crisis (lower score wins).
	fire := MatchScore(0.06, 1, "fire", "fire")
	medical := MatchScore(0.06, 1, "medical", "fire")

	if fire >= medical {
		t.Fatalf("expected fire score %f below medical score %f", fire, medical)
	}

	want := 0.06/2.0 + 0.1
	if math.Abs(fire-want) > 1e-9 {
		t.Fatalf("expected score %f, got %f", want, fire)
	}
}
