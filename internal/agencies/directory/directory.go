// Package directory owns the in-memory catalog of responder agencies and
// their live status. It is the single writer for agency status; matching and
// negotiation go through it instead of touching shared maps.
package directory

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"crisisnet_backend/internal/geo"
	"crisisnet_backend/platform/logger"
)

// Status is the live availability of an agency.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

// Agency is a responder unit. Status and CurrentCrisis are mutated only
// through the Directory's mark operations.
type Agency struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Type        string    `json:"type" yaml:"type"`
	Location    geo.Point `json:"location" yaml:"location"`
	Capacity    int       `json:"capacity" yaml:"capacity"`
	Specialties []string  `json:"specialties" yaml:"specialties"`
	Status      Status    `json:"status" yaml:"-"`
	// CurrentCrisis is the crisis this agency is committed to, empty when
	// available. Busy iff non-empty.
	CurrentCrisis string `json:"currentCrisis,omitempty" yaml:"-"`
	// Synthetic marks units spawned by the supply fallback policy. They are
	// never persisted to the seed catalog.
	Synthetic    bool      `json:"synthetic,omitempty" yaml:"-"`
	ContactPhone string    `json:"contactPhone,omitempty" yaml:"contact_phone"`
	ContactEmail string    `json:"contactEmail,omitempty" yaml:"contact_email"`
	LastSeen     time.Time `json:"lastSeen,omitempty" yaml:"-"`
}

// Directory is the authoritative agency catalog. All reads return copies.
type Directory struct {
	mu       sync.RWMutex
	agencies map[string]*Agency
	// staleMarks counts mark operations against unknown agency ids. A stale
	// reference is a no-op for the caller but worth surfacing.
	staleMarks atomic.Int64
	log        *logger.Logger
}

// New creates an empty Directory.
func New(log *logger.Logger) *Directory {
	return &Directory{
		agencies: make(map[string]*Agency),
		log:      log,
	}
}

// Upsert inserts or replaces an agency. A zero Status is normalized to
// available.
func (d *Directory) Upsert(agency Agency) {
	if agency.Status == "" {
		agency.Status = StatusAvailable
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := agency
	d.agencies[agency.ID] = &stored
}

// Get returns a copy of the agency with the given id.
func (d *Directory) Get(id string) (Agency, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	agency, ok := d.agencies[id]
	if !ok {
		return Agency{}, false
	}
	return cloneAgency(agency), true
}

// List returns copies of all agencies, ordered by id for determinism.
func (d *Directory) List() []Agency {
	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]Agency, 0, len(d.agencies))
	for _, agency := range d.agencies {
		results = append(results, cloneAgency(agency))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

// ListAvailable returns agencies within the given radius of origin,
// excluding any currently busy. Offline agencies are included: they can
// still be paged over SMS or email even without a live channel.
func (d *Directory) ListAvailable(origin geo.Point, withinRadiusKm float64) []Agency {
	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]Agency, 0, len(d.agencies))
	for _, agency := range d.agencies {
		if agency.Status == StatusBusy {
			continue
		}
		if geo.DistanceKm(origin, agency.Location) > withinRadiusKm {
			continue
		}
		results = append(results, cloneAgency(agency))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

// MarkBusy commits an agency to a crisis. Unknown ids are a counted no-op.
func (d *Directory) MarkBusy(agencyID, crisisID string) {
	d.mark(agencyID, func(agency *Agency) {
		agency.Status = StatusBusy
		agency.CurrentCrisis = crisisID
	})
}

// MarkAvailable releases an agency. Unknown ids are a counted no-op.
func (d *Directory) MarkAvailable(agencyID string) {
	d.mark(agencyID, func(agency *Agency) {
		agency.Status = StatusAvailable
		agency.CurrentCrisis = ""
	})
}

// MarkOffline records a lost live channel. The agency keeps its crisis
// commitment; escalation discovers unresponsive units.
func (d *Directory) MarkOffline(agencyID string) {
	d.mark(agencyID, func(agency *Agency) {
		agency.Status = StatusOffline
	})
}

// Touch refreshes the last-seen timestamp on a live agency connection.
func (d *Directory) Touch(agencyID string) {
	d.mark(agencyID, func(agency *Agency) {
		agency.LastSeen = time.Now()
		if agency.Status == StatusOffline {
			agency.Status = StatusAvailable
		}
	})
}

// StaleMarkCount reports how many mark operations referenced unknown ids.
func (d *Directory) StaleMarkCount() int64 {
	return d.staleMarks.Load()
}

func (d *Directory) mark(agencyID string, mutate func(*Agency)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	agency, ok := d.agencies[agencyID]
	if !ok {
		d.staleMarks.Add(1)
		if d.log != nil {
			d.log.Debug("mark on unknown agency", "agency_id", agencyID)
		}
		return
	}
	mutate(agency)
}

func cloneAgency(agency *Agency) Agency {
	clone := *agency
	if agency.Specialties != nil {
		clone.Specialties = append([]string(nil), agency.Specialties...)
	}
	return clone
}
