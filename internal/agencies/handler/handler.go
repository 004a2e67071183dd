// Package handler exposes the agency directory over HTTP.
package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/agencies/transport"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/internal/geo"
	"crisisnet_backend/platform/httpkit"
	"crisisnet_backend/platform/logger"
	"crisisnet_backend/platform/phone"
	"crisisnet_backend/platform/sanitize"
	"crisisnet_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUnknownAgency    = "unknown agency"

	defaultNearbyRadiusKm = 10.0
	defaultNearbyLimit    = 20
)

// Handler handles HTTP requests for the agency directory.
type Handler struct {
	dir    *directory.Directory
	scorer *geo.Scorer
	bus    events.Bus
	val    *validator.Validator
	log    *logger.Logger
}

// New creates a new agencies handler.
func New(dir *directory.Directory, scorer *geo.Scorer, bus events.Bus, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{dir: dir, scorer: scorer, bus: bus, val: val, log: log}
}

// List returns every registered agency.
// GET /api/v1/agencies
func (h *Handler) List(c *gin.Context) {
	agencies := h.dir.List()
	httpkit.OK(c, transport.ListAgenciesResponse{Agencies: agencies, Total: len(agencies)})
}

// Get returns one agency by id.
// GET /api/v1/agencies/:id
func (h *Handler) Get(c *gin.Context) {
	agency, ok := h.dir.Get(c.Param("id"))
	if !ok {
		httpkit.Error(c, http.StatusNotFound, msgUnknownAgency, nil)
		return
	}
	httpkit.OK(c, transport.AgencyResponse{Agency: agency})
}

// Nearby ranks non-busy agencies around a point by match score.
// GET /api/v1/agencies/nearby
func (h *Handler) Nearby(c *gin.Context) {
	var query transport.NearbyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if query.RadiusKm == 0 {
		query.RadiusKm = defaultNearbyRadiusKm
	}
	if query.Limit == 0 {
		query.Limit = defaultNearbyLimit
	}

	origin := geo.Point{Lat: query.Latitude, Lon: query.Longitude}
	results := make([]transport.NearbyAgency, 0)
	for _, agency := range h.dir.ListAvailable(origin, query.RadiusKm) {
		distance := geo.DistanceKm(origin, agency.Location)
		eta := h.scorer.ETAMinutes(distance, query.Severity)
		results = append(results, transport.NearbyAgency{
			ID:          agency.ID,
			Name:        agency.Name,
			Type:        agency.Type,
			Location:    agency.Location,
			Capacity:    agency.Capacity,
			Specialties: agency.Specialties,
			Status:      string(agency.Status),
			Synthetic:   agency.Synthetic,
			DistanceKm:  distance,
			ETAMinutes:  eta,
			MatchScore:  geo.MatchScore(distance, eta, agency.Type, query.CrisisType),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore < results[j].MatchScore
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > query.Limit {
		results = results[:query.Limit]
	}
	httpkit.OK(c, gin.H{"agencies": results, "total": len(results)})
}

// Register creates or updates an agency.
// POST /api/v1/agencies
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = slugify(req.Name)
	}
	_, existed := h.dir.Get(id)

	agency := directory.Agency{
		ID:           id,
		Name:         sanitize.Text(req.Name),
		Type:         strings.ToLower(strings.TrimSpace(req.Type)),
		Location:     geo.Point{Lat: req.Latitude, Lon: req.Longitude},
		Capacity:     req.Capacity,
		Specialties:  req.Specialties,
		ContactPhone: phone.NormalizeE164(req.ContactPhone),
		ContactEmail: req.ContactEmail,
	}
	h.dir.Upsert(agency)

	stored, _ := h.dir.Get(id)
	if !existed {
		h.publish(c.Request.Context(), events.AgencyRegistered{
			BaseEvent: events.NewBaseEvent(),
			AgencyID:  id,
			Agency:    stored,
		})
		httpkit.Created(c, transport.AgencyResponse{Agency: stored})
		return
	}
	httpkit.OK(c, transport.AgencyResponse{Agency: stored})
}

// UpdateStatus transitions an agency's availability.
// POST /api/v1/agencies/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id := c.Param("id")
	if _, ok := h.dir.Get(id); !ok {
		httpkit.Error(c, http.StatusNotFound, msgUnknownAgency, nil)
		return
	}

	switch directory.Status(req.Status) {
	case directory.StatusBusy:
		h.dir.MarkBusy(id, req.CrisisID)
	case directory.StatusOffline:
		h.dir.MarkOffline(id)
	default:
		h.dir.MarkAvailable(id)
	}

	updated, _ := h.dir.Get(id)
	h.publish(c.Request.Context(), events.AgencyStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		AgencyID:  id,
		Agency:    updated,
	})
	h.log.AgencyEvent("status updated", id, req.Status)
	httpkit.OK(c, transport.AgencyResponse{Agency: updated})
}

// Heartbeat refreshes an agency's last-seen timestamp.
// POST /api/v1/agencies/:id/heartbeat
func (h *Handler) Heartbeat(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.dir.Get(id); !ok {
		httpkit.Error(c, http.StatusNotFound, msgUnknownAgency, nil)
		return
	}
	h.dir.Touch(id)
	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *Handler) publish(ctx context.Context, event events.Event) {
	if h.bus != nil {
		h.bus.Publish(ctx, event)
	}
}

// slugify derives a directory id from an agency name.
func slugify(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '_'
		}
		return -1
	}, strings.TrimSpace(name))
	return strings.Trim(cleaned, "_")
}
