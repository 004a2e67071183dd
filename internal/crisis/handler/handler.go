// Package handler exposes the crisis dispatch workflow over HTTP.
package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"crisisnet_backend/internal/crisis/service"
	"crisisnet_backend/internal/crisis/transport"
	"crisisnet_backend/internal/geo"
	"crisisnet_backend/platform/httpkit"
	"crisisnet_backend/platform/logger"
	"crisisnet_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidCrisisID  = "invalid crisis id"

	qrImageSize = 256

	// exifMismatchKm is how far photo GPS may sit from the reported
	// location before the disagreement is worth flagging.
	exifMismatchKm = 2.0
)

// StoredPhoto is the outcome of persisting an alert photo.
type StoredPhoto struct {
	URL string
	// GPS carries coordinates recovered from the image metadata, when any.
	GPS *geo.Point
}

// PhotoStore persists alert photos. Nil disables photo intake.
type PhotoStore interface {
	Store(ctx context.Context, ref, filename, contentType string, r io.Reader, size int64) (StoredPhoto, error)
}

// Handler handles HTTP requests for crises.
type Handler struct {
	svc    *service.Service
	photos PhotoStore
	val    *validator.Validator
	log    *logger.Logger
}

// New creates a new crisis handler.
func New(svc *service.Service, photos PhotoStore, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, photos: photos, val: val, log: log}
}

// Alert reports a new crisis. Accepts JSON, or multipart form data with an
// optional photo; photo coordinates fill in a missing reporter location.
// POST /api/v1/crisis/alert
func (h *Handler) Alert(c *gin.Context) {
	var req transport.AlertRequest
	multipart := strings.HasPrefix(c.ContentType(), "multipart/")
	if multipart {
		if err := c.ShouldBind(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	in := service.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Severity:      req.Severity,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		ContactNumber: req.ContactNumber,
		ReportedBy:    req.ReportedBy,
	}
	if identity := httpkit.GetIdentity(c); identity != nil && identity.IsAuthenticated() {
		in.ReporterID = identity.Subject()
	}

	if multipart && h.photos != nil {
		if stored, ok := h.storePhoto(c); ok {
			in.PhotoURL = stored.URL
			if stored.GPS != nil {
				if in.Latitude == 0 && in.Longitude == 0 {
					in.Latitude = stored.GPS.Lat
					in.Longitude = stored.GPS.Lon
				} else if km := geo.DistanceKm(geo.Point{Lat: in.Latitude, Lon: in.Longitude}, *stored.GPS); km > exifMismatchKm {
					h.log.Warn("photo GPS disagrees with reported location",
						"distanceKm", fmt.Sprintf("%.1f", km))
				}
			}
		}
	}

	result, err := h.svc.CreateCrisis(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// storePhoto saves the optional alert photo. A missing file is not an
// error; a failed store is logged and intake proceeds without the photo.
func (h *Handler) storePhoto(c *gin.Context) (StoredPhoto, bool) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return StoredPhoto{}, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.log.CollaboratorFailure("photo store", err)
		return StoredPhoto{}, false
	}
	defer file.Close()

	stored, err := h.photos.Store(
		c.Request.Context(),
		uuid.NewString(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		fileHeader.Size,
	)
	if err != nil {
		h.log.CollaboratorFailure("photo store", err)
		return StoredPhoto{}, false
	}
	return stored, true
}

// Get returns one crisis.
// GET /api/v1/crisis/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.crisisID(c)
	if !ok {
		return
	}
	crisis, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.CrisisDetailResponse{
		Crisis:  crisis,
		Metrics: service.MetricsFor(crisis),
	})
}

// ListActive returns all open crises, newest first.
// GET /api/v1/crisis/active
func (h *Handler) ListActive(c *gin.Context) {
	crises := h.svc.ListActive(c.Request.Context())
	httpkit.OK(c, transport.ListCrisesResponse{Crises: crises, Total: len(crises)})
}

// List returns every crisis, closed included.
// GET /api/v1/crisis
func (h *Handler) List(c *gin.Context) {
	crises := h.svc.ListAll(c.Request.Context())
	httpkit.OK(c, transport.ListCrisesResponse{Crises: crises, Total: len(crises)})
}

// Respond records an agency's accept or decline.
// POST /api/v1/crisis/:id/respond
func (h *Handler) Respond(c *gin.Context) {
	id, ok := h.crisisID(c)
	if !ok {
		return
	}
	var req transport.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.RecordResponse(c.Request.Context(), id, service.ResponseInput{
		AgencyID:        req.AgencyID,
		AgencyName:      req.AgencyName,
		Accepts:         req.Accepts,
		ETAMinutes:      req.ETAMinutes,
		CapacityOffered: req.CapacityOffered,
		Reason:          req.Reason,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Escalate widens the candidate pool for a crisis.
// POST /api/v1/crisis/:id/escalate
func (h *Handler) Escalate(c *gin.Context) {
	id, ok := h.crisisID(c)
	if !ok {
		return
	}
	result, err := h.svc.Escalate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Close resolves a crisis and releases its agencies.
// POST /api/v1/crisis/:id/close
func (h *Handler) Close(c *gin.Context) {
	id, ok := h.crisisID(c)
	if !ok {
		return
	}
	crisis, err := h.svc.Close(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, crisis)
}

// UpdateLocation appends a positional ping from a responding unit.
// POST /api/v1/crisis/:id/location
func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := h.crisisID(c)
	if !ok {
		return
	}
	var req transport.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	update, err := h.svc.AddLocationUpdate(c.Request.Context(), id, service.LocationInput{
		AgencyID:  req.AgencyID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Note:      req.Note,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, update)
}

// ShareQR renders a QR code pointing at the crisis detail endpoint, for
// printing on field handouts.
// GET /api/v1/crisis/:id/qr
func (h *Handler) ShareQR(c *gin.Context) {
	id, ok := h.crisisID(c)
	if !ok {
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	shareURL := fmt.Sprintf("%s://%s/api/v1/crisis/%s", scheme, c.Request.Host, id)
	png, err := qrcode.Encode(shareURL, qrcode.Medium, qrImageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// AnalyticsSummary returns the dashboard aggregate.
// GET /api/v1/crisis/analytics/summary
func (h *Handler) AnalyticsSummary(c *gin.Context) {
	httpkit.OK(c, h.svc.AnalyticsSummary(c.Request.Context()))
}

// SimulateCrisis seeds a drill crisis near a point.
// POST /api/v1/admin/simulate/crisis
func (h *Handler) SimulateCrisis(c *gin.Context) {
	var req transport.SimulateCrisisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	result, err := h.svc.SimulateCrisis(c.Request.Context(), req.Latitude, req.Longitude)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// SimulateResponses drives every notified candidate through the
// negotiation path with randomized answers.
// POST /api/v1/admin/simulate/crisis/:id/responses
func (h *Handler) SimulateResponses(c *gin.Context) {
	id, ok := h.crisisID(c)
	if !ok {
		return
	}
	results, err := h.svc.SimulateResponses(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"responses": results, "total": len(results)})
}

func (h *Handler) crisisID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCrisisID, nil)
		return uuid.Nil, false
	}
	return id, true
}
