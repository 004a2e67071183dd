// Package transport defines request and response DTOs for the crisis API.
package transport

import (
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/crisis/service"
)

// AlertRequest reports a new crisis. Bound from JSON or, when a photo is
// attached, from multipart form fields.
type AlertRequest struct {
	Title         string  `json:"title" form:"title" validate:"required,max=200"`
	Description   string  `json:"description" form:"description" validate:"omitempty,max=4000"`
	Type          string  `json:"type" form:"type" validate:"omitempty,max=64"`
	Severity      string  `json:"severity" form:"severity" validate:"omitempty,oneof=low medium high critical"`
	Latitude      float64 `json:"latitude" form:"latitude" validate:"min=-90,max=90"`
	Longitude     float64 `json:"longitude" form:"longitude" validate:"min=-180,max=180"`
	ContactNumber string  `json:"contactNumber" form:"contactNumber" validate:"omitempty,max=20"`
	ReportedBy    string  `json:"reportedBy" form:"reportedBy" validate:"omitempty,max=200"`
}

// RespondRequest records one agency's answer to a crisis.
type RespondRequest struct {
	AgencyID        string `json:"agencyId" validate:"required,max=64"`
	AgencyName      string `json:"agencyName" validate:"omitempty,max=200"`
	Accepts         bool   `json:"accepts"`
	ETAMinutes      int    `json:"etaMinutes" validate:"omitempty,gte=0,lte=1440"`
	CapacityOffered int    `json:"capacityOffered" validate:"omitempty,gte=0"`
	Reason          string `json:"reason" validate:"omitempty,max=500"`
}

// LocationUpdateRequest is one positional ping from a responding unit.
type LocationUpdateRequest struct {
	AgencyID  string  `json:"agencyId" validate:"required,max=64"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Note      string  `json:"note" validate:"omitempty,max=500"`
}

// SimulateCrisisRequest seeds a drill around a point.
type SimulateCrisisRequest struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// ListCrisesResponse wraps a registry listing.
type ListCrisesResponse struct {
	Crises []domain.Crisis `json:"crises"`
	Total  int             `json:"total"`
}

// CrisisDetailResponse is one crisis plus its response digest.
type CrisisDetailResponse struct {
	Crisis  domain.Crisis         `json:"crisis"`
	Metrics service.CrisisMetrics `json:"metrics"`
}
