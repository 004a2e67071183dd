// Package transport defines request and response DTOs for the agencies API.
package transport

import (
	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/geo"
)

// RegisterAgencyRequest creates or updates an agency in the directory.
type RegisterAgencyRequest struct {
	ID           string   `json:"id" validate:"omitempty,max=64"`
	Name         string   `json:"name" validate:"required,max=200"`
	Type         string   `json:"type" validate:"required,max=64"`
	Latitude     float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude    float64  `json:"longitude" validate:"min=-180,max=180"`
	Capacity     int      `json:"capacity" validate:"required,gt=0"`
	Specialties  []string `json:"specialties" validate:"omitempty,dive,max=64"`
	ContactPhone string   `json:"contactPhone" validate:"omitempty,max=20"`
	ContactEmail string   `json:"contactEmail" validate:"omitempty,email"`
}

// UpdateStatusRequest transitions an agency between availability states.
type UpdateStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=available busy offline"`
	CrisisID string `json:"crisisId" validate:"omitempty,uuid"`
}

// NearbyQuery filters and ranks agencies around a point.
type NearbyQuery struct {
	Latitude   float64 `form:"latitude" validate:"min=-90,max=90"`
	Longitude  float64 `form:"longitude" validate:"min=-180,max=180"`
	CrisisType string  `form:"crisisType" validate:"omitempty,max=64"`
	Severity   string  `form:"severity" validate:"omitempty,oneof=low medium high critical"`
	RadiusKm   float64 `form:"radiusKm" validate:"omitempty,gt=0,lte=500"`
	Limit      int     `form:"limit" validate:"omitempty,gt=0,lte=100"`
}

// NearbyAgency is one ranked directory entry with travel estimates.
type NearbyAgency struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Location    geo.Point `json:"location"`
	Capacity    int       `json:"capacity"`
	Specialties []string  `json:"specialties,omitempty"`
	Status      string    `json:"status"`
	Synthetic   bool      `json:"synthetic,omitempty"`
	DistanceKm  float64   `json:"distanceKm"`
	ETAMinutes  int       `json:"etaMinutes"`
	MatchScore  float64   `json:"matchScore"`
}

// AgencyResponse is the full directory view of one agency.
type AgencyResponse struct {
	directory.Agency
}

// ListAgenciesResponse wraps the directory listing.
type ListAgenciesResponse struct {
	Agencies []directory.Agency `json:"agencies"`
	Total    int                `json:"total"`
}
