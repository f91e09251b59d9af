package dto

import "github.com/noah-isme/gac-api/internal/models"

// CreateDimensionRequest payload for registering a dimension.
type CreateDimensionRequest struct {
	Name    string  `json:"name" validate:"required,max=120"`
	HourCap float64 `json:"hour_cap" validate:"required,gt=0"`
}

// CreateActivityRequest payload for registering an activity under a dimension.
type CreateActivityRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	DimensionID string  `json:"dimension_id" validate:"required,uuid4"`
	HourCap     float64 `json:"hour_cap" validate:"required,gt=0"`
}

// DimensionWithActivities nests the dimension's activities for catalog reads.
type DimensionWithActivities struct {
	models.Dimension
	Activities []models.Activity `json:"activities"`
}
