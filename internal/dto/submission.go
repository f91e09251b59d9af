package dto

import "github.com/noah-isme/gac-api/internal/models"

// CreateSubmissionRequest contains metadata submitted alongside the PDF
// upload. DimensionID must be the dimension owning ActivityID; mismatched
// pairs are rejected.
type CreateSubmissionRequest struct {
	ActivityID  string  `form:"activityId" json:"activityId" validate:"required,uuid4"`
	DimensionID string  `form:"dimensionId" json:"dimensionId" validate:"required,uuid4"`
	ProofModeID *string `form:"proofModeId" json:"proofModeId" validate:"omitempty,uuid4"`
	Year        int     `form:"year" json:"year" validate:"required,gte=2000,lte=2100"`
	Hours       float64 `form:"hours" json:"hours" validate:"required,gt=0"`
	Observation *string `form:"observation" json:"observation" validate:"omitempty,max=500"`
}

// ReviewSubmissionRequest is the reviewer decision payload. ApprovedHours is
// required when Approved is true; Comment is required when it is false.
type ReviewSubmissionRequest struct {
	Approved      bool     `json:"approved"`
	ApprovedHours *float64 `json:"approvedHours" validate:"omitempty,gt=0"`
	Comment       *string  `json:"comment" validate:"omitempty,max=500"`
}

// SubmissionDownloadResponse enriches metadata with a presigned download URL.
type SubmissionDownloadResponse struct {
	models.Submission
	DownloadURL string `json:"downloadUrl"`
}

// SubmissionListResponse is one page of enriched submission rows.
type SubmissionListResponse struct {
	Items []models.SubmissionWithNames `json:"items"`
}
