package models

import "time"

// Situation is the three-state review status of a submission. A submission
// leaves EM_ANALISE exactly once and never returns.
type Situation string

const (
	SituationUnderReview Situation = "EM_ANALISE"
	SituationApproved    Situation = "APROVADO"
	SituationRejected    Situation = "RECUSADO"
)

// Valid reports whether the value is one of the three known situations.
func (s Situation) Valid() bool {
	switch s {
	case SituationUnderReview, SituationApproved, SituationRejected:
		return true
	}
	return false
}

// Terminal reports whether the situation admits no further transitions.
func (s Situation) Terminal() bool {
	return s == SituationApproved || s == SituationRejected
}

// Submission is one proof-of-activity document submitted by a student.
// ApprovedHours stays nil until a reviewer decides; ReviewComment is
// required on rejection and cleared on approval.
type Submission struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	ActivityID    string     `db:"activity_id" json:"activity_id"`
	DimensionID   string     `db:"dimension_id" json:"dimension_id"`
	ProofModeID   *string    `db:"proof_mode_id" json:"proof_mode_id,omitempty"`
	Year          int        `db:"year" json:"year"`
	Hours         float64    `db:"hours" json:"hours"`
	ApprovedHours *float64   `db:"approved_hours" json:"approved_hours,omitempty"`
	Situation     Situation  `db:"situation" json:"situation"`
	Observation   *string    `db:"observation" json:"observation,omitempty"`
	ReviewComment *string    `db:"review_comment" json:"review_comment,omitempty"`
	FilePath      string     `db:"file_path" json:"file_path"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// SubmissionWithNames joins catalog and student names onto a submission row
// for listings.
type SubmissionWithNames struct {
	Submission
	ActivityName  string `db:"activity_name" json:"activity_name"`
	DimensionName string `db:"dimension_name" json:"dimension_name"`
	StudentName   string `db:"student_name" json:"student_name"`
}

// SubmissionFilter narrows listing queries.
type SubmissionFilter struct {
	StudentID   string
	ActivityID  string
	DimensionID string
	Year        *int
	Situation   Situation
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// DimensionHours is one row of a student's per-dimension ledger breakdown.
type DimensionHours struct {
	DimensionID   string  `db:"dimension_id" json:"dimension_id"`
	DimensionName string  `db:"dimension_name" json:"dimension_name"`
	HourCap       float64 `db:"hour_cap" json:"hour_cap"`
	ApprovedHours float64 `db:"approved_hours" json:"approved_hours"`
}

// HourSummary aggregates a student's credited hours against the caps.
type HourSummary struct {
	StudentID     string           `json:"student_id"`
	TotalApproved float64          `json:"total_approved"`
	MaxTotalHours float64          `json:"max_total_hours"`
	Dimensions    []DimensionHours `json:"dimensions"`
}
