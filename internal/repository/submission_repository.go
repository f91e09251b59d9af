package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gac-api/internal/models"
)

const submissionColumns = `s.id, s.student_id, s.activity_id, s.dimension_id, s.proof_mode_id, s.year, s.hours,
       s.approved_hours, s.situation, s.observation, s.review_comment, s.file_path, s.created_at, s.updated_at, s.reviewed_at`

// SubmissionRepository handles submission persistence and the approved-hours
// ledger aggregates derived from it.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create stores a new submission in EM_ANALISE.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if sub.Situation == "" {
		sub.Situation = models.SituationUnderReview
	}
	const query = `INSERT INTO submissions
	(id, student_id, activity_id, dimension_id, proof_mode_id, year, hours, approved_hours, situation, observation, review_comment, file_path, created_at, updated_at, reviewed_at)
	VALUES (:id, :student_id, :activity_id, :dimension_id, :proof_mode_id, :year, :hours, :approved_hours, :situation, :observation, :review_comment, :file_path, :created_at, :updated_at, :reviewed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetByID retrieves one submission row.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions s WHERE s.id = $1`, submissionColumns)
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &sub, nil
}

// List returns submissions applying filters with total count. Rows are
// enriched with activity, dimension and student names.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionWithNames, int, error) {
	baseQuery := `FROM submissions s
	JOIN activities a ON a.id = s.activity_id
	JOIN dimensions d ON d.id = s.dimension_id
	JOIN users u ON u.id = s.student_id
	WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ActivityID != "" {
		conditions = append(conditions, fmt.Sprintf("s.activity_id = $%d", len(args)+1))
		args = append(args, filter.ActivityID)
	}
	if filter.DimensionID != "" {
		conditions = append(conditions, fmt.Sprintf("s.dimension_id = $%d", len(args)+1))
		args = append(args, filter.DimensionID)
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("s.year = $%d", len(args)+1))
		args = append(args, *filter.Year)
	}
	if filter.Situation != "" {
		conditions = append(conditions, fmt.Sprintf("s.situation = $%d", len(args)+1))
		args = append(args, filter.Situation)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"year":           "s.year",
		"situation":      "s.situation",
		"created_at":     "s.created_at",
		"hours":          "s.hours",
		"approved_hours": "s.approved_hours",
		"activity.name":  "a.name",
		"dimension.name": "d.name",
	}
	sortColumn, ok := allowedSorts[sortBy]
	if !ok {
		sortColumn = "s.created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT %s, a.name AS activity_name, d.name AS dimension_name, u.full_name AS student_name %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		submissionColumns, baseQuery, sortColumn, sortOrder, pageSize, offset)

	var rows []models.SubmissionWithNames
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	return rows, total, nil
}

// Delete removes a submission row. Callers verify the situation first.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM submissions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check submission delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SumApprovedTotal returns the student's total credited hours across all
// approved submissions.
func (r *SubmissionRepository) SumApprovedTotal(ctx context.Context, studentID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(approved_hours), 0) FROM submissions WHERE student_id = $1 AND situation = 'APROVADO'`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, studentID); err != nil {
		return 0, fmt.Errorf("sum approved total: %w", err)
	}
	return total, nil
}

// SumApprovedByActivity returns the student's credited hours for one activity.
func (r *SubmissionRepository) SumApprovedByActivity(ctx context.Context, studentID, activityID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(approved_hours), 0) FROM submissions WHERE student_id = $1 AND activity_id = $2 AND situation = 'APROVADO'`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, studentID, activityID); err != nil {
		return 0, fmt.Errorf("sum approved by activity: %w", err)
	}
	return total, nil
}

// SumApprovedByDimension returns the student's credited hours within one
// dimension, aggregated across all of its activities.
func (r *SubmissionRepository) SumApprovedByDimension(ctx context.Context, studentID, dimensionID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(approved_hours), 0) FROM submissions WHERE student_id = $1 AND dimension_id = $2 AND situation = 'APROVADO'`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, studentID, dimensionID); err != nil {
		return 0, fmt.Errorf("sum approved by dimension: %w", err)
	}
	return total, nil
}

// DimensionBreakdown returns the student's credited hours per dimension,
// including dimensions with no approved submissions yet.
func (r *SubmissionRepository) DimensionBreakdown(ctx context.Context, studentID string) ([]models.DimensionHours, error) {
	const query = `SELECT d.id AS dimension_id, d.name AS dimension_name, d.hour_cap,
       COALESCE(SUM(s.approved_hours) FILTER (WHERE s.situation = 'APROVADO'), 0) AS approved_hours
	FROM dimensions d
	LEFT JOIN submissions s ON s.dimension_id = d.id AND s.student_id = $1
	GROUP BY d.id, d.name, d.hour_cap
	ORDER BY d.name ASC`
	var rows []models.DimensionHours
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("dimension breakdown: %w", err)
	}
	return rows, nil
}

// BeginTx opens a transaction for the review flow.
func (r *SubmissionRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin review tx: %w", err)
	}
	return tx, nil
}

// AcquireStudentLock serializes concurrent reviews for the same student.
// The advisory lock is released automatically when the transaction ends.
func (r *SubmissionRepository) AcquireStudentLock(ctx context.Context, tx *sqlx.Tx, studentID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, studentID); err != nil {
		return fmt.Errorf("acquire student lock: %w", err)
	}
	return nil
}

// GetByIDTx retrieves one submission row inside a transaction.
func (r *SubmissionRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions s WHERE s.id = $1`, submissionColumns)
	var sub models.Submission
	if err := tx.GetContext(ctx, &sub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get submission tx: %w", err)
	}
	return &sub, nil
}

// SumApprovedTotalTx reads the student's total inside a transaction.
func (r *SubmissionRepository) SumApprovedTotalTx(ctx context.Context, tx *sqlx.Tx, studentID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(approved_hours), 0) FROM submissions WHERE student_id = $1 AND situation = 'APROVADO'`
	var total float64
	if err := tx.GetContext(ctx, &total, query, studentID); err != nil {
		return 0, fmt.Errorf("sum approved total tx: %w", err)
	}
	return total, nil
}

// SumApprovedByActivityTx reads the per-activity sum inside a transaction.
func (r *SubmissionRepository) SumApprovedByActivityTx(ctx context.Context, tx *sqlx.Tx, studentID, activityID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(approved_hours), 0) FROM submissions WHERE student_id = $1 AND activity_id = $2 AND situation = 'APROVADO'`
	var total float64
	if err := tx.GetContext(ctx, &total, query, studentID, activityID); err != nil {
		return 0, fmt.Errorf("sum approved by activity tx: %w", err)
	}
	return total, nil
}

// SumApprovedByDimensionTx reads the per-dimension sum inside a transaction.
func (r *SubmissionRepository) SumApprovedByDimensionTx(ctx context.Context, tx *sqlx.Tx, studentID, dimensionID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(approved_hours), 0) FROM submissions WHERE student_id = $1 AND dimension_id = $2 AND situation = 'APROVADO'`
	var total float64
	if err := tx.GetContext(ctx, &total, query, studentID, dimensionID); err != nil {
		return 0, fmt.Errorf("sum approved by dimension tx: %w", err)
	}
	return total, nil
}

// UpdateReviewTx records the reviewer decision. The WHERE clause keeps the
// transition one-shot: a row that already left EM_ANALISE is never touched.
func (r *SubmissionRepository) UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, sub *models.Submission) error {
	sub.UpdatedAt = time.Now().UTC()
	const query = `UPDATE submissions
	SET situation = :situation, approved_hours = :approved_hours, review_comment = :review_comment, reviewed_at = :reviewed_at, updated_at = :updated_at
	WHERE id = :id AND situation = 'EM_ANALISE'`
	res, err := tx.NamedExecContext(ctx, query, sub)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
