package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-api/internal/models"
)

func newSubmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{
		StudentID:   "stu-1",
		ActivityID:  "act-1",
		DimensionID: "dim-1",
		Year:        2025,
		Hours:       10,
		FilePath:    "uploads/certificado.pdf",
	}
	err := repo.Create(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, models.SituationUnderReview, sub.Situation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryList(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "student_id", "activity_id", "dimension_id", "proof_mode_id", "year", "hours",
		"approved_hours", "situation", "observation", "review_comment", "file_path",
		"created_at", "updated_at", "reviewed_at", "activity_name", "dimension_name", "student_name",
	}).AddRow("sub-1", "stu-1", "act-1", "dim-1", nil, 2025, 10.0, nil, "EM_ANALISE", nil, nil,
		"uploads/certificado.pdf", now, now, nil, "Monitoria", "Ensino", "Aluno Teste")

	mock.ExpectQuery(`SELECT .+ FROM submissions s`).
		WithArgs("stu-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM submissions s`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.SubmissionFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Monitoria", items[0].ActivityName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySumApprovedTotal(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(approved_hours\), 0\) FROM submissions`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(42.5))

	total, err := repo.SumApprovedTotal(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 42.5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryReviewTx(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE submissions`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.AcquireStudentLock(ctx, tx, "stu-1"))

	hours := 8.0
	now := time.Now().UTC()
	sub := &models.Submission{
		ID:            "sub-1",
		StudentID:     "stu-1",
		Situation:     models.SituationApproved,
		ApprovedHours: &hours,
		ReviewedAt:    &now,
	}
	require.NoError(t, repo.UpdateReviewTx(ctx, tx, sub))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryReviewTxAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE submissions`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	comment := "documento ilegivel"
	sub := &models.Submission{ID: "sub-1", Situation: models.SituationRejected, ReviewComment: &comment}
	err = repo.UpdateReviewTx(ctx, tx, sub)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(`DELETE FROM submissions`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryDimensionBreakdown(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows([]string{"dimension_id", "dimension_name", "hour_cap", "approved_hours"}).
		AddRow("dim-1", "Ensino", 40.0, 12.0).
		AddRow("dim-2", "Extensao", 30.0, 0.0)
	mock.ExpectQuery(`SELECT d.id AS dimension_id`).
		WithArgs("stu-1").
		WillReturnRows(rows)

	breakdown, err := repo.DimensionBreakdown(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, 12.0, breakdown[0].ApprovedHours)
	assert.Equal(t, 0.0, breakdown[1].ApprovedHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}
