package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
)

func approvedSubmission(repo *submissionRepoStub, id, studentID string, hours float64) {
	approved := hours
	repo.subs[id] = &models.Submission{
		ID:            id,
		StudentID:     studentID,
		ActivityID:    testActivityID,
		DimensionID:   testDimensionID,
		Year:          2025,
		Hours:         hours,
		ApprovedHours: &approved,
		Situation:     models.SituationApproved,
	}
}

func newExportService(t *testing.T) (*ExportService, *submissionRepoStub) {
	repo := newSubmissionRepoStub(t)
	users := newUserRepoStub()
	users.add(&models.User{ID: "stu-1", Email: "aluno@example.com", FullName: "Aluno Teste", Role: models.RoleStudent, Active: true})
	ledger := &ledgerStub{
		totals: map[string]float64{"stu-1": 18},
		breakdowns: map[string][]models.DimensionHours{
			"stu-1": {{DimensionID: testDimensionID, DimensionName: "Ensino", HourCap: 30, ApprovedHours: 18}},
		},
	}
	svc := NewExportService(repo, ledger, users, nil, nil, nil)
	return svc, repo
}

func TestExportServiceCSVStatement(t *testing.T) {
	svc, repo := newExportService(t)
	approvedSubmission(repo, "sub-1", "stu-1", 10)
	approvedSubmission(repo, "sub-2", "stu-1", 8)

	result, err := svc.HourStatement(context.Background(), "stu-1", "csv", reviewerClaims())
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Content)
	require.Contains(t, body, "Dimensao,Atividade,Ano,Horas Informadas,Horas Averbadas")
	require.Contains(t, body, "TOTAL")
}

func TestExportServicePDFStatement(t *testing.T) {
	svc, repo := newExportService(t)
	approvedSubmission(repo, "sub-1", "stu-1", 10)

	result, err := svc.HourStatement(context.Background(), "stu-1", "pdf", reviewerClaims())
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	require.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportServiceStudentExportsOwnOnly(t *testing.T) {
	svc, repo := newExportService(t)
	approvedSubmission(repo, "sub-1", "stu-1", 10)

	result, err := svc.HourStatement(context.Background(), "stu-2", "csv", studentClaims("stu-1"))
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, "stu-1", repo.lastFilter.StudentID)
}

func TestExportServiceInvalidFormat(t *testing.T) {
	svc, repo := newExportService(t)
	approvedSubmission(repo, "sub-1", "stu-1", 10)

	_, err := svc.HourStatement(context.Background(), "stu-1", "xlsx", reviewerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
