package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
	"github.com/noah-isme/gac-api/pkg/export"
)

type exportSubmissionLister interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionWithNames, int, error)
}

type exportUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ExportResult bundles a rendered document for download responses.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders per-student hour statements as CSV or PDF.
type ExportService struct {
	submissions exportSubmissionLister
	ledger      ledgerStore
	users       exportUserReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(submissions exportSubmissionLister, ledger ledgerStore, users exportUserReader, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{submissions: submissions, ledger: ledger, users: users, csv: csv, pdf: pdf, logger: logger}
}

// HourStatement renders the approved submissions of one student plus the
// per-dimension totals. Students export their own statement only.
func (s *ExportService) HourStatement(ctx context.Context, studentID, format string, actor *models.JWTClaims) (*ExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent {
		studentID = actor.UserID
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	rows, _, err := s.submissions.List(ctx, models.SubmissionFilter{
		StudentID: studentID,
		Situation: models.SituationApproved,
		PageSize:  100,
		SortBy:    "created_at",
		SortOrder: "ASC",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved submissions")
	}

	breakdown, err := s.ledger.DimensionBreakdown(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read dimension breakdown")
	}

	dataset := buildStatementDataset(rows, breakdown)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case "pdf":
		title := fmt.Sprintf("Horas Complementares - %s", student.FullName)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf statement")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("horas_%s_%s.pdf", slugifyFilename(student.FullName), stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv statement")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("horas_%s_%s.csv", slugifyFilename(student.FullName), stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	}
}

func buildStatementDataset(rows []models.SubmissionWithNames, breakdown []models.DimensionHours) export.Dataset {
	headers := []string{"Dimensao", "Atividade", "Ano", "Horas Informadas", "Horas Averbadas"}
	data := export.Dataset{Headers: headers}
	for _, row := range rows {
		approved := ""
		if row.ApprovedHours != nil {
			approved = fmt.Sprintf("%g", *row.ApprovedHours)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Dimensao":         row.DimensionName,
			"Atividade":        row.ActivityName,
			"Ano":              fmt.Sprintf("%d", row.Year),
			"Horas Informadas": fmt.Sprintf("%g", row.Hours),
			"Horas Averbadas":  approved,
		})
	}
	for _, dim := range breakdown {
		data.Rows = append(data.Rows, map[string]string{
			"Dimensao":         dim.DimensionName,
			"Atividade":        "TOTAL",
			"Ano":              "",
			"Horas Informadas": fmt.Sprintf("limite %g", dim.HourCap),
			"Horas Averbadas":  fmt.Sprintf("%g", dim.ApprovedHours),
		})
	}
	return data
}
