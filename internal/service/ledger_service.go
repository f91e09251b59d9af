package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
)

type ledgerStore interface {
	SumApprovedTotal(ctx context.Context, studentID string) (float64, error)
	SumApprovedByActivity(ctx context.Context, studentID, activityID string) (float64, error)
	SumApprovedByDimension(ctx context.Context, studentID, dimensionID string) (float64, error)
	DimensionBreakdown(ctx context.Context, studentID string) ([]models.DimensionHours, error)
}

// LedgerService exposes a student's credited-hours position. Aggregates
// are always computed from the submission rows; the ledger is never
// cached or materialized, so a decision is visible immediately.
type LedgerService struct {
	repo          ledgerStore
	logger        *zap.Logger
	maxTotalHours float64
}

// NewLedgerService constructs the service.
func NewLedgerService(repo ledgerStore, logger *zap.Logger, maxTotalHours float64) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTotalHours <= 0 {
		maxTotalHours = 100
	}
	return &LedgerService{repo: repo, logger: logger, maxTotalHours: maxTotalHours}
}

// TotalApprovedHours returns the student's credited total, zero when the
// student has no approved submissions.
func (s *LedgerService) TotalApprovedHours(ctx context.Context, studentID string) (float64, error) {
	if studentID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	total, err := s.repo.SumApprovedTotal(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read credited hours")
	}
	return total, nil
}

// ApprovedHoursForActivity returns the credited hours against one activity.
func (s *LedgerService) ApprovedHoursForActivity(ctx context.Context, studentID, activityID string) (float64, error) {
	if studentID == "" || activityID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "student id and activity id are required")
	}
	total, err := s.repo.SumApprovedByActivity(ctx, studentID, activityID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read activity hours")
	}
	return total, nil
}

// ApprovedHoursForDimension returns the credited hours against one dimension.
func (s *LedgerService) ApprovedHoursForDimension(ctx context.Context, studentID, dimensionID string) (float64, error) {
	if studentID == "" || dimensionID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "student id and dimension id are required")
	}
	total, err := s.repo.SumApprovedByDimension(ctx, studentID, dimensionID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read dimension hours")
	}
	return total, nil
}

// Summary returns the per-dimension breakdown and the running total for a
// student. Students may only read their own position.
func (s *LedgerService) Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.HourSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent {
		studentID = actor.UserID
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	total, err := s.repo.SumApprovedTotal(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read credited hours")
	}
	breakdown, err := s.repo.DimensionBreakdown(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read dimension breakdown")
	}

	return &models.HourSummary{
		StudentID:     studentID,
		TotalApproved: total,
		MaxTotalHours: s.maxTotalHours,
		Dimensions:    breakdown,
	}, nil
}
