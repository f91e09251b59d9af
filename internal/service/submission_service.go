package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/gac-api/internal/dto"
	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
	"github.com/noah-isme/gac-api/pkg/storage"
)

type submissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionWithNames, int, error)
	Delete(ctx context.Context, id string) error
	SumApprovedByDimension(ctx context.Context, studentID, dimensionID string) (float64, error)
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	AcquireStudentLock(ctx context.Context, tx *sqlx.Tx, studentID string) error
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Submission, error)
	SumApprovedTotalTx(ctx context.Context, tx *sqlx.Tx, studentID string) (float64, error)
	SumApprovedByActivityTx(ctx context.Context, tx *sqlx.Tx, studentID, activityID string) (float64, error)
	SumApprovedByDimensionTx(ctx context.Context, tx *sqlx.Tx, studentID, dimensionID string) (float64, error)
	UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, sub *models.Submission) error
}

type submissionCatalog interface {
	GetActivity(ctx context.Context, id string) (*models.Activity, error)
	GetDimension(ctx context.Context, id string) (*models.Dimension, error)
	GetProofMode(ctx context.Context, id string) (*models.ProofMode, error)
}

type submissionUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SubmissionUpload carries upload metadata and stream reader.
type SubmissionUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// SubmissionServiceConfig holds validation parameters for the intake and
// review flows.
type SubmissionServiceConfig struct {
	MaxFileSize   int64
	AllowedMIMEs  []string
	StoragePrefix string
	DownloadTTL   time.Duration
	MaxTotalHours float64
}

// SubmissionService manages the proof-of-activity lifecycle: intake,
// review, deletion and browsing.
type SubmissionService struct {
	repo      submissionStore
	catalog   submissionCatalog
	users     submissionUserReader
	storage   storage.ObjectStorage
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubmissionServiceConfig
	mimeSet   map[string]struct{}
}

// NewSubmissionService constructs the service with defaults.
func NewSubmissionService(repo submissionStore, catalog submissionCatalog, users submissionUserReader, store storage.ObjectStorage, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SubmissionServiceConfig) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf"}
	}
	if cfg.StoragePrefix == "" {
		cfg.StoragePrefix = "uploads"
	}
	if cfg.DownloadTTL <= 0 {
		cfg.DownloadTTL = 24 * time.Hour
	}
	if cfg.MaxTotalHours <= 0 {
		cfg.MaxTotalHours = 100
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &SubmissionService{
		repo:      repo,
		catalog:   catalog,
		users:     users,
		storage:   store,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// Create registers a new submission in EM_ANALISE, storing the proof
// document. Preconditions run in a fixed order so callers always see the
// same failure for the same payload.
func (s *SubmissionService) Create(ctx context.Context, meta dto.CreateSubmissionRequest, upload SubmissionUpload, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students submit activity proofs")
	}
	if err := s.validator.Struct(meta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	// The JWT alone is not enough: a deactivated account may still hold
	// a valid access token, so the row is consulted on every intake.
	student, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students submit activity proofs")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "inactive accounts cannot submit")
	}

	activity, err := s.catalog.GetActivity(ctx, meta.ActivityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "activity does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if activity.DimensionID != meta.DimensionID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity does not belong to the given dimension")
	}
	dimension, err := s.catalog.GetDimension(ctx, meta.DimensionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dimension does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dimension")
	}

	if meta.ProofModeID != nil && *meta.ProofModeID != "" {
		if _, err := s.catalog.GetProofMode(ctx, *meta.ProofModeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "proof mode does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proof mode")
		}
	}

	// Fast-fail before any storage I/O: a dimension whose cap is already
	// met cannot receive new submissions.
	dimensionSum, err := s.repo.SumApprovedByDimension(ctx, actor.UserID, dimension.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read dimension hours")
	}
	if dimensionSum >= dimension.HourCap {
		return nil, appErrors.Clone(appErrors.ErrCapExceeded, fmt.Sprintf("dimension %q cap of %g hours already reached", dimension.Name, dimension.HourCap))
	}

	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[strings.ToLower(mimeType)]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only PDF documents are accepted")
	}

	key := s.objectKey(upload.Filename)
	exists, err := s.storage.Exists(ctx, key)
	s.metrics.RecordStorageOperation("stat", err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to probe storage")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Já existe um arquivo com este nome.")
	}

	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if _, err := s.storage.Put(ctx, key, upload.Content, storage.PutOptions{Size: upload.Size, ContentType: mimeType}); err != nil {
		s.metrics.RecordStorageOperation("put", err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist proof document")
	}
	s.metrics.RecordStorageOperation("put", nil)

	sub := &models.Submission{
		StudentID:   actor.UserID,
		ActivityID:  activity.ID,
		DimensionID: activity.DimensionID,
		ProofModeID: normalizeRef(meta.ProofModeID),
		Year:        meta.Year,
		Hours:       meta.Hours,
		Situation:   models.SituationUnderReview,
		Observation: normalizeRef(meta.Observation),
		FilePath:    key,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	s.metrics.RecordUpload()
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionSubmissionCreate,
		Resource:   "submission",
		ResourceID: &sub.ID,
		NewValues:  []byte(fmt.Sprintf(`{"activity_id":"%s","hours":%g}`, sub.ActivityID, sub.Hours)),
	})
	return sub, nil
}

// Review records the reviewer decision. Approval re-reads every ledger
// aggregate inside a transaction holding a per-student advisory lock, so
// two concurrent approvals for the same student cannot both pass the caps.
func (s *SubmissionService) Review(ctx context.Context, id string, req dto.ReviewSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if err := s.ensureReviewer(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.Approved {
		if req.ApprovedHours == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approvedHours is required when approving")
		}
	} else {
		if req.Comment == nil || strings.TrimSpace(*req.Comment) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "comment is required when rejecting")
		}
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open review transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.repo.AcquireStudentLock(ctx, tx, current.StudentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialize review")
	}

	sub, err := s.repo.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload submission")
	}
	if sub.Situation.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, fmt.Sprintf("submission already decided as %s", sub.Situation))
	}

	now := time.Now().UTC()
	if req.Approved {
		hours := *req.ApprovedHours
		if err := s.checkCaps(ctx, tx, sub, hours); err != nil {
			return nil, err
		}
		sub.Situation = models.SituationApproved
		sub.ApprovedHours = &hours
		sub.ReviewComment = normalizeRef(req.Comment)
	} else {
		sub.Situation = models.SituationRejected
		sub.ApprovedHours = nil
		sub.ReviewComment = req.Comment
	}
	sub.ReviewedAt = &now

	if err := s.repo.UpdateReviewTx(ctx, tx, sub); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "submission already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit review")
	}

	s.metrics.RecordReviewDecision(sub.Situation)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionSubmissionReview,
		Resource:   "submission",
		ResourceID: &sub.ID,
		NewValues:  []byte(fmt.Sprintf(`{"situation":"%s"}`, sub.Situation)),
	})
	return sub, nil
}

// Delete removes a submission that is still under review, along with its
// stored document. Students remove their own; admins remove any.
func (s *SubmissionService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if actor.Role == models.RoleStudent && sub.StudentID != actor.UserID {
		return appErrors.ErrForbidden
	}
	if actor.Role == models.RoleProfessor {
		return appErrors.ErrForbidden
	}
	if sub.Situation != models.SituationUnderReview {
		return appErrors.Clone(appErrors.ErrConflict, "only submissions under review can be removed")
	}

	if err := s.storage.Delete(ctx, sub.FilePath); err != nil {
		s.metrics.RecordStorageOperation("delete", err)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove proof document")
	}
	s.metrics.RecordStorageOperation("delete", nil)
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionSubmissionDelete,
		Resource:   "submission",
		ResourceID: &id,
	})
	return nil
}

// List returns submissions visible to the actor. Students only ever see
// their own rows regardless of the requested filter.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter, actor *models.JWTClaims) ([]models.SubmissionWithNames, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent {
		filter.StudentID = actor.UserID
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return items, total, nil
}

// Get returns one submission enforcing ownership for students.
func (s *SubmissionService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if actor.Role == models.RoleStudent && sub.StudentID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return sub, nil
}

// GetDownloadURL returns a presigned URL for the proof document.
func (s *SubmissionService) GetDownloadURL(ctx context.Context, id string, actor *models.JWTClaims) (*dto.SubmissionDownloadResponse, error) {
	sub, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.PresignGet(ctx, sub.FilePath, s.cfg.DownloadTTL)
	s.metrics.RecordStorageOperation("presign", err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to presign download")
	}
	return &dto.SubmissionDownloadResponse{Submission: *sub, DownloadURL: url}, nil
}

func (s *SubmissionService) ensureReviewer(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleProfessor:
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// checkCaps validates the approval against every layered limit using sums
// read inside the locked transaction.
func (s *SubmissionService) checkCaps(ctx context.Context, tx *sqlx.Tx, sub *models.Submission, hours float64) error {
	if hours > sub.Hours {
		return appErrors.Clone(appErrors.ErrValidation, "approved hours cannot exceed the claimed hours")
	}

	activity, err := s.catalog.GetActivity(ctx, sub.ActivityID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	dimension, err := s.catalog.GetDimension(ctx, sub.DimensionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dimension")
	}

	activitySum, err := s.repo.SumApprovedByActivityTx(ctx, tx, sub.StudentID, sub.ActivityID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read activity hours")
	}
	if activitySum+hours > activity.HourCap {
		return appErrors.Clone(appErrors.ErrCapExceeded, fmt.Sprintf("activity %q allows at most %g hours, %g already credited", activity.Name, activity.HourCap, activitySum))
	}

	dimensionSum, err := s.repo.SumApprovedByDimensionTx(ctx, tx, sub.StudentID, sub.DimensionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read dimension hours")
	}
	if dimensionSum+hours > dimension.HourCap {
		return appErrors.Clone(appErrors.ErrCapExceeded, fmt.Sprintf("dimension %q allows at most %g hours, %g already credited", dimension.Name, dimension.HourCap, dimensionSum))
	}

	// The ceiling compares the pre-existing total, not total+hours: it is
	// a kill switch against runaway accumulation, and a student just
	// below the ceiling may still be credited once past it.
	totalSum, err := s.repo.SumApprovedTotalTx(ctx, tx, sub.StudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read total hours")
	}
	if totalSum >= s.cfg.MaxTotalHours {
		return appErrors.Clone(appErrors.ErrCapExceeded, fmt.Sprintf("student already reached the %g hour ceiling", s.cfg.MaxTotalHours))
	}

	return nil
}

func (s *SubmissionService) objectKey(original string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.StoragePrefix, "/"), slugifyFilename(original))
}

func (s *SubmissionService) detectMime(upload SubmissionUpload) (string, error) {
	if upload.Content == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "file reader missing")
	}
	if upload.MimeType != "" {
		return upload.MimeType, nil
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	return http.DetectContentType(header[:n]), nil
}

// slugifyFilename lowercases the name and strips everything outside
// [a-z0-9._-], so keys are stable across resubmissions of the same file.
func slugifyFilename(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	lastDash := false
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "documento.pdf"
	}
	return slug
}

func normalizeRef(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	result := trimmed
	return &result
}

func (s *SubmissionService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "submission-service"
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to create submission audit", zap.Error(err))
	}
}
