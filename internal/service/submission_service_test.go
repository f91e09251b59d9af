package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-api/internal/dto"
	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
	"github.com/noah-isme/gac-api/pkg/storage"
)

const (
	testActivityID   = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	testDimensionID  = "0f8fad5b-d9cb-469f-a165-70867728950e"
	testProofModeID  = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	otherDimensionID = "5fbd2f8e-2f44-4df3-9d52-1b9a3f6e8c11"
)

type submissionRepoStub struct {
	txdb          *sqlx.DB
	subs          map[string]*models.Submission
	totals        map[string]float64
	activitySums  map[string]float64
	dimensionSums map[string]float64
	createErr     error
	deleted       []string
	lastFilter    models.SubmissionFilter
}

func newSubmissionRepoStub(t *testing.T) *submissionRepoStub {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 8; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	t.Cleanup(func() { db.Close() })
	return &submissionRepoStub{
		txdb:          sqlx.NewDb(db, "sqlmock"),
		subs:          make(map[string]*models.Submission),
		totals:        make(map[string]float64),
		activitySums:  make(map[string]float64),
		dimensionSums: make(map[string]float64),
	}
}

func (r *submissionRepoStub) Create(ctx context.Context, sub *models.Submission) error {
	if r.createErr != nil {
		return r.createErr
	}
	if sub.ID == "" {
		sub.ID = fmt.Sprintf("sub-%d", len(r.subs)+1)
	}
	if sub.Situation == "" {
		sub.Situation = models.SituationUnderReview
	}
	r.subs[sub.ID] = sub
	return nil
}

func (r *submissionRepoStub) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	if sub, ok := r.subs[id]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *submissionRepoStub) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionWithNames, int, error) {
	r.lastFilter = filter
	var result []models.SubmissionWithNames
	for _, sub := range r.subs {
		if filter.StudentID != "" && sub.StudentID != filter.StudentID {
			continue
		}
		if filter.Situation != "" && sub.Situation != filter.Situation {
			continue
		}
		result = append(result, models.SubmissionWithNames{Submission: *sub})
	}
	return result, len(result), nil
}

func (r *submissionRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.subs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.subs, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *submissionRepoStub) SumApprovedTotal(ctx context.Context, studentID string) (float64, error) {
	return r.totals[studentID], nil
}

func (r *submissionRepoStub) SumApprovedByDimension(ctx context.Context, studentID, dimensionID string) (float64, error) {
	return r.dimensionSums[studentID+"|"+dimensionID], nil
}

func (r *submissionRepoStub) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.txdb.Beginx()
}

func (r *submissionRepoStub) AcquireStudentLock(ctx context.Context, tx *sqlx.Tx, studentID string) error {
	return nil
}

func (r *submissionRepoStub) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Submission, error) {
	return r.GetByID(ctx, id)
}

func (r *submissionRepoStub) SumApprovedTotalTx(ctx context.Context, tx *sqlx.Tx, studentID string) (float64, error) {
	return r.totals[studentID], nil
}

func (r *submissionRepoStub) SumApprovedByActivityTx(ctx context.Context, tx *sqlx.Tx, studentID, activityID string) (float64, error) {
	return r.activitySums[studentID+"|"+activityID], nil
}

func (r *submissionRepoStub) SumApprovedByDimensionTx(ctx context.Context, tx *sqlx.Tx, studentID, dimensionID string) (float64, error) {
	return r.dimensionSums[studentID+"|"+dimensionID], nil
}

func (r *submissionRepoStub) UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, sub *models.Submission) error {
	stored, ok := r.subs[sub.ID]
	if !ok || stored.Situation != models.SituationUnderReview {
		return sql.ErrNoRows
	}
	copied := *sub
	r.subs[sub.ID] = &copied
	return nil
}

type catalogStub struct {
	activities map[string]*models.Activity
	dimensions map[string]*models.Dimension
	proofModes map[string]*models.ProofMode
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		activities: map[string]*models.Activity{
			testActivityID: {ID: testActivityID, Name: "Monitoria", DimensionID: testDimensionID, HourCap: 20},
		},
		dimensions: map[string]*models.Dimension{
			testDimensionID: {ID: testDimensionID, Name: "Ensino", HourCap: 30},
		},
		proofModes: map[string]*models.ProofMode{
			testProofModeID: {ID: testProofModeID, Name: "Certificado"},
		},
	}
}

func (c *catalogStub) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	if act, ok := c.activities[id]; ok {
		return act, nil
	}
	return nil, sql.ErrNoRows
}

func (c *catalogStub) GetDimension(ctx context.Context, id string) (*models.Dimension, error) {
	if dim, ok := c.dimensions[id]; ok {
		return dim, nil
	}
	return nil, sql.ErrNoRows
}

func (c *catalogStub) GetProofMode(ctx context.Context, id string) (*models.ProofMode, error) {
	if mode, ok := c.proofModes[id]; ok {
		return mode, nil
	}
	return nil, sql.ErrNoRows
}

type objectStoreStub struct {
	objects   map[string][]byte
	deleted   []string
	deleteErr error
}

func newObjectStoreStub() *objectStoreStub {
	return &objectStoreStub{objects: make(map[string][]byte)}
}

func (s *objectStoreStub) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *objectStoreStub) Put(ctx context.Context, key string, r io.Reader, opt storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.objects[key] = data
	return storage.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: opt.ContentType}, nil
}

func (s *objectStoreStub) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, fmt.Errorf("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *objectStoreStub) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *objectStoreStub) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.local/" + key + "?sig=stub", nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) Create(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func activeStudents(ids ...string) *userReaderStub {
	users := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		users[id] = &models.User{ID: id, Role: models.RoleStudent, Active: true}
	}
	return &userReaderStub{users: users}
}

func (u *userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func submissionTestConfig() SubmissionServiceConfig {
	return SubmissionServiceConfig{
		MaxFileSize:   1024 * 1024,
		AllowedMIMEs:  []string{"application/pdf"},
		StoragePrefix: "uploads",
		MaxTotalHours: 100,
	}
}

func newSubmissionService(t *testing.T) (*SubmissionService, *submissionRepoStub, *objectStoreStub, *auditStub) {
	repo := newSubmissionRepoStub(t)
	store := newObjectStoreStub()
	audit := &auditStub{}
	svc := NewSubmissionService(repo, newCatalogStub(), activeStudents("stu-1", "stu-2"), store, audit, nil, nil, nil, submissionTestConfig())
	return svc, repo, store, audit
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func reviewerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "prof-1", Role: models.RoleProfessor}
}

func pdfUpload(name, content string) SubmissionUpload {
	reader := bytes.NewReader([]byte(content))
	return SubmissionUpload{
		Filename: name,
		Size:     int64(len(content)),
		MimeType: "application/pdf",
		Content:  reader,
	}
}

func validCreateRequest() dto.CreateSubmissionRequest {
	return dto.CreateSubmissionRequest{
		ActivityID:  testActivityID,
		DimensionID: testDimensionID,
		Year:        2025,
		Hours:       10,
	}
}

func TestSubmissionServiceCreate(t *testing.T) {
	svc, repo, store, audit := newSubmissionService(t)

	sub, err := svc.Create(context.Background(), validCreateRequest(), pdfUpload("Certificado Final.pdf", "%PDF-1.4 data"), studentClaims("stu-1"))
	require.NoError(t, err)
	require.Equal(t, models.SituationUnderReview, sub.Situation)
	require.Equal(t, testDimensionID, sub.DimensionID)
	require.Equal(t, "uploads/certificado-final.pdf", sub.FilePath)
	require.Contains(t, store.objects, sub.FilePath)
	require.Len(t, repo.subs, 1)
	require.Len(t, audit.logs, 1)
}

func TestSubmissionServiceCreateDuplicateFilename(t *testing.T) {
	svc, _, store, _ := newSubmissionService(t)
	store.objects["uploads/certificado.pdf"] = []byte("existing")

	_, err := svc.Create(context.Background(), validCreateRequest(), pdfUpload("certificado.pdf", "%PDF-1.4 data"), studentClaims("stu-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Contains(t, appErr.Message, "Já existe um arquivo com este nome.")
}

func TestSubmissionServiceCreateRejectsNonPDF(t *testing.T) {
	svc, _, _, _ := newSubmissionService(t)

	upload := pdfUpload("foto.png", "not a pdf")
	upload.MimeType = "image/png"
	_, err := svc.Create(context.Background(), validCreateRequest(), upload, studentClaims("stu-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceCreateDimensionCapReached(t *testing.T) {
	svc, repo, store, _ := newSubmissionService(t)
	repo.dimensionSums["stu-1|"+testDimensionID] = 30

	_, err := svc.Create(context.Background(), validCreateRequest(), pdfUpload("doc.pdf", "%PDF-1.4 data"), studentClaims("stu-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrCapExceeded.Code, appErrors.FromError(err).Code)
	require.Empty(t, store.objects)
	require.Empty(t, repo.subs)
}

func TestSubmissionServiceCreateDimensionMismatch(t *testing.T) {
	svc, repo, store, _ := newSubmissionService(t)

	req := validCreateRequest()
	req.DimensionID = otherDimensionID
	_, err := svc.Create(context.Background(), req, pdfUpload("doc.pdf", "%PDF-1.4 data"), studentClaims("stu-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Message, "does not belong")
	require.Empty(t, store.objects)
	require.Empty(t, repo.subs)
}

func TestSubmissionServiceCreateInactiveStudent(t *testing.T) {
	repo := newSubmissionRepoStub(t)
	users := &userReaderStub{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Role: models.RoleStudent, Active: false},
	}}
	store := newObjectStoreStub()
	svc := NewSubmissionService(repo, newCatalogStub(), users, store, &auditStub{}, nil, nil, nil, submissionTestConfig())

	_, err := svc.Create(context.Background(), validCreateRequest(), pdfUpload("doc.pdf", "%PDF-1.4 data"), studentClaims("stu-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
	require.Empty(t, store.objects)
}

func TestSubmissionServiceCreateUnknownStudent(t *testing.T) {
	svc, _, _, _ := newSubmissionService(t)

	_, err := svc.Create(context.Background(), validCreateRequest(), pdfUpload("doc.pdf", "%PDF-1.4 data"), studentClaims("stu-ghost"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceCreateCompensatesStorageOnRepoFailure(t *testing.T) {
	svc, repo, store, _ := newSubmissionService(t)
	repo.createErr = fmt.Errorf("db down")

	_, err := svc.Create(context.Background(), validCreateRequest(), pdfUpload("doc.pdf", "%PDF-1.4 data"), studentClaims("stu-1"))
	require.Error(t, err)
	require.Empty(t, store.objects)
	require.Contains(t, store.deleted, "uploads/doc.pdf")
}

func TestSubmissionServiceCreateForbiddenForProfessor(t *testing.T) {
	svc, _, _, _ := newSubmissionService(t)

	_, err := svc.Create(context.Background(), validCreateRequest(), pdfUpload("doc.pdf", "%PDF-1.4 data"), reviewerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func seedUnderReview(repo *submissionRepoStub, id, studentID string, hours float64) *models.Submission {
	sub := &models.Submission{
		ID:          id,
		StudentID:   studentID,
		ActivityID:  testActivityID,
		DimensionID: testDimensionID,
		Year:        2025,
		Hours:       hours,
		Situation:   models.SituationUnderReview,
		FilePath:    "uploads/" + id + ".pdf",
	}
	repo.subs[id] = sub
	return sub
}

func TestSubmissionServiceReviewApprove(t *testing.T) {
	svc, repo, _, audit := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)

	hours := 8.0
	sub, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.NoError(t, err)
	require.Equal(t, models.SituationApproved, sub.Situation)
	require.NotNil(t, sub.ApprovedHours)
	require.Equal(t, 8.0, *sub.ApprovedHours)
	require.NotNil(t, sub.ReviewedAt)
	require.Len(t, audit.logs, 1)
}

func TestSubmissionServiceReviewApproveMoreThanClaimed(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)

	hours := 12.0
	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Equal(t, models.SituationUnderReview, repo.subs["sub-1"].Situation)
}

func TestSubmissionServiceReviewActivityCap(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)
	repo.activitySums["stu-1|"+testActivityID] = 15

	hours := 8.0
	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrCapExceeded.Code, appErr.Code)
	require.Contains(t, appErr.Message, "Monitoria")
	require.Equal(t, models.SituationUnderReview, repo.subs["sub-1"].Situation)
}

func TestSubmissionServiceReviewDimensionCap(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)
	repo.dimensionSums["stu-1|"+testDimensionID] = 25

	hours := 8.0
	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrCapExceeded.Code, appErr.Code)
	require.Contains(t, appErr.Message, "Ensino")
}

func TestSubmissionServiceReviewTotalCeiling(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)
	repo.totals["stu-1"] = 100

	hours := 8.0
	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrCapExceeded.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceReviewCeilingComparesPreExistingTotal(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)
	repo.totals["stu-1"] = 95

	// 95 is below the ceiling, so the approval passes even though the
	// post-approval total would exceed 100.
	hours := 8.0
	sub, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.NoError(t, err)
	require.Equal(t, models.SituationApproved, sub.Situation)
}

func TestSubmissionServiceReviewFractionalHours(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)

	hours := 0.5
	sub, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.NoError(t, err)
	require.Equal(t, 0.5, *sub.ApprovedHours)
}

func TestSubmissionServiceReviewReject(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)

	comment := "documento ilegivel"
	sub, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: false, Comment: &comment}, reviewerClaims())
	require.NoError(t, err)
	require.Equal(t, models.SituationRejected, sub.Situation)
	require.Nil(t, sub.ApprovedHours)
	require.Equal(t, comment, *sub.ReviewComment)
}

func TestSubmissionServiceReviewRejectRequiresComment(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)

	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: false}, reviewerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceReviewAlreadyDecided(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	sub := seedUnderReview(repo, "sub-1", "stu-1", 10)
	sub.Situation = models.SituationApproved

	hours := 5.0
	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, reviewerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrAlreadyReviewed.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceReviewForbiddenForStudent(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)

	hours := 5.0
	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Approved: true, ApprovedHours: &hours}, studentClaims("stu-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceDeleteUnderReview(t *testing.T) {
	svc, repo, store, _ := newSubmissionService(t)
	sub := seedUnderReview(repo, "sub-1", "stu-1", 10)
	store.objects[sub.FilePath] = []byte("doc")

	err := svc.Delete(context.Background(), "sub-1", studentClaims("stu-1"))
	require.NoError(t, err)
	require.Empty(t, repo.subs)
	require.Contains(t, store.deleted, sub.FilePath)
}

func TestSubmissionServiceDeleteSurfacesStorageError(t *testing.T) {
	svc, repo, store, _ := newSubmissionService(t)
	sub := seedUnderReview(repo, "sub-1", "stu-1", 10)
	store.objects[sub.FilePath] = []byte("doc")
	store.deleteErr = fmt.Errorf("bucket unavailable")

	err := svc.Delete(context.Background(), "sub-1", studentClaims("stu-1"))
	require.Error(t, err)
	require.Len(t, repo.subs, 1)
}

func TestSubmissionServiceDeleteDecidedConflicts(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	sub := seedUnderReview(repo, "sub-1", "stu-1", 10)
	sub.Situation = models.SituationApproved

	err := svc.Delete(context.Background(), "sub-1", studentClaims("stu-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Len(t, repo.subs, 1)
}

func TestSubmissionServiceDeleteOtherStudentForbidden(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)

	err := svc.Delete(context.Background(), "sub-1", studentClaims("stu-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceListScopesStudents(t *testing.T) {
	svc, repo, _, _ := newSubmissionService(t)
	seedUnderReview(repo, "sub-1", "stu-1", 10)
	seedUnderReview(repo, "sub-2", "stu-2", 5)

	items, total, err := svc.List(context.Background(), models.SubmissionFilter{StudentID: "stu-2"}, studentClaims("stu-1"))
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "stu-1", items[0].StudentID)
	require.Equal(t, "stu-1", repo.lastFilter.StudentID)
}

func TestSubmissionServiceDownloadURL(t *testing.T) {
	svc, repo, store, _ := newSubmissionService(t)
	sub := seedUnderReview(repo, "sub-1", "stu-1", 10)
	store.objects[sub.FilePath] = []byte("doc")

	resp, err := svc.GetDownloadURL(context.Background(), "sub-1", studentClaims("stu-1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.DownloadURL, "https://storage.local/"))
	require.Contains(t, resp.DownloadURL, sub.FilePath)
}
