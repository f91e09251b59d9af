package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-api/internal/dto"
	"github.com/noah-isme/gac-api/internal/models"
	"github.com/noah-isme/gac-api/internal/service"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
	"github.com/noah-isme/gac-api/pkg/response"
)

type submissionService interface {
	Create(ctx context.Context, meta dto.CreateSubmissionRequest, upload service.SubmissionUpload, actor *models.JWTClaims) (*models.Submission, error)
	Review(ctx context.Context, id string, req dto.ReviewSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	List(ctx context.Context, filter models.SubmissionFilter, actor *models.JWTClaims) ([]models.SubmissionWithNames, int, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Submission, error)
	GetDownloadURL(ctx context.Context, id string, actor *models.JWTClaims) (*dto.SubmissionDownloadResponse, error)
}

// SubmissionHandler manages submission HTTP endpoints.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Create godoc
// @Summary Submit a proof-of-activity document
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param activityId formData string true "Activity ID"
// @Param dimensionId formData string true "Dimension owning the activity"
// @Param proofModeId formData string false "Proof mode ID"
// @Param year formData int true "Year of the activity"
// @Param hours formData number true "Claimed hours"
// @Param observation formData string false "Observation"
// @Param file formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}
	upload := service.SubmissionUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}
	sub, err := h.service.Create(c.Request.Context(), req, upload, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, sub, nil)
}

// List godoc
// @Summary List submissions with filters and pagination
// @Tags Submissions
// @Produce json
// @Param studentId query string false "Student filter"
// @Param activityId query string false "Activity filter"
// @Param dimensionId query string false "Dimension filter"
// @Param year query int false "Year filter"
// @Param situation query string false "Situation filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.SubmissionFilter{
		StudentID:   strings.TrimSpace(c.Query("studentId")),
		ActivityID:  strings.TrimSpace(c.Query("activityId")),
		DimensionID: strings.TrimSpace(c.Query("dimensionId")),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 20),
		SortBy:      strings.TrimSpace(c.Query("sortBy")),
		SortOrder:   strings.TrimSpace(c.Query("sortOrder")),
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid year filter"))
			return
		}
		filter.Year = &year
	}
	if raw := strings.TrimSpace(c.Query("situation")); raw != "" {
		situation := models.Situation(strings.ToUpper(raw))
		if !situation.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid situation filter"))
			return
		}
		filter.Situation = situation
	}

	items, total, err := h.service.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one submission with a presigned download URL
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resp, err := h.service.GetDownloadURL(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Review godoc
// @Summary Approve or reject a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.ReviewSubmissionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/review [patch]
func (h *SubmissionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	sub, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Delete godoc
// @Summary Remove a submission still under review
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 204
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
