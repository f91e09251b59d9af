package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-api/internal/dto"
	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
	"github.com/noah-isme/gac-api/pkg/response"
)

type catalogService interface {
	ListDimensions(ctx context.Context) ([]models.Dimension, error)
	ListDimensionsWithActivities(ctx context.Context) ([]dto.DimensionWithActivities, error)
	ListActivities(ctx context.Context, dimensionID string) ([]models.Activity, error)
	ListProofModes(ctx context.Context) ([]models.ProofMode, error)
	CreateDimension(ctx context.Context, req dto.CreateDimensionRequest, actor *models.JWTClaims) (*models.Dimension, error)
	CreateActivity(ctx context.Context, req dto.CreateActivityRequest, actor *models.JWTClaims) (*models.Activity, error)
}

// CatalogHandler serves the dimension, activity and proof mode catalog.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListDimensions godoc
// @Summary List dimensions, optionally with nested activities
// @Tags Catalog
// @Produce json
// @Param expand query string false "Set to activities to nest activities"
// @Success 200 {object} response.Envelope
// @Router /dimensions [get]
func (h *CatalogHandler) ListDimensions(c *gin.Context) {
	if strings.EqualFold(c.Query("expand"), "activities") {
		result, err := h.service.ListDimensionsWithActivities(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	dims, err := h.service.ListDimensions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dims, nil)
}

// ListActivities godoc
// @Summary List activities
// @Tags Catalog
// @Produce json
// @Param dimensionId query string false "Dimension filter"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *CatalogHandler) ListActivities(c *gin.Context) {
	acts, err := h.service.ListActivities(c.Request.Context(), strings.TrimSpace(c.Query("dimensionId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, acts, nil)
}

// ListProofModes godoc
// @Summary List proof modes
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proof-modes [get]
func (h *CatalogHandler) ListProofModes(c *gin.Context) {
	modes, err := h.service.ListProofModes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modes, nil)
}

// CreateDimension godoc
// @Summary Register a dimension
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateDimensionRequest true "Dimension"
// @Success 201 {object} response.Envelope
// @Router /dimensions [post]
func (h *CatalogHandler) CreateDimension(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateDimensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dimension payload"))
		return
	}
	dim, err := h.service.CreateDimension(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dim, nil)
}

// CreateActivity godoc
// @Summary Register an activity under a dimension
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateActivityRequest true "Activity"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *CatalogHandler) CreateActivity(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid activity payload"))
		return
	}
	act, err := h.service.CreateActivity(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, act, nil)
}
