package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-api/internal/models"
	"github.com/noah-isme/gac-api/internal/service"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
	"github.com/noah-isme/gac-api/pkg/response"
)

type creditLedger interface {
	Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.HourSummary, error)
}

type creditExporter interface {
	HourStatement(ctx context.Context, studentID, format string, actor *models.JWTClaims) (*service.ExportResult, error)
}

// CreditHandler serves the hour ledger and statement exports.
type CreditHandler struct {
	ledger   creditLedger
	exporter creditExporter
}

// NewCreditHandler constructs the handler.
func NewCreditHandler(ledger creditLedger, exporter creditExporter) *CreditHandler {
	return &CreditHandler{ledger: ledger, exporter: exporter}
}

// Summary godoc
// @Summary Credited hours per dimension and running total for a student
// @Tags Credits
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/hours [get]
func (h *CreditHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.ledger.Summary(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// MySummary godoc
// @Summary Credited hours for the authenticated student
// @Tags Credits
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/hours [get]
func (h *CreditHandler) MySummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.ledger.Summary(c.Request.Context(), claims.UserID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Statement godoc
// @Summary Export a student's hour statement as CSV or PDF
// @Tags Credits
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /students/{id}/statement [get]
func (h *CreditHandler) Statement(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.exporter.HourStatement(c.Request.Context(), c.Param("id"), c.Query("format"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
