package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"filing-service/internal/apperrors"
	"filing-service/internal/models"
)

// FilingService runs previews and exports
type FilingService interface {
	Preview(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (*models.FilingPreview, error)
	Export(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (*models.FilingExport, error)
}

// OfficeResolver resolves local tax office codes
type OfficeResolver interface {
	Resolve(ctx context.Context, localCode string) (models.OfficeAssignment, error)
}

// Response headers set on exports
const (
	HeaderDatasetFingerprint = "X-Dataset-Fingerprint"
	HeaderPreviewMatch       = "X-Preview-Match"
)

// FilingHandler handles filing HTTP requests
type FilingHandler struct {
	service FilingService
	offices OfficeResolver
}

// NewFilingHandler creates a new filing handler
func NewFilingHandler(service FilingService, offices OfficeResolver) *FilingHandler {
	return &FilingHandler{
		service: service,
		offices: offices,
	}
}

// Preview handles POST /api/v1/filings/preview
func (h *FilingHandler) Preview(c *gin.Context) {
	ownerID, req, ok := h.bind(c)
	if !ok {
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, "Failed to preview filing", err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// Export handles POST /api/v1/filings/export. The XML document is returned as an
// attachment; ?format=json returns it wrapped in a JSON body instead.
func (h *FilingHandler) Export(c *gin.Context) {
	ownerID, req, ok := h.bind(c)
	if !ok {
		return
	}

	export, err := h.service.Export(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, "Failed to export filing", err)
		return
	}

	c.Header(HeaderDatasetFingerprint, export.DatasetFingerprint)
	c.Header(HeaderPreviewMatch, string(export.PreviewMatched))

	if strings.EqualFold(c.Query("format"), "json") {
		c.JSON(http.StatusOK, export)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(export.Document))
}

// ResolveOffice handles GET /api/v1/offices/:code
func (h *FilingHandler) ResolveOffice(c *gin.Context) {
	office, err := h.offices.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, "Failed to resolve tax office", err)
		return
	}
	c.JSON(http.StatusOK, office)
}

func (h *FilingHandler) bind(c *gin.Context) (uuid.UUID, models.FilingRequest, bool) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid owner",
			"message": err.Error(),
		})
		return uuid.Nil, models.FilingRequest{}, false
	}

	var input models.FilingRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return uuid.Nil, models.FilingRequest{}, false
	}

	reportType, ok := models.ParseReportType(input.ReportType)
	if !ok {
		respondError(c, "Invalid request", apperrors.New("bind", apperrors.ErrInvalidReportType, input.ReportType))
		return uuid.Nil, models.FilingRequest{}, false
	}
	periodType, ok := models.ParsePeriodType(input.PeriodType)
	if !ok {
		respondError(c, "Invalid request", apperrors.New("bind", apperrors.ErrInvalidPeriod, fmt.Sprintf("unknown period type %q", input.PeriodType)))
		return uuid.Nil, models.FilingRequest{}, false
	}

	return ownerID, models.FilingRequest{
		ReportType: reportType,
		PeriodType: periodType,
		Year:       input.Year,
		Value:      input.Value,
	}, true
}

// statusFor maps an error kind to an HTTP status
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindPrecondition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, message string, err error) {
	kind := apperrors.KindOf(err)
	body := gin.H{
		"error":   message,
		"kind":    kind,
		"message": err.Error(),
	}
	if record := apperrors.RecordOf(err); record != "" {
		body["record"] = record
	}
	if kind == apperrors.KindInternal || kind == apperrors.KindIntegrity {
		// internal details stay in the logs
		body["message"] = "internal error"
	}
	c.JSON(statusFor(kind), body)
}

// getOwnerID reads the taxpayer owner from the X-User-ID header
func getOwnerID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("X-User-ID header is required")
	}
	return uuid.Parse(raw)
}
