package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

// maxImportSize caps uploaded CSV files.
const maxImportSize = 10 << 20

// ImportHandler accepts CSV uploads and serves CSV downloads.
type ImportHandler struct {
	importService *services.ImportService
	log           *zap.Logger
}

func NewImportHandler(importService *services.ImportService, log *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		log:           log,
	}
}

func (h *ImportHandler) ImportAthletes(c *gin.Context) {
	h.runImport(c, h.importService.ImportAthletes)
}

func (h *ImportHandler) ImportMeasurements(c *gin.Context) {
	h.runImport(c, h.importService.ImportMeasurements)
}

type importFunc func(scope access.Scope, input services.ImportInput) (*services.ImportResult, error)

// runImport reads the CSV from a multipart "file" field or the raw body.
// Rows that fail are reported without rejecting the whole file.
func (h *ImportHandler) runImport(c *gin.Context, run importFunc) {
	orgID, err := queryID(c, "organization_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		if dryRun, err = strconv.ParseBool(raw); err != nil {
			apierrors.BadRequest(c, "dry_run must be true or false")
			return
		}
	}

	body, err := uploadedCSV(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	defer body.Close()

	result, err := run(middleware.GetScope(c), services.ImportInput{
		Reader:         io.LimitReader(body, maxImportSize),
		OrganizationID: orgID,
		DryRun:         dryRun,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToImportResultDTO(*result))
}

func uploadedCSV(c *gin.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("file field is required")
		}
		if header.Size > maxImportSize {
			return nil, fmt.Errorf("file exceeds %d bytes", maxImportSize)
		}
		return header.Open()
	}
	if c.Request.Body == nil {
		return nil, fmt.Errorf("request body is empty")
	}
	return c.Request.Body, nil
}

// ExportMeasurements downloads measurements in the import layout, filtered
// like the measurement list.
func (h *ImportHandler) ExportMeasurements(c *gin.Context) {
	q, ok := bindFilterQuery(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.importService.ExportMeasurements(middleware.GetScope(c), q.listInput(), &buf); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	sendCSV(c, "measurements", buf.Bytes())
}

// ExportAthletes downloads the roster in the import layout.
func (h *ImportHandler) ExportAthletes(c *gin.Context) {
	orgID, err := queryID(c, "organization_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.importService.ExportAthletes(middleware.GetScope(c), orgID, &buf); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	sendCSV(c, "athletes", buf.Bytes())
}

func sendCSV(c *gin.Context, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
