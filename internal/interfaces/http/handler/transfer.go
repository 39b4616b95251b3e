package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	transferapp "github.com/crmportal/backend/internal/application/transfer"
	"github.com/crmportal/backend/internal/domain/transfer"
	"github.com/crmportal/backend/internal/interfaces/http/dto"
	"github.com/crmportal/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadSize caps accepted spreadsheet uploads at 10MB
const maxUploadSize = 10 << 20

// TransferService is the application surface the transfer handler drives
type TransferService interface {
	RunImport(ctx context.Context, ownerID uuid.UUID, format transfer.FileFormat, fileName string, data []byte) (*transfer.Job, error)
	RunExport(ctx context.Context, ownerID uuid.UUID, format transfer.FileFormat, filter transferapp.ContactFilter) (*transfer.Job, error)
	GetStatus(ctx context.Context, ownerID, jobID uuid.UUID) (*transfer.Job, []*transfer.Record, error)
	History(ctx context.Context, ownerID uuid.UUID, limit int) ([]*transfer.Job, error)
	DownloadArtifact(ctx context.Context, ownerID, jobID uuid.UUID) (string, string, []byte, error)
}

// TransferHandler exposes contact import and export over HTTP
type TransferHandler struct {
	BaseHandler
	service TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(service TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// Import accepts a multipart spreadsheet upload and runs the import.
// The format is taken from the optional "format" form field, falling
// back to the file extension.
func (h *TransferHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetOwnerID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge, "file exceeds maximum size of 10MB")
		return
	}

	format := resolveFormat(c.PostForm("format"), header.Filename)
	if !format.IsValid() {
		h.UnprocessableEntity(c, dto.ErrCodeUnsupportedFormat, "file must be a CSV or XLSX spreadsheet")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.InternalError(c, "failed to read uploaded file")
		return
	}

	job, err := h.service.RunImport(ctx, ownerID, format, header.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToJobResponse(job))
}

// Export runs a full contact export in the requested format
func (h *TransferHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetOwnerID(c)

	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := transferapp.ContactFilter{DateFrom: req.DateFrom, DateTo: req.DateTo}
	job, err := h.service.RunExport(ctx, ownerID, transfer.FileFormat(req.Format), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToJobResponse(job))
}

// Status returns a job together with its per-record outcomes
func (h *TransferHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetOwnerID(c)

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	job, records, err := h.service.GetStatus(ctx, ownerID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	detail := dto.JobDetailResponse{
		Job:     dto.ToJobResponse(job),
		Records: make([]dto.RecordResponse, len(records)),
	}
	for i, rec := range records {
		detail.Records[i] = dto.ToRecordResponse(rec)
	}

	h.Success(c, detail)
}

// History lists the owner's most recent jobs
func (h *TransferHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetOwnerID(c)

	var req dto.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	jobs, err := h.service.History(ctx, ownerID, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToJobResponses(jobs))
}

// Download serves the export artifact of a completed job
func (h *TransferHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetOwnerID(c)

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	fileName, contentType, data, err := h.service.DownloadArtifact(ctx, ownerID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// RegisterRoutes registers all transfer routes
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transfers := rg.Group("/transfers")
	{
		transfers.POST("/import", h.Import)
		transfers.POST("/export", h.Export)
		transfers.GET("", h.History)
		transfers.GET("/:id", h.Status)
		transfers.GET("/:id/file", h.Download)
	}
}

// resolveFormat picks the spreadsheet format from the explicit form value
// or the uploaded file's extension
func resolveFormat(explicit, fileName string) transfer.FileFormat {
	if explicit != "" {
		return transfer.FileFormat(strings.ToLower(explicit))
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	return transfer.FileFormat(ext)
}
