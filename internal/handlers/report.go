package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutritrack-backend/internal/ingest"
	"github.com/yungbote/nutritrack-backend/internal/services"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Submit takes a multipart form with a "file" part (the report photo) and
// an optional "notes" field, runs the ingestion pipeline, and returns the
// run result. Failures surface with the pipeline's message and code.
func (rh *ReportHandler) Submit(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, ingest.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}

	upload := ingest.Upload{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Data:     data,
	}
	rawNotes := c.PostForm("notes")

	result, err := rh.reportService.SubmitReport(c.Request.Context(), upload, rawNotes)
	if err != nil {
		var se *ingest.StageError
		if errors.As(err, &se) {
			RespondError(c, statusForCode(se.Code), string(se.Code), errors.New(se.Message))
			return
		}
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	RespondOK(c, result)
}

func (rh *ReportHandler) List(c *gin.Context) {
	feed, err := rh.reportService.ListReports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	RespondOK(c, feed)
}

func statusForCode(code ingest.Code) int {
	switch code {
	case ingest.CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ingest.CodeUnsupportedType:
		return http.StatusUnsupportedMediaType
	case ingest.CodeAuthError:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
