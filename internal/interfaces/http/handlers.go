package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/evidence-check/internal/application/convert"
	"github.com/garyjia/evidence-check/internal/application/port"
	"github.com/garyjia/evidence-check/internal/application/service"
	"github.com/garyjia/evidence-check/internal/infrastructure/external/vision"
	"github.com/garyjia/evidence-check/internal/report"
	"github.com/garyjia/evidence-check/pkg/utils"
)

// Version is reported by the root and health endpoints
const Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	auditService   service.AuditService
	archiver       ResultArchiver
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(auditService service.AuditService, archiver ResultArchiver, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		auditService:   auditService,
		archiver:       archiver,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// RootResponse describes the API
type RootResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// AuditRequest carries two already extracted observations in the loose
// shapes the text and vision services emit
type AuditRequest struct {
	RequestID        string                 `json:"request_id"`
	TextObservation  map[string]interface{} `json:"text_observation" binding:"required"`
	VideoObservation map[string]interface{} `json:"video_observation" binding:"required"`
}

// AuditResponse is the result of POST /api/v1/audit
type AuditResponse struct {
	RequestID string      `json:"request_id"`
	Report    interface{} `json:"audit_report"`
}

// TextOnlyResponse is the result of POST /api/v1/analyze-text-only
type TextOnlyResponse struct {
	RequestID       string      `json:"request_id"`
	TextObservation interface{} `json:"text_observation"`
}

// Root handles GET /
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: RootResponse{
			Message: "Incident report and video consistency audit",
			Version: Version,
			Endpoints: []string{
				"GET /health",
				"POST /api/v1/audit",
				"POST /api/v1/analyze",
				"POST /api/v1/analyze-text-only",
			},
		},
	})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// Audit handles POST /api/v1/audit
func (h *Handlers) Audit(c *gin.Context) {
	var req AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid audit request", "error", err)
		h.fail(c, http.StatusBadRequest, "text_observation and video_observation are required")
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = c.GetString("request_id")
	}

	text, err := convert.TextObservation(req.TextObservation)
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, fmt.Sprintf("text_observation: %v", err))
		return
	}
	video, err := convert.VideoObservation(req.VideoObservation)
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, fmt.Sprintf("video_observation: %v", err))
		return
	}

	result := h.auditService.Audit(c.Request.Context(), requestID, text, video)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    AuditResponse{RequestID: requestID, Report: result},
	})
}

// Analyze handles POST /api/v1/analyze with a multipart video plus either
// a text_description field or a report document
func (h *Handlers) Analyze(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		if c.Request.ContentLength > h.maxUploadBytes {
			h.failTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	videoHeader, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.failTooLarge(c)
			return
		}
		h.fail(c, http.StatusBadRequest, "video file is required")
		return
	}
	if err := utils.ValidateVideoFilename(videoHeader.Filename); err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	videoFile, err := videoHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded video", "error", err)
		h.fail(c, http.StatusBadRequest, "failed to read video upload")
		return
	}
	defer videoFile.Close()

	req := service.EvidenceRequest{
		RequestID:  c.GetString("request_id"),
		Video:      port.VideoFile{Name: videoHeader.Filename, Content: videoFile},
		ReportText: utils.SanitizeString(c.PostForm("text_description")),
	}

	if strings.TrimSpace(req.ReportText) == "" {
		doc, err := readDocument(c, "report")
		if err != nil {
			h.fail(c, http.StatusBadRequest, "text_description or report document is required")
			return
		}
		req.ReportDocument = doc
	}

	result, err := h.auditService.AnalyzeEvidence(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Evidence analysis failed", "error", err, "request_id", req.RequestID)
		h.fail(c, statusFor(err), err.Error())
		return
	}

	if h.archiver != nil {
		if path, err := h.archiver.Archive(result); err != nil {
			h.logger.Error("Failed to archive result", "error", err, "request_id", req.RequestID)
		} else {
			h.logger.Info("Result archived", "request_id", req.RequestID, "path", path)
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// AnalyzeTextOnly handles POST /api/v1/analyze-text-only
func (h *Handlers) AnalyzeTextOnly(c *gin.Context) {
	text := utils.SanitizeString(c.PostForm("text_description"))
	if strings.TrimSpace(text) == "" {
		h.fail(c, http.StatusBadRequest, "text_description is required")
		return
	}

	obs, err := h.auditService.AnalyzeText(c.Request.Context(), text)
	if err != nil {
		h.fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    TextOnlyResponse{RequestID: c.GetString("request_id"), TextObservation: obs},
	})
}

func (h *Handlers) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{
		Success: false,
		Error:   msg,
	})
}

func (h *Handlers) failTooLarge(c *gin.Context) {
	h.fail(c, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("%v: limit is %d bytes", vision.ErrVideoTooLarge, h.maxUploadBytes))
}

func readDocument(c *gin.Context, field string) (*port.Document, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return openDocument(header)
}

func openDocument(header *multipart.FileHeader) (*port.Document, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	return &port.Document{Name: header.Filename, MimeType: mimeType, Content: content}, nil
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingVideo),
		errors.Is(err, service.ErrMissingReport),
		errors.Is(err, report.ErrNoText):
		return http.StatusBadRequest
	case errors.Is(err, report.ErrUnsupportedDocument),
		errors.Is(err, report.ErrNoHandwritingEngine):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, vision.ErrVideoTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNoDocumentReader):
		return http.StatusNotImplemented
	case errors.Is(err, vision.ErrVisionService),
		errors.Is(err, convert.ErrInvalidField):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
