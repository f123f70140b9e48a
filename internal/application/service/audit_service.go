package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/evidence-check/internal/application/convert"
	"github.com/garyjia/evidence-check/internal/application/port"
	"github.com/garyjia/evidence-check/internal/domain/audit"
	"github.com/garyjia/evidence-check/internal/domain/entity"
)

// EvidenceRequest is one report plus the footage it describes. The report is
// either text or a document to be read; text wins when both are set.
type EvidenceRequest struct {
	RequestID      string
	Video          port.VideoFile
	ReportText     string
	ReportDocument *port.Document
}

// EvidenceResult is the outcome of analyzing and auditing one request
type EvidenceResult struct {
	RequestID        string                  `json:"request_id" yaml:"request_id"`
	TextObservation  entity.TextObservation  `json:"text_observation" yaml:"text_observation"`
	VideoObservation entity.VideoObservation `json:"video_observation" yaml:"video_observation"`
	Report           entity.AuditReport      `json:"audit_report" yaml:"audit_report"`
}

// AuditService cross-checks incident reports against footage
type AuditService interface {
	// Audit compares two observations that were already extracted
	Audit(ctx context.Context, requestID string, text entity.TextObservation, video entity.VideoObservation) *entity.AuditReport
	// AnalyzeEvidence extracts both observations and audits them
	AnalyzeEvidence(ctx context.Context, req EvidenceRequest) (*EvidenceResult, error)
	// AnalyzeText extracts the report's claims only
	AnalyzeText(ctx context.Context, text string) (*entity.TextObservation, error)
	// AnalyzeDocument reads a report document and extracts its claims
	AnalyzeDocument(ctx context.Context, doc port.Document) (*entity.TextObservation, error)
}

type auditServiceImpl struct {
	engine   *audit.Engine
	parser   port.ReportParser
	ocr      port.OCREngine
	vision   port.VisionService
	notifier port.VerdictNotifier
	logger   Logger
}

// NewAuditService creates a new AuditService. ocr, vision and notifier may
// be nil; the operations needing them then fail or skip the step.
func NewAuditService(
	engine *audit.Engine,
	parser port.ReportParser,
	ocr port.OCREngine,
	vision port.VisionService,
	notifier port.VerdictNotifier,
	logger Logger,
) AuditService {
	if logger == nil {
		logger = nopLogger{}
	}
	return &auditServiceImpl{
		engine:   engine,
		parser:   parser,
		ocr:      ocr,
		vision:   vision,
		notifier: notifier,
		logger:   logger,
	}
}

// Audit runs the engine and publishes the verdict
func (s *auditServiceImpl) Audit(ctx context.Context, requestID string, text entity.TextObservation, video entity.VideoObservation) *entity.AuditReport {
	report := s.engine.Audit(text, video)

	s.logger.Info("Audit completed",
		"request_id", requestID,
		"status", report.Status,
		"score", report.Score,
		"max_score", report.MaxScore,
		"findings", len(report.Findings))

	if s.notifier != nil {
		if err := s.notifier.NotifyVerdict(ctx, requestID, &report); err != nil {
			s.logger.Error("Failed to notify verdict", "error", err, "request_id", requestID)
		}
	}

	return &report
}

// AnalyzeEvidence reads the report, sends the footage to the vision service and audits both
func (s *auditServiceImpl) AnalyzeEvidence(ctx context.Context, req EvidenceRequest) (*EvidenceResult, error) {
	if req.Video.Content == nil {
		return nil, ErrMissingVideo
	}
	if strings.TrimSpace(req.ReportText) == "" && req.ReportDocument == nil {
		return nil, ErrMissingReport
	}
	if s.vision == nil {
		return nil, fmt.Errorf("analyze video: no vision service configured")
	}

	var text *entity.TextObservation
	var err error
	if strings.TrimSpace(req.ReportText) != "" {
		text, err = s.AnalyzeText(ctx, req.ReportText)
	} else {
		text, err = s.AnalyzeDocument(ctx, *req.ReportDocument)
	}
	if err != nil {
		return nil, err
	}

	raw, err := s.vision.AnalyzeVideo(ctx, req.Video)
	if err != nil {
		s.logger.Error("Failed to analyze video", "error", err, "request_id", req.RequestID, "video", req.Video.Name)
		return nil, fmt.Errorf("analyze video: %w", err)
	}

	video, err := convert.VideoObservation(raw)
	if err != nil {
		s.logger.Error("Invalid vision result", "error", err, "request_id", req.RequestID)
		return nil, fmt.Errorf("convert vision result: %w", err)
	}
	if video.SequenceID == "" {
		video.SequenceID = req.Video.Name
	}

	report := s.Audit(ctx, req.RequestID, *text, video)

	return &EvidenceResult{
		RequestID:        req.RequestID,
		TextObservation:  *text,
		VideoObservation: video,
		Report:           *report,
	}, nil
}

// AnalyzeText runs the report parser on raw text
func (s *auditServiceImpl) AnalyzeText(ctx context.Context, text string) (*entity.TextObservation, error) {
	obs, err := s.parser.Process(text)
	if err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	s.logger.Info("Report parsed",
		"reported_time_present", obs.ReportedTimeSeconds.IsPresent(),
		"reported_severity", string(obs.ReportedSeverity))
	return obs, nil
}

// AnalyzeDocument reads the document text and parses it
func (s *auditServiceImpl) AnalyzeDocument(ctx context.Context, doc port.Document) (*entity.TextObservation, error) {
	if s.ocr == nil {
		return nil, ErrNoDocumentReader
	}

	text, err := s.ocr.ExtractText(ctx, doc)
	if err != nil {
		s.logger.Error("Failed to read report document", "error", err, "document", doc.Name)
		return nil, fmt.Errorf("read report document: %w", err)
	}

	return s.AnalyzeText(ctx, text)
}
