package port

import (
	"context"
	"io"

	"github.com/garyjia/evidence-check/internal/domain/entity"
)

// Document is an incident report as uploaded: plain text, a PDF or a scan
type Document struct {
	Name     string
	MimeType string // detected from Content when empty
	Content  []byte
}

// OCREngine turns a report document into raw text.
// Variants exist for printed and handwritten input.
type OCREngine interface {
	Name() string
	ExtractText(ctx context.Context, doc Document) (string, error)
}

// ReportParser extracts the reported time and severity from report text
type ReportParser interface {
	Process(text string) (*entity.TextObservation, error)
}

// VideoFile is footage to be analyzed by the vision service
type VideoFile struct {
	Name    string
	Content io.Reader
}

// VisionService detects the collision, its time and its severity in footage.
// The result is the service's raw field map; see convert.VideoObservation.
type VisionService interface {
	AnalyzeVideo(ctx context.Context, video VideoFile) (map[string]interface{}, error)
}

// VerdictNotifier publishes a finished audit to people who need to see it
type VerdictNotifier interface {
	NotifyVerdict(ctx context.Context, requestID string, report *entity.AuditReport) error
}
