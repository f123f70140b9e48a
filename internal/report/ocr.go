package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/port"
)

var (
	// ErrUnsupportedDocument is returned for documents no engine can read
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrNoHandwritingEngine is returned for scans when no handwriting engine is configured
	ErrNoHandwritingEngine = errors.New("no handwriting engine configured")
)

// DefaultMaxPages bounds how much of a PDF is read
const DefaultMaxPages = 5

// PlainTextEngine reads documents that already are text
type PlainTextEngine struct{}

// Name returns the engine name
func (PlainTextEngine) Name() string { return "plain" }

// ExtractText returns the document content as text
func (PlainTextEngine) ExtractText(_ context.Context, doc port.Document) (string, error) {
	return string(bytes.TrimPrefix(doc.Content, []byte("\xef\xbb\xbf"))), nil
}

// PDFTextEngine reads the text layer of printed PDF reports with MuPDF.
// Pages without a text layer are rendered and handed to the scan engine.
type PDFTextEngine struct {
	maxPages int
	scans    port.OCREngine
	logger   *zap.Logger
}

// NewPDFTextEngine creates a PDF engine. scans may be nil, in which case
// image-only pages are skipped.
func NewPDFTextEngine(maxPages int, scans port.OCREngine, logger *zap.Logger) *PDFTextEngine {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFTextEngine{maxPages: maxPages, scans: scans, logger: logger}
}

// Name returns the engine name
func (e *PDFTextEngine) Name() string { return "pdf" }

// ExtractText returns the text of the first pages joined by newlines
func (e *PDFTextEngine) ExtractText(ctx context.Context, doc port.Document) (string, error) {
	pdf, err := fitz.NewFromMemory(doc.Content)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer pdf.Close()

	pageCount := pdf.NumPage()
	if pageCount > e.maxPages {
		pageCount = e.maxPages
	}
	e.logger.Debug("Reading PDF report", zap.String("name", doc.Name), zap.Int("pages", pageCount))

	var pages []string
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := pdf.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page text", zap.Int("page", pageNum), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			text, err = e.readScannedPage(ctx, pdf, doc.Name, pageNum)
			if err != nil {
				e.logger.Warn("Failed to read scanned page", zap.Int("page", pageNum), zap.Error(err))
				continue
			}
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// readScannedPage renders a page without a text layer and transcribes it
func (e *PDFTextEngine) readScannedPage(ctx context.Context, pdf *fitz.Document, name string, pageNum int) (string, error) {
	if e.scans == nil {
		return "", nil
	}

	img, err := pdf.Image(pageNum)
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode page: %w", err)
	}

	return e.scans.ExtractText(ctx, port.Document{
		Name:     fmt.Sprintf("%s#page%d", name, pageNum+1),
		MimeType: "image/jpeg",
		Content:  buf.Bytes(),
	})
}

// Reader picks an OCR engine by the document's media type
type Reader struct {
	plain       port.OCREngine
	pdf         port.OCREngine
	handwriting port.OCREngine
	logger      *zap.Logger
}

// NewReader creates a document reader. handwriting may be nil.
func NewReader(pdf, handwriting port.OCREngine, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		plain:       PlainTextEngine{},
		pdf:         pdf,
		handwriting: handwriting,
		logger:      logger,
	}
}

// Name returns the engine name
func (r *Reader) Name() string { return "auto" }

// ExtractText routes doc to the matching engine
func (r *Reader) ExtractText(ctx context.Context, doc port.Document) (string, error) {
	if doc.MimeType == "" {
		doc.MimeType = mimetype.Detect(doc.Content).String()
	}

	engine, err := r.engineFor(doc.MimeType)
	if err != nil {
		return "", err
	}

	r.logger.Info("Extracting report text",
		zap.String("name", doc.Name),
		zap.String("mime_type", doc.MimeType),
		zap.String("engine", engine.Name()))

	text, err := engine.ExtractText(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%s engine: %w", engine.Name(), err)
	}
	return text, nil
}

func (r *Reader) engineFor(mimeType string) (port.OCREngine, error) {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))

	switch {
	case strings.HasPrefix(base, "text/"):
		return r.plain, nil
	case base == "application/pdf" && r.pdf != nil:
		return r.pdf, nil
	case strings.HasPrefix(base, "image/"):
		if r.handwriting == nil {
			return nil, ErrNoHandwritingEngine
		}
		return r.handwriting, nil
	}

	// Text-based formats such as JSON or CSV detect as their own types
	if mt := mimetype.Lookup(base); mt != nil {
		for p := mt.Parent(); p != nil; p = p.Parent() {
			if p.Is("text/plain") {
				return r.plain, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, mimeType)
}
