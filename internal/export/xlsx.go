package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/service"
	"github.com/garyjia/evidence-check/internal/domain/entity"
)

const (
	auditSheet        = "Audit"
	observationsSheet = "Observations"
	findingsHeaderRow = 8
)

var findingColumns = []string{"Claim Type", "Claim Value", "Observed Value", "Result", "Note"}

// resultFills colors the result cell
var resultFills = map[entity.Result]string{
	entity.ResultMatch:        "C6EFCE",
	entity.ResultMismatch:     "FFC7CE",
	entity.ResultInconsistent: "FFC7CE",
	entity.ResultFail:         "FFC7CE",
	entity.ResultMissingData:  "FFEB9C",
}

// WorkbookWriter writes audit results to Excel workbooks
type WorkbookWriter struct {
	logger *zap.Logger
}

// NewWorkbookWriter creates a new workbook writer
func NewWorkbookWriter(logger *zap.Logger) *WorkbookWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkbookWriter{logger: logger}
}

// SaveAs writes the result to an .xlsx file, creating parent directories
func (ww *WorkbookWriter) SaveAs(result *service.EvidenceResult, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := ww.build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	ww.logger.Info("Audit workbook written",
		zap.String("request_id", result.RequestID),
		zap.String("output_path", outputPath))
	return nil
}

func (ww *WorkbookWriter) build(result *service.EvidenceResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(observationsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	report := result.Report

	ww.setCell(f, auditSheet, "A1", "Evidence Audit")
	ww.setStyle(f, auditSheet, "A1", "A1", bold)

	summary := [][2]interface{}{
		{"Request ID", result.RequestID},
		{"Status", report.Status},
		{"Score", report.Score},
		{"Max Score", report.MaxScore},
	}
	for i, row := range summary {
		r := i + 3
		ww.setCell(f, auditSheet, fmt.Sprintf("A%d", r), row[0])
		ww.setCell(f, auditSheet, fmt.Sprintf("B%d", r), row[1])
	}
	ww.setStyle(f, auditSheet, "A3", "A6", bold)

	for i, col := range findingColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, findingsHeaderRow)
		ww.setCell(f, auditSheet, cell, col)
	}
	ww.setStyle(f, auditSheet, "A8", "E8", header)

	for i, finding := range report.Findings {
		r := findingsHeaderRow + 1 + i
		values := []string{finding.ClaimType, finding.ClaimValue, finding.ObservedValue, string(finding.Result), finding.Note}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			ww.setCell(f, auditSheet, cell, v)
		}

		if color, ok := resultFills[finding.Result]; ok {
			style, err := f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			})
			if err == nil {
				cell := fmt.Sprintf("D%d", r)
				ww.setStyle(f, auditSheet, cell, cell, style)
			}
		}
	}

	_ = f.SetColWidth(auditSheet, "A", "D", 20)
	_ = f.SetColWidth(auditSheet, "E", "E", 60)

	ww.writeObservations(f, result, header)

	return f, nil
}

func (ww *WorkbookWriter) writeObservations(f *excelize.File, result *service.EvidenceResult, header int) {
	text, video := result.TextObservation, result.VideoObservation

	rows := [][2]interface{}{
		{"Field", "Value"},
		{"reported_time_seconds", optionalCell(text.ReportedTimeSeconds)},
		{"reported_severity", string(text.ReportedSeverity)},
		{"raw_text_snippet", text.RawTextSnippet},
		{"collision_detected", video.CollisionDetected},
		{"actual_time_seconds", optionalCell(video.ActualTimeSeconds)},
		{"actual_severity", string(video.ActualSeverity)},
		{"collision_confidence", optionalCell(video.CollisionConfidence)},
		{"severity_confidence", optionalCell(video.SeverityConfidence)},
		{"collision_frame", optionalCell(video.CollisionFrame)},
		{"sequence_id", video.SequenceID},
	}
	for i, row := range rows {
		ww.setCell(f, observationsSheet, fmt.Sprintf("A%d", i+1), row[0])
		ww.setCell(f, observationsSheet, fmt.Sprintf("B%d", i+1), row[1])
	}
	ww.setStyle(f, observationsSheet, "A1", "B1", header)
	_ = f.SetColWidth(observationsSheet, "A", "A", 24)
	_ = f.SetColWidth(observationsSheet, "B", "B", 60)
}

// optionalCell leaves absent values blank
func optionalCell[T any](o entity.Optional[T]) interface{} {
	if v, ok := o.Get(); ok {
		return v
	}
	return ""
}

// setCell sets a cell value in the Excel file
func (ww *WorkbookWriter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		ww.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func (ww *WorkbookWriter) setStyle(f *excelize.File, sheet, from, to string, style int) {
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		ww.logger.Warn("Failed to set cell style",
			zap.String("sheet", sheet),
			zap.String("cell", from),
			zap.Error(err))
	}
}
