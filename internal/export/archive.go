package export

import (
	"fmt"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/service"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Archiver keeps one workbook per analyzed request in a directory
type Archiver struct {
	dir    string
	writer *WorkbookWriter
	logger *zap.Logger
}

// NewArchiver creates an archiver writing into dir
func NewArchiver(dir string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{dir: dir, writer: NewWorkbookWriter(logger), logger: logger}
}

// Archive writes <dir>/<request id>.xlsx and returns its path
func (a *Archiver) Archive(result *service.EvidenceResult) (string, error) {
	name := unsafeNameChars.ReplaceAllString(result.RequestID, "_")
	if name == "" {
		return "", fmt.Errorf("request id is required to archive a result")
	}

	path := filepath.Join(a.dir, name+".xlsx")
	if err := a.writer.SaveAs(result, path); err != nil {
		return "", err
	}
	return path, nil
}
