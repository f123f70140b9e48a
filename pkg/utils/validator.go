package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// VideoExtensions are the footage formats the vision service accepts
var VideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv"}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// ValidateVideoFilename checks the footage extension
func ValidateVideoFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("video filename is empty")
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range VideoExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("unsupported video format %q, allowed: %s", ext, strings.Join(VideoExtensions, ", "))
}

// SanitizeString removes control characters, keeping tabs and line breaks
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
