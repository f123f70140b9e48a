package service

import "errors"

var (
	// ErrMissingVideo is returned when a request carries no footage
	ErrMissingVideo = errors.New("video is required")
	// ErrMissingReport is returned when a request carries neither report text nor a report document
	ErrMissingReport = errors.New("report text or document is required")
	// ErrNoDocumentReader is returned for report documents when no OCR engine is configured
	ErrNoDocumentReader = errors.New("no document reader configured")
)
