// Package vision is the HTTP client of the keyframe vision service that
// detects collisions in footage.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/port"
)

var (
	// ErrVisionService is returned when the service fails or answers badly
	ErrVisionService = errors.New("vision service error")
	// ErrVideoTooLarge is returned for uploads above the configured limit
	ErrVideoTooLarge = errors.New("video exceeds upload limit")
)

// Config holds vision client configuration
type Config struct {
	Endpoint      string
	Timeout       time.Duration
	MaxUploadSize int64
	MaxAttempts   int
}

// Client implements port.VisionService over HTTP
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new vision service client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// AnalyzeVideo uploads the footage and returns the service's result map
func (c *Client) AnalyzeVideo(ctx context.Context, video port.VideoFile) (map[string]interface{}, error) {
	if video.Content == nil {
		return nil, fmt.Errorf("%w: no video content", ErrVisionService)
	}

	body, contentType, err := c.encode(video)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		result, retry, err := c.post(ctx, body, contentType)
		if err == nil {
			c.logger.Info("Video analyzed",
				zap.String("video", video.Name),
				zap.Int("attempt", attempt),
				zap.Any("collision_detected", result["collision_detected"]))
			return result, nil
		}
		lastErr = err

		if !retry || attempt == c.cfg.MaxAttempts {
			break
		}

		backoff := time.Duration(1<<uint(attempt-1)) * time.Second
		c.logger.Info("Retrying video analysis",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	c.logger.Error("Video analysis failed", zap.String("video", video.Name), zap.Error(lastErr))
	return nil, lastErr
}

// encode buffers the video as a multipart form so it can be resent
func (c *Client) encode(video port.VideoFile) ([]byte, string, error) {
	content := video.Content
	if c.cfg.MaxUploadSize > 0 {
		content = io.LimitReader(content, c.cfg.MaxUploadSize+1)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("video", video.Name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	n, err := io.Copy(part, content)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read video: %w", err)
	}
	if c.cfg.MaxUploadSize > 0 && n > c.cfg.MaxUploadSize {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrVideoTooLarge, c.cfg.MaxUploadSize)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	c.logger.Debug("Video encoded for upload", zap.String("video", video.Name), zap.Int64("size_bytes", n))
	return buf.Bytes(), w.FormDataContentType(), nil
}

// post sends one request. retry reports whether a later attempt may succeed.
func (c *Client) post(ctx context.Context, body []byte, contentType string) (map[string]interface{}, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: %v", ErrVisionService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, fmt.Errorf("%w: status %d: %s", ErrVisionService, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("%w: invalid response: %v", ErrVisionService, err)
	}
	if result == nil {
		return nil, false, fmt.Errorf("%w: empty response", ErrVisionService)
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		c.logger.Warn("Vision service reported a problem", zap.String("error", msg))
	}

	return result, false, nil
}
