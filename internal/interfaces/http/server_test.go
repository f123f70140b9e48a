package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/evidence-check/internal/application/port"
	"github.com/garyjia/evidence-check/internal/application/service"
	"github.com/garyjia/evidence-check/internal/domain/audit"
	"github.com/garyjia/evidence-check/internal/infrastructure/external/vision"
	"github.com/garyjia/evidence-check/internal/report"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// stubVision returns a fixed result and records the uploaded bytes
type stubVision struct {
	result   map[string]interface{}
	err      error
	uploaded string
}

func (s *stubVision) AnalyzeVideo(_ context.Context, video port.VideoFile) (map[string]interface{}, error) {
	data, _ := io.ReadAll(video.Content)
	s.uploaded = string(data)
	return s.result, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// recordingArchiver remembers archived request ids
type recordingArchiver struct {
	ids []string
}

func (a *recordingArchiver) Archive(result *service.EvidenceResult) (string, error) {
	a.ids = append(a.ids, result.RequestID)
	return "/tmp/" + result.RequestID + ".xlsx", nil
}

func newTestServer(t *testing.T, v port.VisionService) *Server {
	return newArchivingServer(t, v, nil)
}

func newArchivingServer(t *testing.T, v port.VisionService, archiver ResultArchiver) *Server {
	return newConfiguredServer(t, DefaultServerConfig(), v, archiver)
}

func newConfiguredServer(t *testing.T, cfg ServerConfig, v port.VisionService, archiver ResultArchiver) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine, err := audit.NewEngine(audit.DefaultConfig())
	require.NoError(t, err)

	reader := report.NewReader(nil, nil, nil)
	svc := service.NewAuditService(engine, report.NewParser(nil), reader, v, nil, nil)
	return NewServer(cfg, svc, archiver, nopLogger{})
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, file := range files {
		parts := strings.SplitN(file, "|", 2)
		fw, err := mw.CreateFormFile(name, parts[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(parts[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServer_RootAndHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "/api/v1/analyze")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w, env = do(t, s, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"healthy"`)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestServer_AssignsRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandlers_Audit(t *testing.T) {
	s := newTestServer(t, nil)

	body := `{
		"request_id": "case-7",
		"text_observation": {"TReport": 152, "SeverityReport": "Minor"},
		"video_observation": {"collision_detected": true, "T_actual": 200.0, "severity_actual": "Severe"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w, env := do(t, s, req)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	var data struct {
		RequestID string `json:"request_id"`
		Report    struct {
			Score    int    `json:"score"`
			Status   string `json:"status"`
			Findings []struct {
				Result string `json:"result"`
				Note   string `json:"note"`
			} `json:"findings"`
		} `json:"audit_report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "case-7", data.RequestID)
	assert.Equal(t, 0, data.Report.Score)
	assert.Equal(t, "COMPLETE", data.Report.Status)
	require.Len(t, data.Report.Findings, 2)
	assert.Equal(t, "Time gap (48.0s) exceeds threshold (5s).", data.Report.Findings[0].Note)
}

func TestHandlers_AuditRejects(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing observations", `{"text_observation": {}}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
		{"bad field", `{"text_observation": {"TReport": "noon"}, "video_observation": {}}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w, env := do(t, s, req)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestHandlers_Analyze(t *testing.T) {
	v := &stubVision{result: map[string]interface{}{
		"collision_detected": true,
		"T_actual":           155.0,
		"severity_actual":    "Severe",
	}}
	archiver := &recordingArchiver{}
	s := newArchivingServer(t, v, archiver)

	req := multipartRequest(t, "/api/v1/analyze",
		map[string]string{"text_description": "The collision occurred at 00:02:32. Severe damage."},
		map[string]string{"video": "dashcam.mp4|frames"})

	w, env := do(t, s, req)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, "frames", v.uploaded)

	var data service.EvidenceResult
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 100, data.Report.Score)
	assert.Equal(t, "dashcam.mp4", data.VideoObservation.SequenceID)
	assert.Equal(t, w.Header().Get(RequestIDHeader), data.RequestID)
	assert.Equal(t, []string{data.RequestID}, archiver.ids)
}

func TestHandlers_AnalyzeWithReportDocument(t *testing.T) {
	v := &stubVision{result: map[string]interface{}{"collision_detected": false}}
	s := newTestServer(t, v)

	req := multipartRequest(t, "/api/v1/analyze", nil, map[string]string{
		"video":  "clip.mov|frames",
		"report": "statement.txt|Time: 10:30 PM, minor scratch",
	})

	w, env := do(t, s, req)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	var data service.EvidenceResult
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 81000, data.TextObservation.ReportedTimeSeconds.OrElse(-1))
	assert.Equal(t, "NO COLLISION DETECTED IN VIDEO", data.Report.Status)
}

func TestHandlers_AnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
		vision *stubVision
		status int
	}{
		{
			name:   "missing video",
			fields: map[string]string{"text_description": "at 10:30"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unsupported video format",
			fields: map[string]string{"text_description": "at 10:30"},
			files:  map[string]string{"video": "clip.gif|x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing report",
			files:  map[string]string{"video": "clip.mp4|x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "vision service down",
			fields: map[string]string{"text_description": "at 10:30"},
			files:  map[string]string{"video": "clip.mp4|x"},
			vision: &stubVision{err: vision.ErrVisionService},
			status: http.StatusBadGateway,
		},
		{
			name:   "scan without handwriting engine",
			files:  map[string]string{"video": "clip.mp4|x", "report": "scan.png|\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"},
			vision: &stubVision{result: map[string]interface{}{}},
			status: http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.vision
			if v == nil {
				v = &stubVision{result: map[string]interface{}{}}
			}
			s := newTestServer(t, v)

			w, env := do(t, s, multipartRequest(t, "/api/v1/analyze", tt.fields, tt.files))
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestHandlers_AnalyzeUploadLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxUploadBytes = 1024

	largeVideo := "clip.mp4|" + strings.Repeat("f", 4096)

	t.Run("declared length over limit", func(t *testing.T) {
		v := &stubVision{result: map[string]interface{}{}}
		s := newConfiguredServer(t, cfg, v, nil)

		req := multipartRequest(t, "/api/v1/analyze",
			map[string]string{"text_description": "at 10:30"},
			map[string]string{"video": largeVideo})

		w, env := do(t, s, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, env.Error, vision.ErrVideoTooLarge.Error())
		assert.Empty(t, v.uploaded)
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		v := &stubVision{result: map[string]interface{}{}}
		s := newConfiguredServer(t, cfg, v, nil)

		req := multipartRequest(t, "/api/v1/analyze", nil, map[string]string{"video": largeVideo})
		req.ContentLength = -1

		w, env := do(t, s, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.False(t, env.Success)
	})

	t.Run("small upload passes", func(t *testing.T) {
		v := &stubVision{result: map[string]interface{}{"collision_detected": false}}
		s := newConfiguredServer(t, cfg, v, nil)

		req := multipartRequest(t, "/api/v1/analyze",
			map[string]string{"text_description": "at 10:30"},
			map[string]string{"video": "clip.mp4|frames"})

		w, env := do(t, s, req)
		assert.Equal(t, http.StatusOK, w.Code, env.Error)
	})
}

func TestHandlers_AnalyzeTextOnly(t *testing.T) {
	s := newTestServer(t, nil)

	req := multipartRequest(t, "/api/v1/analyze-text-only",
		map[string]string{"text_description": "Time: l0:30 PM\nfront bumper dent"}, nil)
	w, env := do(t, s, req)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Contains(t, string(env.Data), `"reported_time_seconds":81000`)
	assert.Contains(t, string(env.Data), `"reported_severity":"Moderate"`)

	w, env = do(t, s, multipartRequest(t, "/api/v1/analyze-text-only", nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "text_description is required", env.Error)
}
