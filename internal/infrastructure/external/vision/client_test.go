package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/port"
)

func TestClient_AnalyzeVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("video")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "clip.mp4", header.Filename)
		assert.Equal(t, "frames", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"collision_detected": true, "T_actual": 155.0, "severity_actual": "Severe", "collision_frame": 4650}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	result, err := client.AnalyzeVideo(context.Background(), port.VideoFile{Name: "clip.mp4", Content: strings.NewReader("frames")})
	require.NoError(t, err)

	assert.Equal(t, true, result["collision_detected"])
	assert.Equal(t, 155.0, result["T_actual"])
	assert.Equal(t, "Severe", result["severity_actual"])
}

func TestClient_AcceptsAny2xx(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusAccepted} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"collision_detected": true}`))
		}))

		client := NewClient(Config{Endpoint: srv.URL, Timeout: 5 * time.Second}, nil)
		result, err := client.AnalyzeVideo(context.Background(), port.VideoFile{Name: "clip.mp4", Content: strings.NewReader("frames")})
		srv.Close()

		require.NoError(t, err, "status %d", status)
		assert.Equal(t, true, result["collision_detected"])
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"collision_detected": false}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Timeout: 5 * time.Second, MaxAttempts: 2}, nil)
	result, err := client.AnalyzeVideo(context.Background(), port.VideoFile{Name: "clip.mp4", Content: strings.NewReader("frames")})
	require.NoError(t, err)
	assert.Equal(t, false, result["collision_detected"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"bad request", http.StatusBadRequest, `{"detail": "Unsupported video format"}`, ErrVisionService},
		{"not json", http.StatusOK, `<html>`, ErrVisionService},
		{"null body", http.StatusOK, `null`, ErrVisionService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{Endpoint: srv.URL, Timeout: time.Second, MaxAttempts: 3}, nil)
			_, err := client.AnalyzeVideo(context.Background(), port.VideoFile{Name: "clip.mp4", Content: strings.NewReader("x")})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are not retried")
		})
	}
}

func TestClient_UploadLimit(t *testing.T) {
	client := NewClient(Config{Endpoint: "http://127.0.0.1:0", MaxUploadSize: 4}, nil)

	_, err := client.AnalyzeVideo(context.Background(), port.VideoFile{Name: "clip.mp4", Content: strings.NewReader("too long")})
	assert.ErrorIs(t, err, ErrVideoTooLarge)

	_, err = client.AnalyzeVideo(context.Background(), port.VideoFile{Name: "clip.mp4"})
	assert.ErrorIs(t, err, ErrVisionService)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond}, nil)
	_, err := client.AnalyzeVideo(context.Background(), port.VideoFile{Name: "clip.mp4", Content: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrVisionService)
}
