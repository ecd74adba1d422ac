package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func loggedRouter(status int) http.Handler {
	r := chi.NewRouter()
	r.Use(slogMiddleware)
	handler := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
	r.Get("/test", handler)
	r.Get("/api/health", handler)
	r.Post("/api/sessions/{id}/events", handler)
	r.Post("/api/sessions/{id}/play", handler)
	return r
}

func TestSlogMiddleware_LogsRequest(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	loggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	for _, field := range []string{"method=GET", "path=/test", "status=200", "remote_addr=", "duration_ms="} {
		if !strings.Contains(output, field) {
			t.Errorf("expected log to contain %q, got: %s", field, output)
		}
	}
}

func TestSlogMiddleware_SkipsHealthCheck(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	loggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	if buf.String() != "" {
		t.Errorf("expected no log output for /api/health, got: %s", buf.String())
	}
}

func TestSlogMiddleware_IncludesSessionID(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/abc-123/play", nil)
	loggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "session_id=abc-123") {
		t.Errorf("expected session_id in log, got: %s", buf.String())
	}
}

func TestSlogMiddleware_EventsLoggedAtDebug(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/abc/events", nil)
	loggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	if buf.String() != "" {
		t.Errorf("expected event traffic below info level, got: %s", buf.String())
	}
}

func TestSlogMiddleware_ErrorStatusLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			buf := captureLogs(t, slog.LevelInfo)

			req := httptest.NewRequest(http.MethodPost, "/api/sessions/abc/events", nil)
			loggedRouter(tt.status).ServeHTTP(httptest.NewRecorder(), req)

			output := buf.String()
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected %s, got: %s", tt.level, output)
			}
			if !bytes.Contains([]byte(output), []byte("status=")) {
				t.Errorf("expected status field, got: %s", output)
			}
		})
	}
}
