package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/54b3r/docrag/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		inbound  string
		wantID   string
		wantLogs bool
	}{
		{name: "generated id", path: "/api/ask", wantLogs: true},
		{name: "inbound id reused", path: "/api/ask", inbound: "abc-123", wantID: "abc-123", wantLogs: true},
		{name: "inbound id with spaces replaced", path: "/api/ask", inbound: "bad id", wantLogs: true},
		{name: "inbound id too long replaced", path: "/api/ask", inbound: strings.Repeat("x", 65), wantLogs: true},
		{name: "health logged at debug", path: "/api/health", wantLogs: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			var ctxID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if logging.FromContext(r.Context()) == log {
					t.Error("handler should get a request-scoped child logger")
				}
				ctxID = w.Header().Get(requestIDHeader)
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte("short and stout"))
			})

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.inbound != "" {
				req.Header.Set(requestIDHeader, tc.inbound)
			}
			w := httptest.NewRecorder()
			requestLogger(log, next).ServeHTTP(w, req)

			id := w.Header().Get(requestIDHeader)
			if id == "" || id != ctxID {
				t.Fatalf("request id %q not propagated (handler saw %q)", id, ctxID)
			}
			if tc.wantID != "" && id != tc.wantID {
				t.Errorf("request id = %q, want %q", id, tc.wantID)
			}
			if tc.wantID == "" {
				if _, err := uuid.Parse(id); err != nil {
					t.Errorf("generated request id %q is not a UUID: %v", id, err)
				}
			}

			if !tc.wantLogs {
				if buf.Len() != 0 {
					t.Errorf("expected no info-level log for %s, got %s", tc.path, buf.String())
				}
				return
			}
			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["status"] != float64(http.StatusTeapot) || entry["bytes"] != float64(len("short and stout")) {
				t.Errorf("log entry = %v", entry)
			}
			if entry["request_id"] != id {
				t.Errorf("log request_id = %v, want %q", entry["request_id"], id)
			}
		})
	}
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	_, _ = rw.Write([]byte("x"))
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.status != http.StatusOK {
		t.Errorf("status = %d, an implicit 200 from Write must stick", rw.status)
	}
}
