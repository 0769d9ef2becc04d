package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/docrag/internal/pipeline"
	"github.com/54b3r/docrag/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// RequestTimeout bounds ingest and ask handlers (default: 2m).
	RequestTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// CheckTimeout bounds each readiness check (default: 5s).
	CheckTimeout time.Duration
	// Pingers is the ordered list of dependency checks run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// IngestRoot is the directory POST /api/ingest paths must resolve into.
	// Relative paths are joined onto it. Defaults to the working directory.
	IngestRoot string
	// MetricsRegistry receives the server metrics. Defaults to a new registry.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer is served on GET /metrics. Defaults to MetricsRegistry
	// when it is also a Gatherer.
	MetricsGatherer prometheus.Gatherer
}

// Service is the pipeline surface the handlers call.
// *pipeline.Pipeline satisfies it; tests inject a fake.
type Service interface {
	Ingest(ctx context.Context, path string) (pipeline.IngestReport, error)
	Ask(ctx context.Context, question string) (*pipeline.Report, error)
	Search(ctx context.Context, query string, k int) ([]rag.StoredItem, error)
}

// Server is the HTTP server that exposes the ingest-then-query pipeline.
type Server struct {
	// svc handles all pipeline operations.
	svc Service
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// ingestRoot is the absolute, symlink-resolved IngestRoot.
	ingestRoot string
	// pingers is the ordered list of dependency checks for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors owned by the server.
	metrics *serverMetrics
}

// ingestRequest is the JSON body for POST /api/ingest.
type ingestRequest struct {
	// Path is the local file to ingest.
	Path string `json:"path"`
}

// ingestResponse is the JSON response for POST /api/ingest.
type ingestResponse struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
	Chunks  int    `json:"chunks"`
	Stored  int    `json:"stored"`
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
}

// askResponse is the JSON response for POST /api/ask.
type askResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Mode     string `json:"mode"`
	// Sources are the chunks used as context. Empty in direct mode.
	Sources []itemResponse `json:"sources"`
	// Verified reports whether the stored answer was found again. Nil when
	// feedback is disabled.
	Verified *bool `json:"verified,omitempty"`
	// Retrieved holds the verification search results.
	Retrieved []itemResponse `json:"retrieved,omitempty"`
}

// searchResponse is the JSON response for GET /api/search.
type searchResponse struct {
	Query string         `json:"query"`
	Items []itemResponse `json:"items"`
}

// itemResponse is the wire form of a stored item.
type itemResponse struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float32           `json:"score,omitempty"`
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

func toItems(items []rag.StoredItem) []itemResponse {
	out := make([]itemResponse, len(items))
	for i, it := range items {
		out[i] = itemResponse{ID: it.ID, Content: it.Content, Metadata: it.Metadata, Score: it.Score}
	}
	return out
}
