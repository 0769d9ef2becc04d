package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/54b3r/docrag/internal/logging"
)

// defaultCheckTimeout bounds each dependency check in GET /api/ready.
const defaultCheckTimeout = 5 * time.Second

// Pinger reports whether one dependency (the vector store, the chat model
// endpoint) is reachable. Implementations must be safe for concurrent use.
type Pinger interface {
	// Ping returns nil when the dependency answered.
	Ping(ctx context.Context) error
	// Name labels the dependency in readiness responses (e.g. "qdrant").
	Name() string
}

// readyCheck is the result of one dependency check.
type readyCheck struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// readyResponse is the body of GET /api/ready.
type readyResponse struct {
	Ready  bool         `json:"ready"`
	Checks []readyCheck `json:"checks"`
}

// handleReady pings every registered Pinger in parallel and answers 200
// when all of them succeed, 503 otherwise. Checks are reported in
// registration order.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	checks := make([]readyCheck, len(s.pingers))
	var wg sync.WaitGroup
	for i, p := range s.pingers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = runCheck(r.Context(), p, s.cfg.CheckTimeout)
		}()
	}
	wg.Wait()

	resp := readyResponse{Ready: true, Checks: checks}
	for _, c := range checks {
		if !c.OK {
			resp.Ready = false
			log.Warn("readiness check failed",
				slog.String("dependency", c.Name),
				slog.String("error", c.Error),
			)
		}
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, log, status, resp)
}

func runCheck(ctx context.Context, p Pinger, timeout time.Duration) readyCheck {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	c := readyCheck{Name: p.Name(), OK: err == nil, DurationMS: time.Since(start).Milliseconds()}
	if err != nil {
		c.Error = err.Error()
	}
	return c
}
