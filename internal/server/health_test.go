package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/54b3r/docrag/internal/vectorstore"
)

// stubPinger answers after delay with err. With block set it waits for the
// check context instead.
type stubPinger struct {
	name  string
	err   error
	delay time.Duration
	block bool
}

func (p *stubPinger) Name() string { return p.name }

func (p *stubPinger) Ping(ctx context.Context) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	select {
	case <-time.After(p.delay):
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// nullEmbedder satisfies rag.Embedder for stores that are only pinged.
type nullEmbedder struct{}

func (nullEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

// ready calls GET /api/ready through the full handler stack.
func ready(t *testing.T, cfg *Config) (int, readyResponse) {
	t.Helper()
	s, err := newTestServerWith(&fakeService{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	w := do(t, s, http.MethodGet, "/api/ready", "", nil)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode /api/ready: %v", err)
	}
	return w.Code, resp
}

func names(checks []readyCheck) []string {
	out := make([]string, len(checks))
	for i, c := range checks {
		out[i] = c.Name
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	w := do(t, newTestServer(), http.MethodGet, "/api/health", "", nil)
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v, want 200 {status: ok}", w.Code, body)
	}
}

func TestHandleReady(t *testing.T) {
	t.Parallel()

	down := errors.New("connection refused")
	tests := []struct {
		name       string
		pingers    []Pinger
		wantStatus int
		wantFailed []string
	}{
		{name: "liveness only", wantStatus: http.StatusOK},
		{
			name:       "all healthy",
			pingers:    []Pinger{&stubPinger{name: "local"}, &stubPinger{name: "openai"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "store down",
			pingers:    []Pinger{&stubPinger{name: "qdrant", err: down}, &stubPinger{name: "ollama"}},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"qdrant"},
		},
		{
			name:       "everything down",
			pingers:    []Pinger{&stubPinger{name: "weaviate", err: down}, &stubPinger{name: "gemini", err: down}},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"weaviate", "gemini"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, resp := ready(t, &Config{Pingers: tc.pingers})
			if code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", code, tc.wantStatus)
			}
			if resp.Ready != (tc.wantStatus == http.StatusOK) {
				t.Errorf("ready = %v with status %d", resp.Ready, code)
			}
			if len(resp.Checks) != len(tc.pingers) {
				t.Fatalf("got %d checks, want %d", len(resp.Checks), len(tc.pingers))
			}
			var failed []string
			for _, c := range resp.Checks {
				if !c.OK {
					failed = append(failed, c.Name)
					if c.Error == "" {
						t.Errorf("failed check %q has no error text", c.Name)
					}
				}
			}
			if !slices.Equal(failed, tc.wantFailed) {
				t.Errorf("failed checks = %v, want %v", failed, tc.wantFailed)
			}
		})
	}
}

func TestHandleReady_ParallelChecksKeepOrder(t *testing.T) {
	t.Parallel()

	// The first pinger is the slowest, so completion order differs from
	// registration order.
	pingers := []Pinger{
		&stubPinger{name: "slow", delay: 150 * time.Millisecond},
		&stubPinger{name: "medium", delay: 75 * time.Millisecond},
		&stubPinger{name: "fast"},
	}

	start := time.Now()
	code, resp := ready(t, &Config{Pingers: pingers})
	elapsed := time.Since(start)

	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if got := names(resp.Checks); !slices.Equal(got, []string{"slow", "medium", "fast"}) {
		t.Errorf("checks = %v, want registration order", got)
	}
	if elapsed >= 225*time.Millisecond {
		t.Errorf("checks took %v, they should overlap rather than run back to back", elapsed)
	}
	if resp.Checks[0].DurationMS < 100 {
		t.Errorf("slow check duration = %dms, want at least its delay", resp.Checks[0].DurationMS)
	}
}

func TestHandleReady_CheckTimeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	code, resp := ready(t, &Config{
		CheckTimeout: 50 * time.Millisecond,
		Pingers:      []Pinger{&stubPinger{name: "hung", block: true}, &stubPinger{name: "local"}},
	})

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("readiness took %v, the check timeout was not applied", elapsed)
	}
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if hung := resp.Checks[0]; hung.OK || hung.Error == "" {
		t.Errorf("hung check = %+v, want a timeout failure", hung)
	}
	if !resp.Checks[1].OK {
		t.Errorf("healthy check failed alongside the hung one: %+v", resp.Checks[1])
	}
}

func TestHandleReady_LocalStore(t *testing.T) {
	t.Parallel()

	store, err := vectorstore.NewLocalStore(":memory:", nullEmbedder{})
	if err != nil {
		t.Fatal(err)
	}
	pingers := []Pinger{NewStorePinger(store)}

	code, resp := ready(t, &Config{Pingers: pingers})
	if code != http.StatusOK || len(resp.Checks) != 1 || resp.Checks[0].Name != "local" {
		t.Fatalf("open store: status %d checks %+v", code, resp.Checks)
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	code, resp = ready(t, &Config{Pingers: pingers})
	if code != http.StatusServiceUnavailable || resp.Checks[0].OK {
		t.Errorf("closed store: status %d checks %+v, want 503", code, resp.Checks)
	}
}
