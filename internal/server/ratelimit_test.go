package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// hit sends one request from ip through h and returns the recorder.
func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	req.RemoteAddr = ip + ":4242"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	t.Parallel()

	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rejected"}, []string{labelHandler})
	h := newRateLimiter(0.001, 3, rejected).middleware(okHandler)

	for i := range 3 {
		if w := hit(h, "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: got %d", i, w.Code)
		}
	}
	w := hit(h, "10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("request over burst: got %d, want 429", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra == "" || ra == "0" {
		t.Errorf("Retry-After = %q, want a positive number of seconds", ra)
	}
	if got := testutil.ToFloat64(rejected.WithLabelValues("")); got != 1 {
		t.Errorf("rejected counter = %v, want 1", got)
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	t.Parallel()

	h := newRateLimiter(0.001, 1, nil).middleware(okHandler)

	hit(h, "192.168.1.1")
	if w := hit(h, "192.168.1.1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("client A second request: got %d, want 429", w.Code)
	}
	if w := hit(h, "192.168.1.2"); w.Code != http.StatusOK {
		t.Errorf("client B should have its own bucket, got %d", w.Code)
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	rl := newRateLimiter(10, 10, nil)
	rl.now = func() time.Time { return now }

	rl.bucket("a")
	rl.bucket("b")
	if rl.size() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", rl.size())
	}

	now = now.Add(clientIdleTTL + time.Second)
	rl.bucket("c")
	if rl.size() != 1 {
		t.Errorf("idle clients should be swept, %d remain", rl.size())
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"127.0.0.1:54321": "127.0.0.1",
		"[::1]:8080":      "::1",
		"noport":          "noport",
	}
	for addr, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		if got := clientIP(req); got != want {
			t.Errorf("clientIP(%q) = %q, want %q", addr, got, want)
		}
	}
}
