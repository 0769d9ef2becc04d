package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMetricsTestServer builds a Server backed by a fresh isolated registry so
// tests do not pollute prometheus.DefaultRegisterer.
func newMetricsTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s, err := newTestServerWith(&fakeService{}, &Config{MetricsRegistry: reg, MetricsGatherer: reg})
	if err != nil {
		t.Fatal(err)
	}
	return s, reg
}

// counterValue returns the value of the counter named name whose labels
// include every pair in labels, and whether it was found.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue(), true
			}
		}
	}
	return 0, false
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	_, reg := newMetricsTestServer(t)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

func Test_Metrics_AskCounterIncremented(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t)

	if w := do(t, s, http.MethodPost, "/api/ask", `{"question":"q"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d", w.Code)
	}

	v, ok := counterValue(t, reg, "docrag_ask_requests_total", map[string]string{"outcome": "ok"})
	if !ok {
		t.Fatal(`docrag_ask_requests_total{outcome="ok"} not found in gathered metrics`)
	}
	if v != 1 {
		t.Errorf("want counter=1, got %v", v)
	}
}

func Test_Metrics_HTTPRequestsLabelledByPattern(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t)

	do(t, s, http.MethodGet, "/api/health", "", nil)
	do(t, s, http.MethodGet, "/nope", "", nil)

	if v, ok := counterValue(t, reg, "docrag_http_requests_total", map[string]string{
		"method": "GET", labelHandler: "GET /api/health", "code": "200",
	}); !ok || v != 1 {
		t.Errorf("health request counter = %v (found %v), want 1", v, ok)
	}
	if _, ok := counterValue(t, reg, "docrag_http_requests_total", map[string]string{
		labelHandler: unmatchedHandler, "code": "404",
	}); !ok {
		t.Error("unmatched request should be counted under the unmatched handler label")
	}
}
