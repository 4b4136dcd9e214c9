package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/switchboard/pkg/alerting"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/orchestrator"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/server"
)

func newTestServer(t *testing.T) (*App, *httptest.Server) {
	t.Helper()
	cfg := testConfig()
	cfg.Alerting.ConsecutiveFailureThreshold = 3
	cfg.Features = map[string]config.FeatureConfig{"chat": {}}

	a := newTestApp(t, cfg)
	srv := server.New(&cfg.Server, a.Service, server.Options{
		Checker: a.Checker,
		Metrics: a.Metrics,
		Version: "test",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return a, ts
}

func post(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestEndToEnd_FailoverAndAlert(t *testing.T) {
	_, ts := newTestServer(t)

	var d routing.Decision
	if code := post(t, ts.URL+"/v1/select", `{"feature":"chat"}`, &d); code != http.StatusOK {
		t.Fatalf("select status = %d, want 200", code)
	}
	if d.Provider != "groq" {
		t.Fatalf("select = %s, want groq", d.Provider)
	}

	for range 3 {
		code := post(t, ts.URL+"/v1/outcomes",
			`{"provider":"groq","feature":"chat","success":false,"latency_ms":120,"error":"429 rate limited"}`, nil)
		if code != http.StatusAccepted {
			t.Fatalf("outcome status = %d, want 202", code)
		}
	}

	if code := post(t, ts.URL+"/v1/select", `{"feature":"chat","exclude":["groq"]}`, &d); code != http.StatusOK {
		t.Fatalf("select status = %d, want 200", code)
	}
	if d.Provider != "openai" || d.Code != routing.ReasonFallback {
		t.Errorf("select with exclusion = %s/%s, want openai/fallback", d.Provider, d.Code)
	}

	var report orchestrator.SweepReport
	if code := post(t, ts.URL+"/v1/sweep", ``, &report); code != http.StatusOK {
		t.Fatalf("sweep status = %d, want 200", code)
	}
	var consecutive bool
	for _, r := range report.Pairs {
		if r.Provider != "groq" {
			continue
		}
		if res, ok := r.Result(alerting.ConditionConsecutiveFailures); ok && res.Outcome == alerting.OutcomeDispatched {
			consecutive = true
		}
	}
	if !consecutive {
		t.Errorf("sweep did not flag groq consecutive failures: %+v", report.Pairs)
	}
	if report.Dispatched == 0 {
		t.Error("Dispatched = 0, want at least one alert")
	}

	resp, err := http.Get(ts.URL + "/v1/dashboard")
	if err != nil {
		t.Fatalf("GET dashboard: %v", err)
	}
	defer resp.Body.Close()
	var dash orchestrator.Dashboard
	if err := json.NewDecoder(resp.Body).Decode(&dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.Overall.TotalRequests != 3 || dash.Overall.ErrorCount != 3 {
		t.Errorf("Overall = %d requests / %d errors, want 3/3", dash.Overall.TotalRequests, dash.Overall.ErrorCount)
	}
	if dash.LastSweep == nil {
		t.Error("LastSweep = nil after a sweep")
	}
}

func TestEndToEnd_Probes(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/version", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
