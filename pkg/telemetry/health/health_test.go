package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"default timeout", 0, DefaultCheckTimeout},
		{"negative timeout", -time.Second, DefaultCheckTimeout},
		{"custom timeout", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)
			if checker.checkTimeout != tt.want {
				t.Errorf("checkTimeout = %v, want %v", checker.checkTimeout, tt.want)
			}
		})
	}
}

func TestCheckReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name     string
		critical map[string]CheckFunc
		advisory map[string]CheckFunc
		want     string
	}{
		{"no checks", nil, nil, StatusReady},
		{"all healthy", map[string]CheckFunc{"usage_store": ok}, map[string]CheckFunc{"spend_breaker": ok}, StatusReady},
		{"advisory failure", map[string]CheckFunc{"usage_store": ok}, map[string]CheckFunc{"spend_breaker": fail}, StatusDegraded},
		{"critical failure", map[string]CheckFunc{"usage_store": fail}, nil, StatusUnhealthy},
		{"both fail", map[string]CheckFunc{"usage_store": fail}, map[string]CheckFunc{"spend_breaker": fail}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, fn := range tt.critical {
				checker.RegisterCheck(name, fn)
			}
			for name, fn := range tt.advisory {
				checker.RegisterAdvisoryCheck(name, fn)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Status = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.critical)+len(tt.advisory) {
				t.Errorf("len(Checks) = %d, want %d", len(status.Checks), len(tt.critical)+len(tt.advisory))
			}
		})
	}
}

func TestCheckReadiness_ResultDetails(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("state_store", PingCheck(pingerFunc(func(context.Context) error {
		return errors.New("dial tcp: refused")
	})))

	status := checker.CheckReadiness(context.Background())
	result := status.Checks["state_store"]

	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %q, want unhealthy", result.Status)
	}
	if !result.Critical {
		t.Error("Critical = false, want true")
	}
	if result.Message != "dial tcp: refused" {
		t.Errorf("Message = %q, want check error", result.Message)
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})

	start := time.Now()
	status := checker.CheckReadiness(context.Background())

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("CheckReadiness() took %v, want bounded by timeout", elapsed)
	}
	if got := status.Checks["slow"].Message; got != ErrCheckTimeout.Error() {
		t.Errorf("Message = %q, want %q", got, ErrCheckTimeout.Error())
	}
}

func TestChecker_RegisterReplaceAndUnregister(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("b", func(context.Context) error { return errors.New("x") })
	checker.RegisterAdvisoryCheck("b", func(context.Context) error { return errors.New("x") })
	checker.RegisterCheck("a", func(context.Context) error { return nil })

	if got := checker.ListChecks(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ListChecks() = %v, want [a b]", got)
	}
	// Replacement made "b" advisory.
	if status := checker.CheckReadiness(context.Background()); status.Status != StatusDegraded {
		t.Errorf("Status = %q, want degraded", status.Status)
	}

	checker.UnregisterCheck("b")
	if status := checker.CheckReadiness(context.Background()); status.Status != StatusReady {
		t.Errorf("Status after unregister = %q, want ready", status.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		critical bool
		wantCode int
	}{
		{"advisory failure serves 200", false, http.StatusOK},
		{"critical failure serves 503", true, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			fail := func(context.Context) error { return errors.New("down") }
			if tt.critical {
				checker.RegisterCheck("dep", fail)
			} else {
				checker.RegisterAdvisoryCheck("dep", fail)
			}

			rec := httptest.NewRecorder()
			checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Checks["dep"].Message != "down" {
				t.Errorf("body check message = %q, want down", body.Checks["dep"].Message)
			}
		})
	}
}

func TestLivenessHandler(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("dep", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	checker.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200 regardless of checks", rec.Code)
	}

	rec = httptest.NewRecorder()
	checker.LivenessHandler()(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body length = %d, want 0", rec.Body.Len())
	}

	rec = httptest.NewRecorder()
	checker.LivenessHandler()(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status code = %d, want 405", rec.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2026-03-15")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("VersionInfo = %+v, want version and commit", info)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, New(time.Second), "dev", "none", "unknown")

	for _, path := range []string{"/health", "/ready", "/version"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestRateLimitedHandler(t *testing.T) {
	calls := 0
	handler := RateLimitedHandler(func(w http.ResponseWriter, r *http.Request) { calls++ }, 2)

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes[i] = rec.Code
	}

	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third status = %d, want 429", codes[2])
	}
}
