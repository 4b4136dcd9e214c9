package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/switchboard/pkg/orchestrator"
	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/telemetry/logging"
)

// maxBodyBytes bounds API request bodies.
const maxBodyBytes = 1 << 20

// Orchestrator is the service the API exposes.
type Orchestrator interface {
	SelectProvider(ctx context.Context, feature string, excluded []provider.ID) routing.Decision
	ReportOutcome(ctx context.Context, o orchestrator.Outcome) error
	RunHealthSweep(ctx context.Context) (orchestrator.SweepReport, error)
	Dashboard(ctx context.Context) orchestrator.Dashboard
}

// SelectRequest is the body of POST /v1/select.
type SelectRequest struct {
	// Feature defaults to "default" when empty.
	Feature string `json:"feature"`

	// Exclude lists providers the caller wants skipped, for example after
	// a failed attempt.
	Exclude []string `json:"exclude,omitempty"`
}

// OutcomeRequest is the body of POST /v1/outcomes.
type OutcomeRequest struct {
	Provider  string   `json:"provider"`
	Feature   string   `json:"feature"`
	Success   bool     `json:"success"`
	LatencyMs *float64 `json:"latency_ms,omitempty"`
	Cost      *float64 `json:"cost,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// OutcomeResponse acknowledges a recorded outcome.
type OutcomeResponse struct {
	Recorded bool `json:"recorded"`
}

// toOutcome validates the request and converts it to an Outcome.
func (r OutcomeRequest) toOutcome() (orchestrator.Outcome, *ErrorResponse) {
	id, err := provider.ParseID(r.Provider)
	if err != nil {
		return orchestrator.Outcome{}, invalidRequest(CodeUnknownProvider, "provider", err.Error())
	}

	o := orchestrator.Outcome{
		Provider: id,
		Feature:  r.Feature,
		Success:  r.Success,
		Cost:     r.Cost,
		Error:    r.Error,
	}
	if r.LatencyMs != nil {
		if *r.LatencyMs < 0 {
			return orchestrator.Outcome{}, invalidRequest(CodeInvalidValue, "latency_ms", "latency_ms cannot be negative")
		}
		latency := time.Duration(*r.LatencyMs * float64(time.Millisecond))
		o.Latency = &latency
	}
	if r.Cost != nil && *r.Cost < 0 {
		return orchestrator.Outcome{}, invalidRequest(CodeInvalidValue, "cost", "cost cannot be negative")
	}
	return o, nil
}

// handlers serves the orchestration API.
type handlers struct {
	svc    Orchestrator
	logger *slog.Logger
}

// selectProvider handles POST /v1/select.
func (h *handlers) selectProvider(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if errResp := decodeBody(w, r, &req); errResp != nil {
		writeError(w, errResp)
		return
	}

	excluded, err := routing.ParseExclusions(req.Exclude)
	if err != nil {
		writeError(w, invalidRequest(CodeUnknownProvider, "exclude", err.Error()))
		return
	}

	ctx := logging.WithFeature(r.Context(), req.Feature)
	writeJSON(w, http.StatusOK, h.svc.SelectProvider(ctx, req.Feature, excluded))
}

// reportOutcome handles POST /v1/outcomes.
func (h *handlers) reportOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if errResp := decodeBody(w, r, &req); errResp != nil {
		writeError(w, errResp)
		return
	}

	outcome, errResp := req.toOutcome()
	if errResp != nil {
		writeError(w, errResp)
		return
	}

	ctx := logging.WithProvider(r.Context(), string(outcome.Provider))
	ctx = logging.WithFeature(ctx, outcome.Feature)

	err := h.svc.ReportOutcome(ctx, outcome)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, OutcomeResponse{Recorded: true})
	case errors.Is(err, orchestrator.ErrInvalidOutcome):
		writeError(w, invalidRequest(CodeInvalidValue, "", err.Error()))
	default:
		// The failure counter was still updated; only the usage log missed it.
		writeError(w, newError(ErrorTypeServiceUnavailable, CodeStoreUnavailable, "", err.Error()))
	}
}

// runSweep handles POST /v1/sweep.
func (h *handlers) runSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RunHealthSweep(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, orchestrator.ErrSweepInProgress):
		writeError(w, newError(ErrorTypeConflict, CodeSweepInProgress, "", err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, newError(ErrorTypeGatewayTimeout, CodeRequestTimeout, "", err.Error()))
	default:
		h.logger.ErrorContext(r.Context(), "health sweep failed", "error", err)
		writeError(w, newError(ErrorTypeServerError, CodeInternalError, "", err.Error()))
	}
}

// dashboard handles GET /v1/dashboard.
func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Dashboard(r.Context()))
}

// decodeBody decodes a bounded JSON body into v. An empty body leaves v
// unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) *ErrorResponse {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &maxErr):
			return invalidRequest(CodeRequestTooLarge, "", "request body too large")
		default:
			return invalidRequest(CodeInvalidJSON, "", "invalid JSON body: "+err.Error())
		}
	}
	return nil
}
