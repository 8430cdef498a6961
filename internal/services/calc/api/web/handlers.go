package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/platform/timeouts"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/batch"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
)

// maxBatchBodyBytes bounds a batch request body. 100 operations of opaque
// JSON fit comfortably under 4 MiB.
const maxBatchBodyBytes = 4 << 20

// userHeader carries the authenticated user id set by the fronting gateway.
const userHeader = "X-User-ID"

// Handler serves the calc service's HTTP surface.
type Handler struct {
	runner *batch.Runner
}

// NewHandler creates the HTTP handler over runner.
func NewHandler(runner *batch.Runner) *Handler {
	return &Handler{runner: runner}
}

// Routes returns the service mux with middleware applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/v1/batch", Chain(
		http.HandlerFunc(h.handleBatch),
		RequireMethod(http.MethodPost),
	))
	mux.Handle("/v1/limits", Chain(
		http.HandlerFunc(h.handleLimits),
		RequireMethod(http.MethodGet),
	))
	return Chain(mux, RequestID(), RecoverPanic())
}

// batchRequest is the JSON body of POST /v1/batch.
type batchRequest struct {
	Operations      []domain.Operation `json:"operations"`
	ContinueOnError bool               `json:"continue_on_error"`
	MaxConcurrency  int                `json:"max_concurrency"`
	TimeoutMS       int64              `json:"timeout_ms"`
}

// batchResponse is the JSON body of a batch run. Success reports whether
// every operation applied; a timed-out batch carries partial results.
type batchResponse struct {
	Success bool                     `json:"success"`
	Status  domain.Status            `json:"status"`
	Results []domain.OperationResult `json:"results"`
	Summary batchSummary             `json:"summary"`
}

type batchSummary struct {
	Total      int   `json:"total"`
	Successful int   `json:"successful"`
	Failed     int   `json:"failed"`
	DurationMS int64 `json:"duration_ms"`
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	body := http.MaxBytesReader(w, r.Body, maxBatchBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		_ = WriteJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    platformerrors.CodeValidation,
			Message: "request body is not valid JSON",
		}})
		return
	}

	userID := strings.TrimSpace(r.Header.Get(userHeader))
	opts := domain.Options{
		ContinueOnError: req.ContinueOnError,
		MaxConcurrency:  req.MaxConcurrency,
		Timeout:         time.Duration(req.TimeoutMS) * time.Millisecond,
	}

	outcome, err := h.runner.Run(r.Context(), userID, req.Operations, opts)
	if err != nil {
		WriteError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, batchResponse{
		Success: outcome.Status == domain.StatusCompleted && outcome.Summary.Failed == 0,
		Status:  outcome.Status,
		Results: outcome.Results,
		Summary: batchSummary{
			Total:      outcome.Summary.Total,
			Successful: outcome.Summary.Successful,
			Failed:     outcome.Summary.Failed,
			DurationMS: outcome.Summary.Duration.Milliseconds(),
		},
	})
}

// limitsResponse mirrors the admission constants so clients can self-throttle.
type limitsResponse struct {
	MaxOperations         int   `json:"max_operations"`
	DefaultMaxConcurrency int   `json:"default_max_concurrency"`
	MaxConcurrency        int   `json:"max_concurrency"`
	DefaultTimeoutMS      int64 `json:"default_timeout_ms"`
	MaxTimeoutMS          int64 `json:"max_timeout_ms"`
}

func (h *Handler) handleLimits(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, limitsResponse{
		MaxOperations:         domain.MaxOperations,
		DefaultMaxConcurrency: domain.DefaultMaxConcurrency,
		MaxConcurrency:        domain.MaxConcurrencyCap,
		DefaultTimeoutMS:      timeouts.BatchDefault.Milliseconds(),
		MaxTimeoutMS:          timeouts.BatchMax.Milliseconds(),
	})
}
