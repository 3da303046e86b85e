// Package httpapi exposes the call guard over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
	"github.com/haukened/callguard/internal/guard/repos/denylist"
	"github.com/haukened/callguard/internal/guard/repos/eventlog"
	"github.com/haukened/callguard/internal/guard/services/refresh"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

var errTrailingData = errors.New("body must contain a single JSON object")

type Evaluator interface {
	Evaluate(number string, international bool, transcript string, opts domain.Options) domain.CallEvaluationResult
}

type Denylist interface {
	Authority() []domain.ListedNumber
	AIDetected() []domain.ListedNumber
	Stats() denylist.Stats
}

type Refresher interface {
	Refresh(ctx context.Context) refresh.Notice
}

type Reports interface {
	Snapshot() []string
}

type Events interface {
	Snapshot() eventlog.Snapshot
	Reset()
}

type Advisory interface {
	Latest() (string, bool)
}

// Handler wires the API endpoints to the engine and its surrounding state.
type Handler struct {
	evaluator Evaluator
	denylist  Denylist
	refresher Refresher
	reports   Reports
	events    Events
	advisory  Advisory
	defaults  domain.Options
	logger    log.Logger
}

type HandlerOptions struct {
	Evaluator Evaluator
	Denylist  Denylist
	Refresher Refresher
	Reports   Reports
	Events    Events
	Advisory  Advisory
	// Defaults are the toggles applied when a request omits them.
	Defaults domain.Options
	Logger   log.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	h := &Handler{
		evaluator: opts.Evaluator,
		denylist:  opts.Denylist,
		refresher: opts.Refresher,
		reports:   opts.Reports,
		events:    opts.Events,
		advisory:  opts.Advisory,
		defaults:  opts.Defaults,
		logger:    opts.Logger,
	}
	if h.logger == nil {
		h.logger = log.NewNoopLogger()
	}
	return h
}

// Register mounts the v1 endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/calls/evaluate", h.HandleEvaluate)
		r.Get("/denylist", h.HandleDenylist)
		r.Post("/denylist/refresh", h.HandleRefresh)
		r.Get("/reports", h.HandleReports)
		r.Get("/events", h.HandleEvents)
		r.Delete("/events", h.HandleResetEvents)
		r.Get("/advisory", h.HandleAdvisory)
	})
}

// decodeEvaluate reads at most one JSON object. An empty body is a zero request.
func decodeEvaluate(body io.Reader) (EvaluateRequest, error) {
	var req EvaluateRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return req, errTrailingData
	}
	return req, nil
}

// HandleEvaluate handles POST /v1/calls/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeEvaluate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Debug(map[string]any{"error": err.Error()}, "invalid_evaluate_request")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result := h.evaluator.Evaluate(req.Number, req.IsInternational(), req.Transcript, req.ToOptions(h.defaults))
	writeJSON(w, http.StatusOK, result)
}

// HandleDenylist handles GET /v1/denylist.
func (h *Handler) HandleDenylist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fromDenylist(h.denylist.Authority(), h.denylist.AIDetected(), h.denylist.Stats()))
}

// HandleRefresh handles POST /v1/denylist/refresh. A failed refresh is reported
// in the notice body, not as an HTTP error.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.refresher.Refresh(r.Context()))
}

// HandleReports handles GET /v1/reports.
func (h *Handler) HandleReports(w http.ResponseWriter, r *http.Request) {
	reports := h.reports.Snapshot()
	if reports == nil {
		reports = []string{}
	}
	writeJSON(w, http.StatusOK, ReportsResponse{Count: len(reports), Reports: reports})
}

// HandleEvents handles GET /v1/events.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.events.Snapshot())
}

// HandleResetEvents handles DELETE /v1/events.
func (h *Handler) HandleResetEvents(w http.ResponseWriter, r *http.Request) {
	h.events.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdvisory handles GET /v1/advisory.
func (h *Handler) HandleAdvisory(w http.ResponseWriter, r *http.Request) {
	adv, ok := h.advisory.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, AdvisoryResponse{Advisory: adv})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
