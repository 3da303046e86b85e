package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for call evaluation, the denylist feed and the
// risk event log. All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Evaluation outcomes by action
	Evaluations *prometheus.CounterVec

	// Wall time spent inside Evaluate
	EvaluateLatency prometheus.Histogram

	// AI keyword detections recorded into the denylist
	Detections prometheus.Counter

	// Reports appended to the auto-report queue
	ReportsQueued prometheus.Counter

	// Authority feed refreshes by result
	FeedRefreshes *prometheus.CounterVec

	// Current size of the authority snapshot
	AuthorityEntries prometheus.Gauge

	// Risk events written to the dashboard log, by origin
	RiskEvents *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered on reg. A nil
// reg registers on the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callguard_evaluations_total",
			Help: "Total call evaluations by resulting action",
		}, []string{"action"}), // action: "ALLOW", "WARN", "BLOCK"

		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "callguard_evaluate_duration_seconds",
			Help:    "Duration of a single call evaluation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		Detections: f.NewCounter(prometheus.CounterOpts{
			Name: "callguard_ai_detections_total",
			Help: "Total numbers recorded by transcript keyword detection",
		}),

		ReportsQueued: f.NewCounter(prometheus.CounterOpts{
			Name: "callguard_reports_queued_total",
			Help: "Total reports appended to the auto-report queue",
		}),

		FeedRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callguard_feed_refreshes_total",
			Help: "Authority list refresh attempts by result",
		}, []string{"result"}), // result: "ok", "error"

		AuthorityEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "callguard_authority_entries",
			Help: "Number of entries in the current authority snapshot",
		}),

		RiskEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callguard_risk_events_total",
			Help: "Risk events recorded in the recent event log by origin",
		}, []string{"origin"}), // origin: "evaluation", "simulator"
	}
}

// ObserveEvaluation records the action and latency of one evaluation.
func (m *Metrics) ObserveEvaluation(action string, d time.Duration) {
	if m != nil {
		m.Evaluations.WithLabelValues(action).Inc()
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementDetections records one AI keyword detection.
func (m *Metrics) IncrementDetections() {
	if m != nil {
		m.Detections.Inc()
	}
}

// IncrementReports records one queued report.
func (m *Metrics) IncrementReports() {
	if m != nil {
		m.ReportsQueued.Inc()
	}
}

// ObserveRefresh records a feed refresh result and, on success, the snapshot size.
func (m *Metrics) ObserveRefresh(ok bool, entries int) {
	if m == nil {
		return
	}
	if !ok {
		m.FeedRefreshes.WithLabelValues("error").Inc()
		return
	}
	m.FeedRefreshes.WithLabelValues("ok").Inc()
	m.AuthorityEntries.Set(float64(entries))
}

// IncrementRiskEvents records a risk event from the given origin.
func (m *Metrics) IncrementRiskEvents(origin string) {
	if m != nil {
		m.RiskEvents.WithLabelValues(origin).Inc()
	}
}
