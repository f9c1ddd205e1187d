// Package metrics exposes Prometheus counters for rule evaluation and
// categorization. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "categorizer"

type Metrics struct {
	registry *prometheus.Registry

	Categorizations *prometheus.CounterVec
	RuleEvaluations *prometheus.CounterVec
	RuleSkips       *prometheus.CounterVec
	RuleMutations   *prometheus.CounterVec
	StoreLoadErrors prometheus.Counter
	EventsPublished *prometheus.CounterVec
}

// New creates the metric set on its own registry, alongside the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Categorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "categorize",
				Name:      "results_total",
				Help:      "Categorization results by provenance (rule, ml, fallback)",
			},
			[]string{"provenance"},
		),

		RuleEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "evaluations_total",
				Help:      "Rule evaluations by outcome (matched, none)",
			},
			[]string{"outcome"},
		),

		RuleSkips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "skipped_total",
				Help:      "Rules passed over during evaluation by reason",
			},
			[]string{"reason"},
		),

		RuleMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "mutations_total",
				Help:      "Rule store writes by operation and status",
			},
			[]string{"operation", "status"},
		),

		StoreLoadErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "load_errors_total",
				Help:      "Rule store loads that failed and were served as an empty collection",
			},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Categorization events by publish status",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Categorizations,
		m.RuleEvaluations,
		m.RuleSkips,
		m.RuleMutations,
		m.StoreLoadErrors,
		m.EventsPublished,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCategorization(provenance string) {
	if m == nil {
		return
	}
	m.Categorizations.WithLabelValues(provenance).Inc()
}

func (m *Metrics) ObserveEvaluation(matched bool) {
	if m == nil {
		return
	}
	outcome := "none"
	if matched {
		outcome = "matched"
	}
	m.RuleEvaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSkip(reason string) {
	if m == nil {
		return
	}
	m.RuleSkips.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveMutation(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RuleMutations.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) ObserveStoreLoadError() {
	if m == nil {
		return
	}
	m.StoreLoadErrors.Inc()
}

func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(status).Inc()
}
