//go:build !nometrics

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every resonance collector. It is separate from the default
// registry so embedding programs choose whether to expose it.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// commits counts commit attempts by status code name.
	commits = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "domain",
		Name:      "commits_total",
		Help:      "Commit attempts by resulting status",
	}, []string{"status"})

	// conservationChecks counts predicate evaluations.
	// Labels: op (attach, verify, commit), result (ok, fail)
	conservationChecks = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "domain",
		Name:      "conservation_checks_total",
		Help:      "Conservation predicate evaluations",
	}, []string{"op", "result"})

	// budgetOps counts ledger operations.
	// Labels: op (alloc, release), result (ok, fail)
	budgetOps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "budget",
		Name:      "operations_total",
		Help:      "Budget ledger operations",
	}, []string{"op", "result"})

	// witnessOps counts witness generation and verification.
	witnessOps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "witness",
		Name:      "operations_total",
		Help:      "Witness generate and verify calls",
	}, []string{"op", "result"})

	// clusterBuild measures CSR build duration.
	// Labels: mode (serial, parallel)
	clusterBuild = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cluster",
		Name:      "build_duration_seconds",
		Help:      "CSR cluster build latency in seconds",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"mode"})

	// windowsOpened counts ticker emissions per class.
	windowsOpened = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "windows_opened_total",
		Help:      "Harmonic windows emitted by the ticker",
	})
)

// RecordCommit records a commit attempt by its status name.
func RecordCommit(statusName string) {
	if !enabled.Load() {
		return
	}
	commits.WithLabelValues(statusName).Inc()
}

// RecordConservationCheck records one evaluation of the conservation predicate.
func RecordConservationCheck(op string, ok bool) {
	if !enabled.Load() {
		return
	}
	conservationChecks.WithLabelValues(op, status(ok)).Inc()
}

// RecordBudget records a ledger alloc or release.
func RecordBudget(op string, ok bool) {
	if !enabled.Load() {
		return
	}
	budgetOps.WithLabelValues(op, status(ok)).Inc()
}

// RecordWitness records a witness generate or verify call.
func RecordWitness(op string, ok bool) {
	if !enabled.Load() {
		return
	}
	witnessOps.WithLabelValues(op, status(ok)).Inc()
}

// RecordClusterBuild records the duration of one CSR build.
func RecordClusterBuild(mode string, seconds float64) {
	if !enabled.Load() {
		return
	}
	clusterBuild.WithLabelValues(mode).Observe(seconds)
}

// RecordWindow records one window emitted by the schedule ticker.
func RecordWindow() {
	if !enabled.Load() {
		return
	}
	windowsOpened.Inc()
}

// Handler serves the resonance registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
