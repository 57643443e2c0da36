// Package metrics exposes the Prometheus counters of the attendance API.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service and middleware layers report into.
type Recorder interface {
	RecordPolicyDecision(resource, action string, allowed bool)
	RecordTokenFailure(reason string)
	RecordLogin(outcome string)
	RecordHTTPStatus(statusCode int)
	RecordStaleEntries(count int)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	policyDecisions *prometheus.CounterVec
	tokenFailures   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	staleOpen       prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		policyDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetracker_policy_decisions_total",
			Help: "Access policy decisions by resource, action and outcome.",
		}, []string{"resource", "action", "outcome"}),
		tokenFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetracker_token_failures_total",
			Help: "Rejected bearer tokens by reason.",
		}, []string{"reason"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetracker_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetracker_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		staleOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetracker_stale_entries_flagged_total",
			Help: "Open time entries found by the stale entry sweep.",
		}),
	}

	reg.MustRegister(
		c.policyDecisions,
		c.tokenFailures,
		c.logins,
		c.httpStatus,
		c.staleOpen,
	)

	return c
}

func (c *Collector) RecordPolicyDecision(resource, action string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	c.policyDecisions.WithLabelValues(resource, action, outcome).Inc()
}

func (c *Collector) RecordTokenFailure(reason string) {
	c.tokenFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordStaleEntries(count int) {
	c.staleOpen.Add(float64(count))
}

// Nop discards everything. Used by tests and when metrics are disabled.
type Nop struct{}

func (Nop) RecordPolicyDecision(string, string, bool) {}
func (Nop) RecordTokenFailure(string)                 {}
func (Nop) RecordLogin(string)                        {}
func (Nop) RecordHTTPStatus(int)                      {}
func (Nop) RecordStaleEntries(int)                    {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
