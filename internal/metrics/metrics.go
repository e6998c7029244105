// Package metrics exposes Prometheus counters for the auth lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultError     = "error"

	// logout outcomes
	ResultRevoked = "revoked"
	ResultNoop    = "noop"
)

// Recorder is what the service layer reports into.
type Recorder interface {
	RecordSignup(result string)
	RecordLogin(result string)
	RecordLogout(result string)
}

type Collector struct {
	signups *prometheus.CounterVec
	logins  *prometheus.CounterVec
	logouts *prometheus.CounterVec
}

// NewCollector registers the auth counters on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Signup attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logouts_total",
			Help: "Logout calls by result: revoked, noop (unknown token) or error.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.signups, c.logins, c.logouts)
	return c
}

func (c *Collector) RecordSignup(result string) {
	c.signups.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogout(result string) {
	c.logouts.WithLabelValues(result).Inc()
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type Nop struct{}

func (Nop) RecordSignup(string) {}
func (Nop) RecordLogin(string) {}
func (Nop) RecordLogout(string) {}
