// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results.
const (
	LoginSuccess  = "success"
	LoginFailed   = "failed"
	LoginLocked   = "locked"
	LoginInactive = "inactive"
	LoginError    = "error"
)

// Metrics bundles the collectors of one process. All methods are safe on a
// nil receiver so services can run without instrumentation.
type Metrics struct {
	registry        *prometheus.Registry
	logins          *prometheus.CounterVec
	accountsCreated prometheus.Counter
	emailsApproved  prometheus.Counter
	attemptsPruned  prometheus.Counter
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// New creates collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bitsybay_logins_total",
			Help: "Authentication attempts by result.",
		}, []string{"result"}),
		accountsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitsybay_accounts_created_total",
			Help: "Accounts created.",
		}),
		emailsApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitsybay_emails_approved_total",
			Help: "Email addresses approved with a valid code.",
		}),
		attemptsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitsybay_login_attempts_pruned_total",
			Help: "Login attempt rows deleted by pruning.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bitsybay_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bitsybay_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins,
		m.accountsCreated,
		m.emailsApproved,
		m.attemptsPruned,
		m.requests,
		m.duration,
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) AccountCreated() {
	if m == nil {
		return
	}
	m.accountsCreated.Inc()
}

func (m *Metrics) EmailApproved() {
	if m == nil {
		return
	}
	m.emailsApproved.Inc()
}

func (m *Metrics) AttemptsPruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.attemptsPruned.Add(float64(n))
}

// Request observes one finished HTTP request.
func (m *Metrics) Request(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
