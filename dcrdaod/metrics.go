// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"strconv"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "dcrdaod"

// daoMetrics contains the prometheus collectors of the daemon.
type daoMetrics struct {
	requests     *prometheus.CounterVec // Requests by route and status
	moduleErrors *prometheus.CounterVec // Module errors by module and code
	panics       prometheus.Counter     // Recovered handler panics
	executions   *prometheus.CounterVec // Committed transactions by type
	events       prometheus.Counter     // Events of committed transactions
	height       prometheus.Gauge       // Current block height
	blockTime    prometheus.Gauge       // Current block time
}

// newMetrics registers the daemon collectors with the provided registerer.
func newMetrics(reg prometheus.Registerer) *daoMetrics {
	promautoFactory := promauto.With(reg)
	return &daoMetrics{
		requests: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "number of http requests by route and status code",
		}, []string{"route", "code"}),
		moduleErrors: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "module_errors_total",
			Help:      "number of commands rejected by a module",
		}, []string{"module", "code"}),
		panics: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_panics_total",
			Help:      "number of recovered http handler panics",
		}),
		executions: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transactions_total",
			Help:      "number of committed transactions by type",
		}, []string{"type"}),
		events: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "number of events emitted by committed transactions",
		}),
		height: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "block_height",
			Help:      "current block height",
		}),
		blockTime: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "block_time_seconds",
			Help:      "current block time",
		}),
	}
}

// request records a served request.
func (m *daoMetrics) request(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// moduleError records a module error.
func (m *daoMetrics) moduleError(e backend.ModuleError) {
	m.moduleErrors.WithLabelValues(e.ModuleID,
		strconv.FormatUint(uint64(e.ErrorCode), 10)).Inc()
}

// recovered records a recovered handler panic.
func (m *daoMetrics) recovered() {
	m.panics.Inc()
}

// setBlock updates the block gauges.
func (m *daoMetrics) setBlock(b block.Info) {
	m.height.Set(float64(b.Height))
	m.blockTime.Set(float64(b.Time))
}

// handler returns a backend event handler that records the committed
// transactions. The transaction type is the type of its first event.
func (m *daoMetrics) handler() backend.EventHandler {
	return func(b block.Info, events []backend.Event) {
		if len(events) == 0 {
			return
		}
		m.setBlock(b)
		m.executions.WithLabelValues(events[0].Type).Inc()
		m.events.Add(float64(len(events)))
	}
}
