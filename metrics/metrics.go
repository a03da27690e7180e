// Package metrics exposes prometheus collectors for the connection runtime
// and dispatch pipeline, scraped through wsforge/admin's /metrics endpoint.
// Grounded on the collector-registration style used across the pack's
// controller services (k8s-controller, Jeeves-Cluster-Organization-jeeves-core).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wsforge-go/wsforge"
)

var (
	// ConnectionsActive tracks the live connection count, mirrored from the
	// registry rather than recomputed per scrape.
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wsforge",
		Name:      "connections_active",
		Help:      "Number of currently registered WebSocket connections.",
	})

	// DispatchTotal counts completed dispatches by route key.
	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wsforge",
		Name:      "dispatch_total",
		Help:      "Total inbound messages dispatched, by resolved route.",
	}, []string{"route"})

	// BroadcastTotal counts broadcast enqueue attempts, split by outcome.
	BroadcastTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wsforge",
		Name:      "broadcast_total",
		Help:      "Total per-connection broadcast enqueue attempts.",
	}, []string{"outcome"})

	// ErrorsTotal counts dispatch-path errors by ErrorKind.
	ErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wsforge",
		Name:      "errors_total",
		Help:      "Total dispatch-path errors, by ErrorKind.",
	}, []string{"kind"})
)

// MustRegister registers every collector in this package against reg.
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(ConnectionsActive, DispatchTotal, BroadcastTotal, ErrorsTotal)
}

// ObserveDispatch records one completed dispatch for route, and increments
// ErrorsTotal for any non-nil err, labelled with its ErrorKind, or "unknown"
// when err is not a *wsforge.Error.
func ObserveDispatch(route string, err error) {
	DispatchTotal.WithLabelValues(route).Inc()
	if err == nil {
		return
	}
	kind := "unknown"
	if e, ok := err.(*wsforge.Error); ok {
		kind = e.Kind.String()
	}
	ErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveBroadcast records one broadcast's sent/failed split.
func ObserveBroadcast(sent, failed int) {
	BroadcastTotal.WithLabelValues("sent").Add(float64(sent))
	BroadcastTotal.WithLabelValues("failed").Add(float64(failed))
}

// SetConnectionsActive mirrors the registry's live count onto the gauge.
// wsforge/admin calls this on a short interval rather than the core
// importing this package directly.
func SetConnectionsActive(n int) {
	ConnectionsActive.Set(float64(n))
}
