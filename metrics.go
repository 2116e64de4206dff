package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

// Metrics contains all Prometheus metrics for the application.
type Metrics struct {
	// Node RPC metrics
	RPCCalls        *prometheus.CounterVec
	RPCCallDuration *prometheus.HistogramVec

	// Session metrics
	SessionWallets  prometheus.Gauge
	SessionServices prometheus.Gauge
	NodeUp          prometheus.Gauge

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
}

var _ rpcclient.CallObserver = (*Metrics)(nil)

// NewMetrics initializes and registers Prometheus metrics on the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers Prometheus metrics with
// a custom registry; tests pass their own to avoid duplicate registration.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		RPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidnode_rpc_calls_total",
				Help: "The total number of node RPC calls, by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		RPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liquidnode_rpc_call_duration_seconds",
				Help:    "Node RPC call round-trip duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		SessionWallets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "liquidnode_session_wallets",
			Help: "The number of wallets held by the current session",
		}),
		SessionServices: factory.NewGauge(prometheus.GaugeOpts{
			Name: "liquidnode_session_services",
			Help: "The number of services registered in the current session",
		}),
		NodeUp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "liquidnode_node_up",
			Help: "Whether the active service's node process is alive",
		}),
		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidnode_gateway_requests_total",
				Help: "The total number of gateway HTTP requests, by route and status",
			},
			[]string{"route", "status"},
		),
	}
}

// ObserveCall implements rpcclient.CallObserver so metrics hang off the
// executor the same way the journal does.
func (m *Metrics) ObserveCall(method string, params []any, result json.RawMessage, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		if _, ok := rpcclient.IsNodeError(err); ok {
			outcome = "rejected"
		} else {
			outcome = "transport_error"
		}
	}
	m.RPCCalls.WithLabelValues(method, outcome).Inc()
	m.RPCCallDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordSessionPeriodically samples session and node state into gauges
// until ctx is done.
func (m *Metrics) RecordSessionPeriodically(ctx context.Context, session *Session, interval time.Duration, lg log.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SessionWallets.Set(float64(len(session.Wallets())))
			m.SessionServices.Set(float64(session.ServiceCount()))
			svc, ok := session.ActiveService()
			if !ok {
				m.NodeUp.Set(0)
				continue
			}
			if svc.IsRunning() {
				m.NodeUp.Set(1)
			} else {
				m.NodeUp.Set(0)
				lg.Warn("active service's node process is not running")
			}
		}
	}
}
