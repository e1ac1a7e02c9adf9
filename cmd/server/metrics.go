package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stv0g/pion-roulette/pkg/relay"
)

var (
	metricHttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Count of all HTTP requests",
	}, []string{"code", "method"})

	metricHttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of all HTTP requests",
	}, []string{"code", "method"})
)

func registerMetrics(r *relay.Registry) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "relay_active_connections",
		Help: "The number of open connections",
	}, func() float64 {
		return float64(r.Stats().Connections)
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "relay_active_pairs",
		Help: "The number of paired connections",
	}, func() float64 {
		return float64(len(r.Stats().Pairs))
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "relay_waiting",
		Help: "1 if a connection is waiting for a partner",
	}, func() float64 {
		if r.Stats().Waiting != nil {
			return 1
		}
		return 0
	})
}
