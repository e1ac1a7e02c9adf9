package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnectionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_connections",
		Help: "The total number of accepted connections",
	})

	metricPairings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_pairings",
		Help: "The total number of connection pairs formed",
	})

	metricMessagesForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_forwarded",
		Help: "The total number of messages forwarded to a partner",
	}, []string{"type"})

	metricMessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_dropped",
		Help: "The total number of messages which could not be delivered",
	}, []string{"reason"})
)
