package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 订单流转相关的业务指标。
// 通过 /metrics 端点由 promhttp 暴露。
var (
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Total number of order transition attempts, labelled by target status and result.",
	}, []string{"target", "result"})

	TransitionReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_transition_replays_total",
		Help: "Number of transition requests answered from the idempotency log.",
	})

	TransitionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_transition_duration_seconds",
		Help:    "Wall time of real transition executions, lock wait and effects included.",
		Buckets: prometheus.DefBuckets,
	})
)
