// Package metrics exposes the node's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tolelom/vivorun/events"
)

const namespace = "vivorun"

var (
	// Registry holds the node's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	txProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Processed transactions by type and result.",
		},
		[]string{"type", "result"},
	)

	scoresSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "scores_submitted_total",
			Help:      "Committed score submissions.",
		},
	)

	questsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "quests_completed_total",
			Help:      "Quest completion latches flipped.",
		},
	)

	rewardTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "reward_tokens_total",
			Help:      "Tokens credited by quest reward claims.",
		},
	)

	lifelinesBought = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "lifelines_bought_total",
			Help:      "Lifelines bought with tokens.",
		},
	)

	blockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "block_height",
			Help:      "Height of the last committed block.",
		},
	)

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests by method and outcome.",
		},
		[]string{"method", "result"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of JSON-RPC requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method"},
	)
)

func init() {
	Registry.MustRegister(
		txProcessed,
		scoresSubmitted,
		questsCompleted,
		rewardTokens,
		lifelinesBought,
		blockHeight,
		rpcRequests,
		rpcDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Observe subscribes the ledger counters to committed events on e.
func Observe(e *events.Emitter) {
	e.Subscribe(events.EventTxExecuted, func(ev events.Event) {
		typ, _ := ev.Data["type"].(string)
		txProcessed.WithLabelValues(typ, "ok").Inc()
	})
	e.Subscribe(events.EventTxFailed, func(ev events.Event) {
		typ, _ := ev.Data["type"].(string)
		txProcessed.WithLabelValues(typ, "failed").Inc()
	})
	e.Subscribe(events.EventScoreSubmitted, func(events.Event) {
		scoresSubmitted.Inc()
	})
	e.Subscribe(events.EventQuestCompleted, func(events.Event) {
		questsCompleted.Inc()
	})
	e.Subscribe(events.EventQuestClaimed, func(ev events.Event) {
		if reward, ok := ev.Data["reward"].(uint64); ok {
			rewardTokens.Add(float64(reward))
		}
	})
	e.Subscribe(events.EventLifelineBought, func(events.Event) {
		lifelinesBought.Inc()
	})
	e.Subscribe(events.EventBlockCommit, func(ev events.Event) {
		blockHeight.Set(float64(ev.BlockHeight))
	})
}

// RecordRPC records one JSON-RPC call.
func RecordRPC(method string, failed bool, duration time.Duration) {
	result := "ok"
	if failed {
		result = "error"
	}
	rpcRequests.WithLabelValues(method, result).Inc()
	rpcDuration.WithLabelValues(method).Observe(duration.Seconds())
}
