// Package metrics объявляет счётчики Prometheus для наблюдения за опросом
// статуса подписки и вызовами бэкенда. Метрики отдаются служебным
// листенером gatewatch на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatePollsTotal — общее число опросов статуса подписки.
	GatePollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gate_subscription_polls_total",
		Help: "Total number of subscription status polls issued by the gate.",
	})

	// GatePollFailures — опросы, завершившиеся ошибкой (проглоченной).
	GatePollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gate_subscription_poll_failures_total",
		Help: "Subscription status polls that failed and were swallowed.",
	})

	// GateActivations — число наблюдавшихся активаций подписки.
	GateActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gate_subscription_activations_total",
		Help: "Times a poll observed the subscription becoming active.",
	})

	// SubscriptionActive — последний наблюдавшийся статус подписки (1 — активна).
	SubscriptionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gate_subscription_active",
		Help: "Whether the last observed subscription status was active.",
	})
)
