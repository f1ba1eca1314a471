package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		},
		[]string{"result"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "settlements_total",
			Help:      "Payment settlement attempts by result.",
		},
		[]string{"result"},
	)

	refunds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "refunds_total",
			Help:      "Refund attempts by result.",
		},
		[]string{"result"},
	)

	cartSyncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "cart_sync_tasks_total",
			Help:      "Cart reconciliation tasks by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, checkouts, settlements, refunds, cartSyncTasks)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncCheckout counts a checkout attempt: "ok" or "error".
func IncCheckout(result string) {
	checkouts.WithLabelValues(result).Inc()
}

// IncSettlement counts a settlement attempt: "ok", "invalid_signature" or "error".
func IncSettlement(result string) {
	settlements.WithLabelValues(result).Inc()
}

// IncRefund counts a refund attempt: "ok" or "error".
func IncRefund(result string) {
	refunds.WithLabelValues(result).Inc()
}

// IncCartSync counts a reconciliation task outcome: "completed", "retry" or "failed".
func IncCartSync(outcome string) {
	cartSyncTasks.WithLabelValues(outcome).Inc()
}
