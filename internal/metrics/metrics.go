package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	CheckoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_outcomes_total",
			Help: "Checkout attempts by terminal outcome",
		},
		[]string{"outcome"},
	)

	GatewayOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_orders_total",
			Help: "Gateway order creation calls by result",
		},
		[]string{"result"},
	)

	VerificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_verification_failures_total",
		Help: "Payment completions whose signature did not verify",
	})

	CommitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_commit_failures_total",
			Help: "Order commit failures after verified payment, by step",
		},
		[]string{"step"},
	)
)
