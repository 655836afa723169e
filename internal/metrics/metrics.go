package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog
	ProductsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "store_products_created_total",
			Help: "Total products added to the catalog",
		},
	)

	// Settlement outcomes
	PurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_purchases_total",
			Help: "Purchase settlements by outcome",
		},
		[]string{"status"}, // completed|reverted
	)
	WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_withdrawals_total",
			Help: "Withdrawal settlements by outcome",
		},
		[]string{"status"},
	)
	WithdrawnAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "store_withdrawn_amount_total",
			Help: "Sum of amounts paid out to sellers, smallest unit",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(ProductsCreated)
	prometheus.MustRegister(PurchasesTotal)
	prometheus.MustRegister(WithdrawalsTotal)
	prometheus.MustRegister(WithdrawnAmount)
	prometheus.MustRegister(WorkerQueueDepth)
}
