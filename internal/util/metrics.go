package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed through checkout",
	})

	OrderLedgerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_order_ledger_failures_total",
		Help: "Total number of order records that could not be persisted",
	})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_status_changes_total",
		Help: "Total number of order status transitions",
	}, []string{"status"})

	CheckoutBlockedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_blocked_total",
		Help: "Total number of checkout attempts that were blocked",
	}, []string{"reason"})

	OrderTotalAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_order_total_amount",
		Help:    "Final order totals in currency units",
		Buckets: []float64{5000, 10000, 25000, 50000, 100000, 250000, 500000},
	})

	DiscountsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_discounts_applied_total",
		Help: "Total number of discounts applied at checkout",
	}, []string{"kind"})

	CartAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_adjustments_total",
		Help: "Total number of cart requests adjusted by stock or catalog",
	}, []string{"reason"})

	CriticalStockAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_critical_stock_alerts_total",
		Help: "Total number of products that reached critical stock after an order",
	}, []string{"product_id"})

	StoreDecodeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_store_decode_failures_total",
		Help: "Total number of stored blobs that could not be decoded",
	}, []string{"key"})

	StateReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_state_reloads_total",
		Help: "Total number of state reloads triggered by change notifications",
	}, []string{"key"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
