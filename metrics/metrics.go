// C:\Users\wasab\OneDrive\デスクトップ\PYRO\metrics\metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はアプリ全体のメトリクスです。nil でも各メソッドは安全に呼べます。
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	OrderOperations   *prometheus.CounterVec
	ParseRequests     *prometheus.CounterVec
	PersistFailures   *prometheus.CounterVec
	InventoryItems    prometheus.Gauge
	HistoryRecords    prometheus.Gauge
	BreakerStateGauge *prometheus.GaugeVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"method", "path"},
	)
	m.OrderOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_operations_total",
			Help:      "Outbound order lifecycle operations by result",
		},
		[]string{"operation", "result"},
	)
	m.ParseRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_requests_total",
			Help:      "Free-text parse requests by strategy and result",
		},
		[]string{"strategy", "result"},
	)
	m.PersistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Snapshot writes that failed, by collection",
		},
		[]string{"collection"},
	)
	m.InventoryItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_items",
		Help:      "Number of inventory items in the ledger",
	})
	m.HistoryRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_records",
		Help:      "Number of outbound records in history",
	})
	m.BreakerStateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrderOperations,
		m.ParseRequests,
		m.PersistFailures,
		m.InventoryItems,
		m.HistoryRecords,
		m.BreakerStateGauge,
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveOperation は出庫操作 (commit/edit/return/delete) の結果を数えます。
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	m.OrderOperations.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) ObserveParse(strategy string, err error) {
	if m == nil {
		return
	}
	m.ParseRequests.WithLabelValues(strategy, result(err)).Inc()
}

func (m *Metrics) PersistFailed(collection string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(collection).Inc()
}

// SetSizes は台帳と履歴の件数を記録します。
func (m *Metrics) SetSizes(items, records int) {
	if m == nil {
		return
	}
	m.InventoryItems.Set(float64(items))
	m.HistoryRecords.Set(float64(records))
}

func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerStateGauge.WithLabelValues(name).Set(float64(state))
}

// Middleware は gin のリクエスト数と処理時間を記録します。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler は /metrics 用のハンドラです。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
