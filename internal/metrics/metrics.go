// Package metrics содержит Prometheus-метрики сервиса заказов.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

// Metrics объединяет счётчики HTTP-запросов и бизнес-операций.
// Методы безопасно вызывать на nil-значении.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	ordersPlaced     prometheus.Counter
	orderFailures    *prometheus.CounterVec
	receiptsApplied  *prometheus.CounterVec
	overReceipts     prometheus.Counter
	payments         prometheus.Counter
	catalogRefreshes *prometheus.CounterVec
}

// New регистрирует метрики в собственном реестре.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		ordersPlaced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Total number of orders confirmed by the order store",
		}),
		orderFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_failures_total",
			Help:      "Total number of rejected order operations by reason",
		}, []string{"operation", "reason"}),
		receiptsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_applied_total",
			Help:      "Total number of applied receipts by resulting order status",
		}, []string{"status"}),
		overReceipts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "over_receipt_lines_total",
			Help:      "Total number of receipt lines with more received than ordered",
		}),
		payments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_payments_total",
			Help:      "Total number of received orders paid to suppliers",
		}),
		catalogRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      "Total number of catalog refreshes by result",
		}, []string{"result"}),
	}
}

// Handler возвращает HTTP-обработчик для выдачи метрик.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest учитывает завершённый HTTP-запрос.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}

// OrderPlaced учитывает подтверждённый хранилищем заказ.
func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// OrderFailed учитывает отклонённую операцию с заказом.
func (m *Metrics) OrderFailed(operation, reason string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(operation, reason).Inc()
}

// ReceiptApplied учитывает применённую квитанцию.
func (m *Metrics) ReceiptApplied(status string) {
	if m == nil {
		return
	}
	m.receiptsApplied.WithLabelValues(status).Inc()
}

// OverReceipt учитывает позицию, полученную в большем количестве, чем заказано.
func (m *Metrics) OverReceipt() {
	if m == nil {
		return
	}
	m.overReceipts.Inc()
}

// PaymentMade учитывает оплату заказа поставщику.
func (m *Metrics) PaymentMade() {
	if m == nil {
		return
	}
	m.payments.Inc()
}

// CatalogRefreshed учитывает результат обновления каталога.
func (m *Metrics) CatalogRefreshed(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.catalogRefreshes.WithLabelValues(result).Inc()
}
