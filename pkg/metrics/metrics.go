package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics bundles the collectors exported on /metrics. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	cartOps      *prometheus.CounterVec
	orders       prometheus.Counter
	orderStatus  *prometheus.CounterVec
	logins       *prometheus.CounterVec
}

// New registers the storefront collectors on a fresh registry together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"op"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders placed through checkout.",
	})
	orderStatus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status changes by target status.",
	}, []string{"status"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_logins_total",
		Help:      "Admin login attempts by result.",
	}, []string{"result"})
	reg.MustRegister(httpRequests, httpDuration, cartOps, orders, orderStatus, logins)

	return &Metrics{
		gatherer:     gatherer,
		httpRequests: httpRequests,
		httpDuration: httpDuration,
		cartOps:      cartOps,
		orders:       orders,
		orderStatus:  orderStatus,
		logins:       logins,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncCartOp counts a cart mutation. Its signature matches cart.Observer.
func (m *Metrics) IncCartOp(op string) {
	if m == nil || m.cartOps == nil {
		return
	}
	m.cartOps.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncOrders counts a placed order.
func (m *Metrics) IncOrders() {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.Inc()
}

// IncOrderStatus counts a transition into status.
func (m *Metrics) IncOrderStatus(status string) {
	if m == nil || m.orderStatus == nil {
		return
	}
	m.orderStatus.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncLogin counts an admin login attempt; result is "success" or "failure".
func (m *Metrics) IncLogin(result string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
