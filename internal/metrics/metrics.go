package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the HTTP and order lifecycle collectors of the service.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ordersCreated prometheus.Counter
	ordersUpdated prometheus.Counter
	ordersDeleted prometheus.Counter
	linesCreated  prometheus.Counter
}

// New registers the collectors on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg. Collectors already present are reused,
// so building the service twice in one process is safe.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		httpRequests: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "ordersvc_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: registerHistogramVec(reg, prometheus.HistogramOpts{
			Name:    "ordersvc_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "route"}),
		ordersCreated: registerCounter(reg, prometheus.CounterOpts{
			Name: "ordersvc_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersUpdated: registerCounter(reg, prometheus.CounterOpts{
			Name: "ordersvc_orders_updated_total",
			Help: "Total number of orders replaced by an update",
		}),
		ordersDeleted: registerCounter(reg, prometheus.CounterOpts{
			Name: "ordersvc_orders_deleted_total",
			Help: "Total number of orders deleted",
		}),
		linesCreated: registerCounter(reg, prometheus.CounterOpts{
			Name: "ordersvc_order_lines_created_total",
			Help: "Total number of order lines created together with their order",
		}),
	}
}

// ObserveRequest records one finished HTTP request. route is the matched
// pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OrderCreated(lines int) {
	m.ordersCreated.Inc()
	m.linesCreated.Add(float64(lines))
}

func (m *Metrics) OrderUpdated() { m.ordersUpdated.Inc() }

func (m *Metrics) OrderDeleted() { m.ordersDeleted.Inc() }

func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := are.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return c
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return c
}

func registerHistogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return h
}
