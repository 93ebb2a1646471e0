package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder es la interfaz de metricas que usan servicios, dispatcher y middleware.
type Recorder interface {
	RecordGeneration(outcome string)
	RecordPaymentIntent(cycle, outcome string)
	RecordMail(kind, outcome string)
	RecordHTTPRequest(route string, status int, latency time.Duration)
}

// Collector implementa Recorder sobre Prometheus.
type Collector struct {
	generations    *prometheus.CounterVec
	paymentIntents *prometheus.CounterVec
	mails          *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

// NewCollector crea los colectores y los registra en reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specflow_generations_total",
			Help: "Spec generations by outcome",
		}, []string{"outcome"}),
		paymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specflow_payment_intents_total",
			Help: "Payment intents by billing cycle and outcome",
		}, []string{"cycle", "outcome"}),
		mails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specflow_mails_total",
			Help: "Outgoing mails by kind and outcome",
		}, []string{"kind", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specflow_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "specflow_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.generations,
		c.paymentIntents,
		c.mails,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordGeneration(outcome string) {
	c.generations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordPaymentIntent(cycle, outcome string) {
	c.paymentIntents.WithLabelValues(cycle, outcome).Inc()
}

func (c *Collector) RecordMail(kind, outcome string) {
	c.mails.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordHTTPRequest(route string, status int, latency time.Duration) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(latency.Seconds())
}

// Nop descarta todas las metricas.
type Nop struct{}

func (Nop) RecordGeneration(string) {}
func (Nop) RecordPaymentIntent(string, string) {}
func (Nop) RecordMail(string, string) {}
func (Nop) RecordHTTPRequest(string, int, time.Duration) {}

// Handler devuelve el handler de scrape de Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
