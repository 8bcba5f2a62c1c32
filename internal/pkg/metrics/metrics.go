package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopbot"

// Metrics счётчики бизнес-событий. Нулевой или nil *Metrics ничего не пишет
type Metrics struct {
	ordersCreated   *prometheus.CounterVec
	ordersPaid      prometheus.Counter
	ordersCancelled prometheus.Counter
	invoices        *prometheus.CounterVec
	rateFallbacks   *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
	webhookRequests *prometheus.CounterVec
	events          *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobRuns         *prometheus.CounterVec
}

// New регистрирует метрики в reg. При reg == nil возвращает пустые метрики
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created, by source (single or cart).",
		}, []string{"source"}),
		ordersPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_paid_total",
			Help:      "Orders transitioned to paid.",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled by users or admins.",
		}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_total",
			Help:      "Invoice creation attempts, by result.",
		}, []string{"result"}),
		rateFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_fallback_total",
			Help:      "Conversions that fell back to the raw USD amount.",
		}, []string{"asset"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhooks_total",
			Help:      "Payment webhooks processed, by outcome.",
		}, []string{"outcome"}),
		webhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhook_requests_total",
			Help:      "Payment webhook HTTP requests, by result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Inbound events dispatched, by kind and result.",
		}, []string{"kind", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled jobs in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs, by result.",
		}, []string{"job", "result"}),
	}

	reg.MustRegister(
		m.ordersCreated,
		m.ordersPaid,
		m.ordersCancelled,
		m.invoices,
		m.rateFallbacks,
		m.webhooks,
		m.webhookRequests,
		m.events,
		m.jobDuration,
		m.jobRuns,
	)
	return m
}

func (m *Metrics) OrderCreated(source string, n int) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(source)).Add(float64(n))
}

func (m *Metrics) OrdersPaid(n int) {
	if m == nil || m.ordersPaid == nil {
		return
	}
	m.ordersPaid.Add(float64(n))
}

func (m *Metrics) OrderCancelled() {
	if m == nil || m.ordersCancelled == nil {
		return
	}
	m.ordersCancelled.Inc()
}

func (m *Metrics) Invoice(result string) {
	if m == nil || m.invoices == nil {
		return
	}
	m.invoices.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) RateFallback(asset string) {
	if m == nil || m.rateFallbacks == nil {
		return
	}
	m.rateFallbacks.WithLabelValues(normalizeLabel(asset)).Inc()
}

func (m *Metrics) Webhook(outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// WebhookRequest результат приёма вебхука на HTTP уровне, до обработки
func (m *Metrics) WebhookRequest(result string) {
	if m == nil || m.webhookRequests == nil {
		return
	}
	m.webhookRequests.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) Event(kind, result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// ObserveJob записывает длительность и результат запуска задачи
func (m *Metrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	job = normalizeLabel(job)
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())

	result := "success"
	if err != nil {
		result = "failure"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
