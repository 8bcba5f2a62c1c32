package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderCreated("cart", 3)
	m.OrdersPaid(2)
	m.RateFallback("TON")
	m.RateFallback("")
	m.Webhook("paid")
	m.WebhookRequest("accepted")

	assert.Equal(t, float64(3), testutil.ToFloat64(m.ordersCreated.WithLabelValues("cart")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ordersPaid))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rateFallbacks.WithLabelValues("TON")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rateFallbacks.WithLabelValues("unknown")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.webhooks.WithLabelValues("paid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.webhookRequests.WithLabelValues("accepted")))
}

func TestMetrics_ObserveJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveJob("reconcile", 200*time.Millisecond, nil)
	m.ObserveJob("reconcile", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobRuns.WithLabelValues("reconcile", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobRuns.WithLabelValues("reconcile", "failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.jobDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated("single", 1)
		m.OrdersPaid(1)
		m.OrderCancelled()
		m.Invoice("ok")
		m.RateFallback("TON")
		m.Webhook("paid")
		m.WebhookRequest("malformed")
		m.Event("chat", "ok")
		m.ObserveJob("x", time.Second, nil)
	})

	empty := New(nil)
	assert.NotPanics(t, func() { empty.OrdersPaid(1) })
}
