package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the WhatsApp booking flows.
type BotMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	bookingsTotal  prometheus.Counter
	cancelsTotal   prometheus.Counter
	remindersTotal *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "messaging",
			Name:      "inbound_total",
			Help:      "Total inbound WhatsApp messages",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
		bookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "booking",
			Name:      "confirmed_total",
			Help:      "Total confirmed appointments",
		}),
		cancelsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "booking",
			Name:      "canceled_total",
			Help:      "Total canceled appointments",
		}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "reminder",
			Name:      "sent_total",
			Help:      "Total reminder sends",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "petcare",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.bookingsTotal, m.cancelsTotal, m.remindersTotal, m.webhookLatency)
	return m
}

func (m *BotMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveBookingConfirmed() {
	if m == nil {
		return
	}
	m.bookingsTotal.Inc()
}

func (m *BotMetrics) ObserveBookingCanceled() {
	if m == nil {
		return
	}
	m.cancelsTotal.Inc()
}

func (m *BotMetrics) ObserveReminder(status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveWebhookLatency(source string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(source).Observe(seconds)
}
