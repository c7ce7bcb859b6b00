package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// CreditMetrics tracks ledger and webhook throughput for dashboards and
// reconciliation alerts.
type CreditMetrics struct {
	creditsGranted   *prometheus.CounterVec
	creditsDebited   prometheus.Counter
	creditsRefunded  prometheus.Counter
	refundFailures   prometheus.Counter
	webhookEvents    *prometheus.CounterVec
	duplicateEvents  *prometheus.CounterVec
	claimOutcomes    *prometheus.CounterVec
}

// NewCreditMetrics builds and registers the credit instruments on the
// given registerer. The process registers once on the default registry
// via fx; tests pass a fresh prometheus.NewRegistry so fixtures stay
// independent.
func NewCreditMetrics(registerer prometheus.Registerer, cfg Config) *CreditMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "churnbuster"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	creditsGranted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "churnbuster_credits_granted_total",
			Help:        "Credits granted to businesses by grant reason.",
			ConstLabels: constLabels,
		},
		[]string{"reason"}, // purchase | welcome_bonus
	)

	creditsDebited := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "churnbuster_credits_debited_total",
			Help:        "Credits consumed by successful offer claims.",
			ConstLabels: constLabels,
		},
	)

	creditsRefunded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "churnbuster_credits_refunded_total",
			Help:        "Compensating refunds after failed claim side effects.",
			ConstLabels: constLabels,
		},
	)

	refundFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "churnbuster_credit_refund_failures_total",
			Help:        "Refunds that failed and require manual reconciliation.",
			ConstLabels: constLabels,
		},
	)

	webhookEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "churnbuster_webhook_events_total",
			Help:        "Webhook deliveries by action and handling result.",
			ConstLabels: constLabels,
		},
		[]string{"action", "result"}, // processed | duplicate | ignored | failed
	)

	duplicateEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "churnbuster_duplicate_events_total",
			Help:        "Redeliveries absorbed by the idempotency guard.",
			ConstLabels: constLabels,
		},
		[]string{"scope"}, // payment | membership
	)

	claimOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "churnbuster_claim_outcomes_total",
			Help:        "Offer claim attempts by terminal outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"}, // applied | rejected | no_credits | failed
	)

	registerer.MustRegister(
		creditsGranted,
		creditsDebited,
		creditsRefunded,
		refundFailures,
		webhookEvents,
		duplicateEvents,
		claimOutcomes,
	)

	return &CreditMetrics{
		creditsGranted:  creditsGranted,
		creditsDebited:  creditsDebited,
		creditsRefunded: creditsRefunded,
		refundFailures:  refundFailures,
		webhookEvents:   webhookEvents,
		duplicateEvents: duplicateEvents,
		claimOutcomes:   claimOutcomes,
	}
}

func (m *CreditMetrics) AddCreditsGranted(reason string, credits int64) {
	if m == nil || credits <= 0 {
		return
	}
	m.creditsGranted.WithLabelValues(reason).Add(float64(credits))
}

func (m *CreditMetrics) IncCreditsDebited() {
	if m == nil {
		return
	}
	m.creditsDebited.Inc()
}

func (m *CreditMetrics) IncCreditsRefunded() {
	if m == nil {
		return
	}
	m.creditsRefunded.Inc()
}

func (m *CreditMetrics) IncRefundFailures() {
	if m == nil {
		return
	}
	m.refundFailures.Inc()
}

func (m *CreditMetrics) IncWebhookEvent(action, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(action, result).Inc()
}

func (m *CreditMetrics) IncDuplicateEvent(scope string) {
	if m == nil {
		return
	}
	m.duplicateEvents.WithLabelValues(scope).Inc()
}

func (m *CreditMetrics) IncClaimOutcome(outcome string) {
	if m == nil {
		return
	}
	m.claimOutcomes.WithLabelValues(outcome).Inc()
}
