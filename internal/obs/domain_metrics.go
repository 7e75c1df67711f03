package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrderCreatedTotal counts public order submissions by outcome.
	OrderCreatedTotal *prometheus.CounterVec
	// BookingCreatedTotal counts public booking submissions by outcome.
	BookingCreatedTotal *prometheus.CounterVec
	// DeliveryDecisionTotal counts delivery evaluations by decision.
	DeliveryDecisionTotal *prometheus.CounterVec
	// NotifyDeliveriesTotal tracks WhatsApp notification dispatch outcomes.
	NotifyDeliveriesTotal *prometheus.CounterVec
	// NotifyAttemptLatency records notification attempt latency in milliseconds.
	NotifyAttemptLatency *prometheus.HistogramVec
	// NotifyDispatchAttempts counts dispatcher attempts regardless of outcome.
	NotifyDispatchAttempts prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrderCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_created_total",
			Help:      "Count of public order submission outcomes.",
		}, []string{"result"})
		BookingCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of public booking submission outcomes.",
		}, []string{"result"})
		DeliveryDecisionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_decision_total",
			Help:      "Count of delivery policy evaluations by decision.",
		}, []string{"decision"})
		NotifyDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_deliveries_total",
			Help:      "Count of WhatsApp notification delivery outcomes.",
		}, []string{"result"})
		NotifyAttemptLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notify_attempt_duration_ms",
			Help:      "Latency for WhatsApp notification attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})
		NotifyDispatchAttempts = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_dispatch_attempts_total",
			Help:      "Total number of notification dispatch attempts.",
		})

		mustRegisterCollector(reg, OrderCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, BookingCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BookingCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, DeliveryDecisionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DeliveryDecisionTotal = v
			}
		})
		mustRegisterCollector(reg, NotifyDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotifyDeliveriesTotal = v
			}
		})
		mustRegisterCollector(reg, NotifyAttemptLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				NotifyAttemptLatency = v
			}
		})
		mustRegisterCollector(reg, NotifyDispatchAttempts, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				NotifyDispatchAttempts = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
