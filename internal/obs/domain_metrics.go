package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentRedirectTotal counts hosted payment page redirect builds.
	PaymentRedirectTotal *prometheus.CounterVec
	// GatewayCallbackTotal counts inbound gateway return callbacks by outcome.
	GatewayCallbackTotal *prometheus.CounterVec
	// GatewayCallbackLatency records callback processing latency in milliseconds.
	GatewayCallbackLatency *prometheus.HistogramVec
	// OrderSettlementTotal counts settlement state transitions.
	OrderSettlementTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentRedirectTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_redirect_total",
			Help:      "Count of hosted payment redirect build outcomes.",
		}, []string{"result"})
		GatewayCallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_callback_total",
			Help:      "Count of processed gateway return callbacks by outcome.",
		}, []string{"result"})
		GatewayCallbackLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_callback_duration_ms",
			Help:      "Latency for gateway callback processing in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})
		OrderSettlementTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_settlement_total",
			Help:      "Count of order settlement transitions by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, PaymentRedirectTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentRedirectTotal = v
			}
		})
		mustRegisterCollector(reg, GatewayCallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GatewayCallbackTotal = v
			}
		})
		mustRegisterCollector(reg, GatewayCallbackLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				GatewayCallbackLatency = v
			}
		})
		mustRegisterCollector(reg, OrderSettlementTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderSettlementTotal = v
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
