package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(refundsTotal, creditsRefundedTotal)
}

var (
	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_refunds_total",
			Help: "Refund attempts by ledger outcome.",
		},
		[]string{"success"},
	)

	creditsRefundedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_credits_refunded_total",
			Help: "Sum of credits returned for failed generations.",
		},
	)
)

func IncRefund(ok bool) {
	refundsTotal.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

func AddRefundedCredits(amount int64) {
	creditsRefundedTotal.Add(float64(amount))
}
