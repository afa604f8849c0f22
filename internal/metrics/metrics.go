package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wacom_sends_total",
			Help: "Outbound channel sends by outcome and kind",
		},
		[]string{"outcome", "kind"}, // delivered|failed , campaign|automation|single
	)

	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wacom_dispatch_jobs_total",
			Help: "Dispatch jobs by terminal state",
		},
		[]string{"state"}, // succeeded|failed
	)

	SchedulerTickSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wacom_scheduler_tick_seconds",
			Help:    "Duration of periodic scheduler ticks",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
		[]string{"tick"}, // automations|approvals
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		SendsTotal,
		JobsTotal,
		SchedulerTickSeconds,
	)
}
