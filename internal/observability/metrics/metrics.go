// Package metrics provides Prometheus metrics for the translation backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tsuyaku"

type Metrics struct {
	SessionsCreated   prometheus.Counter
	SessionsCompleted prometheus.Counter

	TranslationsTotal  prometheus.Counter
	TranslationsFailed prometheus.Counter

	SummariesGenerated prometheus.Counter
	SummariesFailed    prometheus.Counter

	CapturesActive prometheus.Gauge
	CaptureFinals  prometheus.Counter
	CaptureErrors  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of translation sessions created",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of translation sessions ended",
		}),
		TranslationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Total number of utterance translation calls",
		}),
		TranslationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_failed_total",
			Help:      "Total number of failed utterance translation calls",
		}),
		SummariesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_generated_total",
			Help:      "Total number of summaries generated by the language model",
		}),
		SummariesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_failed_total",
			Help:      "Total number of failed summary generations",
		}),
		CapturesActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "captures_active",
			Help:      "Number of live speech capture streams",
		}),
		CaptureFinals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_final_events_total",
			Help:      "Total number of final recognition events consumed from live captures",
		}),
		CaptureErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Total number of live capture streams terminated by a stream error",
		}),
	}
}
