package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	parlatext = "parlatext"

	// Recovery metrics
	recoveredJobsTotal = "recovered_jobs_total"

	// Translation metrics
	translationBatchFallbacksTotal = "translation_batch_fallbacks_total"
	translationsCreatedTotal       = "translations_created_total"

	// Labels
	recoveryOutcomeLabel = "outcome"
	localeLabel          = "locale"
)

/**
* Metrics definition
**/
var recoveredJobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: parlatext,
		Name:      recoveredJobsTotal,
		Help:      "number of processing jobs handled by the startup reconciler, by outcome",
	},
	[]string{recoveryOutcomeLabel},
)

var translationBatchFallbacksTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: parlatext,
		Name:      translationBatchFallbacksTotal,
		Help:      "number of batch translations that failed validation and fell back to per-unit calls",
	},
)

var translationsCreatedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: parlatext,
		Name:      translationsCreatedTotal,
		Help:      "number of translation records created, by target locale",
	},
	[]string{localeLabel},
)

func IncreaseRecoveredJobsMetric(outcome string) {
	recoveredJobsTotalMetric.With(prometheus.Labels{recoveryOutcomeLabel: outcome}).Inc()
}

func IncreaseTranslationBatchFallbacksMetric() {
	translationBatchFallbacksTotalMetric.Inc()
}

func IncreaseTranslationsCreatedMetric(locale string) {
	translationsCreatedTotalMetric.With(prometheus.Labels{localeLabel: locale}).Inc()
}

func RegisterDomainMetrics() {
	prometheus.MustRegister(
		recoveredJobsTotalMetric,
		translationBatchFallbacksTotalMetric,
		translationsCreatedTotalMetric,
	)
}

type PrometheusMetricsHandler struct{}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}
