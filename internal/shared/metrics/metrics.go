package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	extractionStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_runs_started_total",
		Help: "Total extraction runs started",
	})
	extractionCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_runs_completed_total",
		Help: "Total extraction runs completed",
	})
	extractionFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_runs_failed_total",
		Help: "Total extraction runs failed",
	})
	extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "extraction_run_duration_seconds",
		Help:    "Extraction run duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	sentencesSegmentedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_sentences_segmented_total",
		Help: "Total sentences produced by the segmenter",
	})
	sentencesClassifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_sentences_classified_total",
		Help: "Total sentences that yielded a surviving classification",
	})
	quotesPersistedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_quotes_persisted_total",
		Help: "Total validated quotes persisted",
	})
	validationRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_validation_rejections_total",
		Help: "Total candidate quotes rejected by verbatim validation",
	})
	modelCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_model_calls_total",
		Help: "Model completion calls by provider and outcome",
	}, []string{"provider", "outcome"})

	extractionJobsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_jobs_received_total",
		Help: "Queue messages received by the worker",
	})
	extractionJobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_jobs_completed_total",
		Help: "Queue jobs completed by the worker",
	})
	extractionJobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_jobs_failed_total",
		Help: "Queue jobs that failed processing",
	})
	extractionJobsDeletedUnrecoverableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extraction_jobs_deleted_unrecoverable_total",
		Help: "Queue jobs deleted without processing because the payload was unusable",
	})
)

// IncExtractionStarted increments the started counter.
func IncExtractionStarted() { extractionStartedTotal.Inc() }

// IncExtractionCompleted increments the completed counter.
func IncExtractionCompleted() { extractionCompletedTotal.Inc() }

// IncExtractionFailed increments the failed counter.
func IncExtractionFailed() { extractionFailedTotal.Inc() }

// ObserveExtractionDuration records a run duration.
func ObserveExtractionDuration(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	extractionDuration.Observe(seconds)
}

// AddSentencesSegmented records sentences produced by one run.
func AddSentencesSegmented(n int) { sentencesSegmentedTotal.Add(float64(n)) }

// AddSentencesClassified records surviving classifications for one run.
func AddSentencesClassified(n int) { sentencesClassifiedTotal.Add(float64(n)) }

// AddQuotesPersisted records persisted quotes for one run.
func AddQuotesPersisted(n int) { quotesPersistedTotal.Add(float64(n)) }

// IncValidationRejection counts a candidate dropped by verbatim validation.
func IncValidationRejection() { validationRejectionsTotal.Inc() }

// IncModelCall counts a completion attempt against a provider.
func IncModelCall(provider, outcome string) {
	modelCallsTotal.WithLabelValues(provider, outcome).Inc()
}

// IncExtractionJobsReceived counts a worker message receipt.
func IncExtractionJobsReceived() { extractionJobsReceivedTotal.Inc() }

// IncExtractionJobsCompleted counts a worker job completion.
func IncExtractionJobsCompleted() { extractionJobsCompletedTotal.Inc() }

// IncExtractionJobsFailed counts a worker job failure.
func IncExtractionJobsFailed() { extractionJobsFailedTotal.Inc() }

// IncExtractionJobsDeletedUnrecoverable counts an unusable payload deletion.
func IncExtractionJobsDeletedUnrecoverable() { extractionJobsDeletedUnrecoverableTotal.Inc() }

// Handler exposes the Prometheus registry over gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
