package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	samplesIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantar_samples_ingested_total",
			Help: "Pressure samples offered for ingestion, by source and result.",
		},
		[]string{"service", "source", "result"},
	)

	deviceAuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantar_device_auth_attempts_total",
			Help: "Device shared-secret authentication attempts.",
		},
		[]string{"service", "transport", "result"},
	)

	sessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantar_session_transitions_total",
			Help: "Session transition attempts by target status and result.",
		},
		[]string{"service", "to", "result"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantar_predictions_total",
			Help: "Prediction pipeline outcomes by source (model or fallback).",
		},
		[]string{"service", "source"},
	)

	modelRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantar_model_request_duration_seconds",
			Help:    "Latency of calls to the external prediction model.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "result"},
	)

	reportsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantar_reports_created_total",
			Help: "Reports persisted by source.",
		},
		[]string{"service", "source"},
	)
)

// Curried views with the service label bound. They are usable before MustRegister
// (with an empty service label) so packages can record metrics in tests.
var (
	HTTPRequestsTotal           *prometheus.CounterVec
	HTTPRequestDurationSeconds  *prometheus.HistogramVec
	SamplesIngestedTotal        *prometheus.CounterVec
	DeviceAuthAttemptsTotal     *prometheus.CounterVec
	SessionTransitionsTotal     *prometheus.CounterVec
	PredictionsTotal            *prometheus.CounterVec
	ModelRequestDurationSeconds *prometheus.HistogramVec
	ReportsCreatedTotal         *prometheus.CounterVec
)

func init() {
	curry("")
}

func curry(serviceName string) {
	l := prometheus.Labels{"service": serviceName}
	HTTPRequestsTotal = httpRequestsTotal.MustCurryWith(l)
	HTTPRequestDurationSeconds = httpRequestDurationSeconds.MustCurryWith(l).(*prometheus.HistogramVec)
	SamplesIngestedTotal = samplesIngestedTotal.MustCurryWith(l)
	DeviceAuthAttemptsTotal = deviceAuthAttemptsTotal.MustCurryWith(l)
	SessionTransitionsTotal = sessionTransitionsTotal.MustCurryWith(l)
	PredictionsTotal = predictionsTotal.MustCurryWith(l)
	ModelRequestDurationSeconds = modelRequestDurationSeconds.MustCurryWith(l).(*prometheus.HistogramVec)
	ReportsCreatedTotal = reportsCreatedTotal.MustCurryWith(l)
}

func MustRegister(serviceName string) {
	curry(serviceName)

	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		samplesIngestedTotal,
		deviceAuthAttemptsTotal,
		sessionTransitionsTotal,
		predictionsTotal,
		modelRequestDurationSeconds,
		reportsCreatedTotal,
	)
}
