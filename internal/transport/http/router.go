package http

import (
	"net/http"
	"strings"
	"time"

	"plantar/internal/identity"
	"plantar/internal/observability/middleware"
	"plantar/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds every request body. A 64x64 frame is well under this.
const maxBodyBytes = 1 << 20

type Options struct {
	CORSOrigins []string
	// IngestRateLimit is the number of device requests allowed per IP per minute.
	// Zero disables the limit.
	IngestRateLimit int
}

type Handler struct {
	sessions    *service.SessionManager
	samples     *service.SampleService
	predictions *service.PredictionPipeline
	reports     *service.ReportService
	users       *identity.Resolver
	devices     *identity.DeviceAuthenticator
}

func NewHandler(
	sessions *service.SessionManager,
	samples *service.SampleService,
	predictions *service.PredictionPipeline,
	reports *service.ReportService,
	users *identity.Resolver,
	devices *identity.DeviceAuthenticator,
) *Handler {
	return &Handler{
		sessions:    sessions,
		samples:     samples,
		predictions: predictions,
		reports:     reports,
		users:       users,
		devices:     devices,
	}
}

func NewRouter(h *Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	origins := trimOrigins(opts.CORSOrigins)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: originsOrAny(origins),
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Trace-ID"},
		// Credentials only for an explicit allow list, never for "*".
		AllowCredentials: len(origins) > 0,
		MaxAge:           300,
	}))
	r.Use(middleware.WithRequestAndTrace)
	r.Use(middleware.WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(dr chi.Router) {
		if opts.IngestRateLimit > 0 {
			dr.Use(httprate.LimitByIP(opts.IngestRateLimit, time.Minute))
		}
		dr.Use(h.requireDevice)
		dr.Post("/sensor/ingest", h.ingestSample)
	})

	r.Group(func(ur chi.Router) {
		ur.Use(h.requireUser)

		ur.Route("/sessions", func(sr chi.Router) {
			sr.Post("/", h.createSession)
			sr.Get("/", h.listSessions)
			sr.Get("/{id}", h.getSession)
			sr.Patch("/{id}", h.patchSession)
			sr.Post("/{id}/samples", h.appendSessionSample)
			sr.Get("/{id}/samples", h.listSessionSamples)
		})

		ur.Post("/predict", h.predict)

		ur.Get("/reports", h.listReports)
		ur.Post("/reports/submit", h.submitReport)
		ur.Get("/reports/{id}", h.getReport)
	})

	return r
}

func trimOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		if s := strings.TrimSpace(o); s != "" && s != "*" {
			out = append(out, s)
		}
	}
	return out
}

func originsOrAny(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
