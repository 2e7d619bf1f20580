package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"plantar/internal/domain"
	"plantar/internal/identity"
	"plantar/internal/observability/metrics"
	"plantar/internal/observability/middleware"
)

// requireUser resolves the bearer token into a domain.Caller.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := identity.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, r, "user auth missing bearer", fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated))
			return
		}
		caller, err := h.users.Resolve(r.Context(), tok)
		if err != nil {
			writeError(w, r, "user auth rejected", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithCaller(r.Context(), caller)))
	})
}

// requireDevice checks the shared device secret before the body is touched.
func (h *Handler) requireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret, _ := identity.BearerToken(r.Header.Get("Authorization"))
		if !h.devices.Authenticate(secret) {
			metrics.DeviceAuthAttemptsTotal.WithLabelValues("http", "failure").Inc()
			writeError(w, r, "device auth rejected", fmt.Errorf("%w: invalid device credentials", domain.ErrUnauthenticated))
			return
		}
		metrics.DeviceAuthAttemptsTotal.WithLabelValues("http", "success").Inc()
		slog.Debug("device auth passed",
			"remote", r.RemoteAddr,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		next.ServeHTTP(w, r)
	})
}

func callerOf(r *http.Request) domain.Caller {
	c, _ := identity.CallerFrom(r.Context())
	return c
}
