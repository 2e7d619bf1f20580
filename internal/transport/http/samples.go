package http

import (
	"net/http"

	"plantar/internal/domain"
	"plantar/internal/observability/metrics"
	"plantar/internal/schema"
	"plantar/internal/service"

	"github.com/go-chi/chi/v5"
)

// ingestSample is the device gateway. The device is already authenticated.
func (h *Handler) ingestSample(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, "ingest read failed", err)
		return
	}
	in, err := schema.DecodeSample(data, nil)
	if err != nil {
		metrics.SamplesIngestedTotal.WithLabelValues(service.SourceDevice, "invalid").Inc()
		writeError(w, r, "ingest invalid", err)
		return
	}
	sample, err := h.samples.Ingest(r.Context(), in, service.SourceDevice)
	if err != nil {
		writeError(w, r, "ingest failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, sample)
}

func (h *Handler) appendSessionSample(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "append sample invalid id", err)
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, "append sample read failed", err)
		return
	}
	in, err := schema.DecodeSample(data, &id)
	if err != nil {
		metrics.SamplesIngestedTotal.WithLabelValues(service.SourceSession, "invalid").Inc()
		writeError(w, r, "append sample invalid", err)
		return
	}
	sample, err := h.samples.AppendToSession(r.Context(), callerOf(r), id, in)
	if err != nil {
		writeError(w, r, "append sample failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, sample)
}

func (h *Handler) listSessionSamples(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "list samples invalid id", err)
		return
	}
	caller := callerOf(r)
	page := schema.ParsePage(r.URL.Query(), domain.MaxSamplePage, domain.MaxSamplePage)
	items, page, err := h.samples.List(r.Context(), caller, id, page)
	if err != nil {
		writeError(w, r, "list samples failed", err)
		return
	}
	total, err := h.samples.Count(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, "count samples failed", err)
		return
	}
	body := newList(items, page)
	body.Total = total
	writeJSON(w, http.StatusOK, body)
}
