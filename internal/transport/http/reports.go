package http

import (
	"net/http"

	"plantar/internal/domain"
	"plantar/internal/schema"

	"github.com/go-chi/chi/v5"
)

// PredictResponse is the created report plus whether the model or the fallback produced it.
type PredictResponse struct {
	Report *domain.Report      `json:"report"`
	Source domain.ReportSource `json:"source"`
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, "predict read failed", err)
		return
	}
	in, err := schema.DecodePredict(data)
	if err != nil {
		writeError(w, r, "predict invalid", err)
		return
	}
	report, err := h.predictions.Predict(r.Context(), callerOf(r), in)
	if err != nil {
		writeError(w, r, "predict failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, PredictResponse{Report: report, Source: report.Source})
}

func (h *Handler) submitReport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, "submit report read failed", err)
		return
	}
	in, err := schema.DecodeReportSubmit(data)
	if err != nil {
		writeError(w, r, "submit report invalid", err)
		return
	}
	report, err := h.reports.Submit(r.Context(), callerOf(r), in)
	if err != nil {
		writeError(w, r, "submit report failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, err := schema.ParseOwnerFilter(q)
	if err != nil {
		writeError(w, r, "list reports invalid", err)
		return
	}
	page := schema.ParsePage(q, domain.DefaultPageLimit, domain.MaxPageLimit)
	items, page, err := h.reports.List(r.Context(), callerOf(r), owner, page)
	if err != nil {
		writeError(w, r, "list reports failed", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, page))
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "get report invalid id", err)
		return
	}
	report, err := h.reports.Get(r.Context(), callerOf(r), id)
	if err != nil {
		writeError(w, r, "get report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
