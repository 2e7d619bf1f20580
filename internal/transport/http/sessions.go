package http

import (
	"net/http"

	"plantar/internal/domain"
	"plantar/internal/schema"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, "create session read failed", err)
		return
	}
	note, err := schema.DecodeSessionCreate(data)
	if err != nil {
		writeError(w, r, "create session invalid", err)
		return
	}
	sess, err := h.sessions.Create(r.Context(), callerOf(r), note)
	if err != nil {
		writeError(w, r, "create session failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, err := schema.ParseOwnerFilter(q)
	if err != nil {
		writeError(w, r, "list sessions invalid", err)
		return
	}
	page := schema.ParsePage(q, domain.DefaultPageLimit, domain.MaxPageLimit)
	items, page, err := h.sessions.List(r.Context(), callerOf(r), owner, page)
	if err != nil {
		writeError(w, r, "list sessions failed", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, page))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "get session invalid id", err)
		return
	}
	sess, err := h.sessions.Get(r.Context(), callerOf(r), id)
	if err != nil {
		writeError(w, r, "get session failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) patchSession(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "patch session invalid id", err)
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, "patch session read failed", err)
		return
	}
	patch, err := schema.DecodeSessionPatch(data)
	if err != nil {
		writeError(w, r, "patch session invalid", err)
		return
	}
	sess, err := h.sessions.Transition(r.Context(), callerOf(r), id, patch)
	if err != nil {
		writeError(w, r, "patch session failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
