package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reconly/reconly/internal/digest"
	"github.com/reconly/reconly/internal/scheduler"
)

func sourceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid source id"})
		return 0, false
	}
	return id, true
}

func (a *API) listSources(w http.ResponseWriter, r *http.Request) {
	sources, err := a.Store.ListSources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if sources == nil {
		sources = []digest.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

type sourceRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Fetcher  string `json:"fetcher"`
	Schedule string `json:"schedule"`
	Enabled  bool   `json:"enabled"`
}

func (a *API) validateSource(req sourceRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if req.URL == "" {
		return "url is required"
	}
	if err := scheduler.ValidateSchedule(req.Schedule); err != nil {
		return "invalid schedule: " + err.Error()
	}
	if req.Fetcher != "" {
		src := digest.Source{Fetcher: req.Fetcher}
		if _, err := a.Pipe.FetcherFor(src); err != nil {
			return "unknown fetcher " + req.Fetcher
		}
	}
	return ""
}

func (a *API) createSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := a.validateSource(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
		return
	}
	src, err := a.Store.AddSource(r.Context(), digest.Source{
		Name: req.Name, URL: req.URL, Fetcher: req.Fetcher, Schedule: req.Schedule, Enabled: req.Enabled,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if a.Sched != nil {
		_ = a.Sched.Reload(r.Context())
	}
	writeJSON(w, http.StatusCreated, src)
}

func (a *API) getSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceID(w, r)
	if !ok {
		return
	}
	src, err := a.Store.GetSource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (a *API) updateSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceID(w, r)
	if !ok {
		return
	}
	var req sourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := a.validateSource(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
		return
	}
	err := a.Store.UpdateSource(r.Context(), digest.Source{
		ID: id, Name: req.Name, URL: req.URL, Fetcher: req.Fetcher, Schedule: req.Schedule, Enabled: req.Enabled,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if a.Sched != nil {
		_ = a.Sched.Reload(r.Context())
	}
	src, err := a.Store.GetSource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (a *API) deleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceID(w, r)
	if !ok {
		return
	}
	if err := a.Store.DeleteSource(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if a.Sched != nil {
		_ = a.Sched.Reload(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) runSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceID(w, r)
	if !ok {
		return
	}
	st, err := a.Pipe.RunSource(r.Context(), id)
	if err != nil {
		// A run that started but failed still has state worth returning.
		if st.SourceID == "" {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusBadGateway, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.Runs.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
