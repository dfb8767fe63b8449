// Package api implements the REST surface of the server.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reconly/reconly/internal/digest"
	"github.com/reconly/reconly/internal/pipeline"
	"github.com/reconly/reconly/internal/registry"
	"github.com/reconly/reconly/internal/runstate"
	"github.com/reconly/reconly/internal/scheduler"
	"github.com/reconly/reconly/internal/settings"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	SHA     string `json:"sha"`
	Date    string `json:"date"`
}

// API bundles the handlers' shared collaborators.
type API struct {
	Reg      *registry.Registry
	Resolver *settings.Resolver
	Store    *digest.Store
	Pipe     *pipeline.Pipeline
	Runs     runstate.Store
	Sched    *scheduler.Scheduler
	Build    BuildInfo
}

// Routes returns the /api router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/settings", func(sr chi.Router) {
		sr.Get("/{category}", a.getSettings)
		sr.Put("/", a.putSettings)
		sr.Post("/reset", a.resetSettings)
	})
	r.Route("/components", func(cr chi.Router) {
		cr.Get("/failures", a.getComponentFailures)
		cr.Get("/{kind}", a.listComponents)
		cr.Post("/{kind}/{name}/enabled", a.setComponentEnabled)
	})
	r.Route("/sources", func(sr chi.Router) {
		sr.Get("/", a.listSources)
		sr.Post("/", a.createSource)
		sr.Get("/{id}", a.getSource)
		sr.Put("/{id}", a.updateSource)
		sr.Delete("/{id}", a.deleteSource)
		sr.Post("/{id}/run", a.runSource)
	})
	r.Get("/runs", a.listRuns)
	r.Route("/digests", func(dr chi.Router) {
		dr.Get("/", a.listDigests)
		dr.Get("/{id}", a.getDigest)
		dr.Delete("/{id}", a.deleteDigest)
		dr.Post("/{id}/tags", a.addDigestTag)
		dr.Delete("/{id}/tags/{tag}", a.removeDigestTag)
		dr.Post("/{id}/export", a.exportDigest)
	})
	r.Get("/system/status", a.systemStatus)
	r.Get("/events", a.events)
	r.Get("/openapi.json", a.openAPISpec)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses: unknown entities are 404,
// rejected input is 400, and writes that conflict with the current state
// (locked fields, unsatisfiable enables) are 409.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound   *registry.NotFoundError
		unknownKey *settings.UnknownKeyError
		validation *settings.ValidationError
		readOnly   *settings.ReadOnlyFieldError
		cantEnable *settings.CannotEnableError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound), errors.As(err, &unknownKey), errors.Is(err, digest.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &readOnly), errors.As(err, &cantEnable):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
