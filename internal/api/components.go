package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reconly/reconly/internal/registry"
	"github.com/reconly/reconly/internal/settings"
)

type componentView struct {
	registry.Descriptor
	Activation settings.Activation `json:"activation"`
	Settings   []settingView       `json:"settings"`
}

func (a *API) listComponents(w http.ResponseWriter, r *http.Request) {
	kind := registry.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown component kind " + string(kind)})
		return
	}

	entries := a.Reg.List(kind)
	out := make([]componentView, 0, len(entries))
	for _, e := range entries {
		act, err := a.Resolver.Activation(r.Context(), e.Descriptor)
		if err != nil {
			writeError(w, err)
			return
		}
		resolved, err := a.Resolver.ResolveComponent(r.Context(), e.Descriptor)
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]settingView, 0, len(resolved))
		for _, res := range resolved {
			views = append(views, viewOf(res))
		}
		out = append(out, componentView{Descriptor: e.Descriptor, Activation: act, Settings: views})
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "components": out})
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (a *API) setComponentEnabled(w http.ResponseWriter, r *http.Request) {
	kind := registry.Kind(chi.URLParam(r, "kind"))
	name := chi.URLParam(r, "name")
	if !kind.Valid() {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown component kind " + string(kind)})
		return
	}
	var req setEnabledRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.Resolver.SetEnabled(r.Context(), kind, name, req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	entry, err := a.Reg.Get(kind, name)
	if err != nil {
		writeError(w, err)
		return
	}
	act, err := a.Resolver.Activation(r.Context(), entry.Descriptor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "name": name, "activation": act})
}

func (a *API) getComponentFailures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"failures": a.Reg.Failures()})
}
