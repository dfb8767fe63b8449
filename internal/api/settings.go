package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reconly/reconly/core/secret"
	"github.com/reconly/reconly/internal/settings"
)

// settingView is one resolved setting as exposed over the API. Secret string
// values are masked; the raw value never leaves the server once stored.
type settingView struct {
	Key      string          `json:"key"`
	Value    any             `json:"value"`
	Source   settings.Source `json:"source"`
	Editable bool            `json:"editable"`
	Secret   bool            `json:"secret"`
}

func viewOf(r settings.Resolved) settingView {
	v := settingView{Key: r.Key, Value: r.Value, Source: r.Source, Editable: r.Editable, Secret: r.Secret}
	if r.Secret {
		if s, ok := r.Value.(string); ok {
			v.Value = secret.Mask(s)
		}
	}
	return v
}

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	resolved, err := a.Resolver.ResolveCategory(r.Context(), category)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]settingView, 0, len(resolved))
	for _, res := range resolved {
		out = append(out, viewOf(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "settings": out})
}

type putSettingsRequest struct {
	Settings map[string]any `json:"settings"`
}

type keyResult struct {
	Key   string `json:"key"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// putSettings applies each key independently and reports per-key outcomes, so
// one locked or invalid field never blocks the rest of a form save.
func (a *API) putSettings(w http.ResponseWriter, r *http.Request) {
	var req putSettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	results := make([]keyResult, 0, len(req.Settings))
	anyFailed := false
	for key, value := range req.Settings {
		res := keyResult{Key: key, OK: true}
		if err := a.Resolver.Update(r.Context(), key, value); err != nil {
			res.OK = false
			res.Error = err.Error()
			anyFailed = true
		}
		results = append(results, res)
	}
	status := http.StatusOK
	if anyFailed {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{"results": results})
}

type resetSettingsRequest struct {
	Keys []string `json:"keys"`
}

func (a *API) resetSettings(w http.ResponseWriter, r *http.Request) {
	var req resetSettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	results := make([]keyResult, 0, len(req.Keys))
	for _, rr := range a.Resolver.Reset(r.Context(), req.Keys) {
		res := keyResult{Key: rr.Key, OK: rr.Err == nil}
		if rr.Err != nil {
			res.Error = rr.Err.Error()
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
