package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reconly/reconly/internal/digest"
)

func (a *API) listDigests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := digest.ListFilter{Tag: q.Get("tag")}
	if v := q.Get("source_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid source_id"})
			return
		}
		filter.SourceID = id
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	digests, err := a.Store.ListDigests(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if digests == nil {
		digests = []digest.Digest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"digests": digests})
}

func (a *API) getDigest(w http.ResponseWriter, r *http.Request) {
	d, err := a.Store.GetDigest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) deleteDigest(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteDigest(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	Tag string `json:"tag"`
}

func (a *API) addDigestTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "tag is required"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.Store.AddTag(r.Context(), id, req.Tag); err != nil {
		writeError(w, err)
		return
	}
	d, err := a.Store.GetDigest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) removeDigestTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Store.RemoveTag(r.Context(), id, chi.URLParam(r, "tag")); err != nil {
		writeError(w, err)
		return
	}
	d, err := a.Store.GetDigest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type exportRequest struct {
	Exporter string `json:"exporter"`
}

func (a *API) exportDigest(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Exporter == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "exporter is required"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.Pipe.ExportDigest(r.Context(), id, req.Exporter); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"digest_id": id, "exporter": req.Exporter, "exported": true})
}
