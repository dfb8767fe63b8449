package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/reconly/reconly/core/logx"
)

var openapiJSON = mustOpenAPISchema()

func mustOpenAPISchema() []byte {
	okResponse := func(desc string) map[string]any {
		return map[string]any{"200": map[string]any{"description": desc}}
	}
	pathParam := func(name string) []any {
		return []any{map[string]any{
			"name": name, "in": "path", "required": true,
			"schema": map[string]any{"type": "string"},
		}}
	}
	schema := map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":   "reconly API",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/api/settings/{category}": map[string]any{
				"get": map[string]any{
					"summary":    "Resolve all settings of a category",
					"parameters": pathParam("category"),
					"responses":  okResponse("Resolved settings"),
				},
			},
			"/api/settings": map[string]any{
				"put": map[string]any{
					"summary":   "Update settings",
					"responses": okResponse("Per-key results"),
				},
			},
			"/api/settings/reset": map[string]any{
				"post": map[string]any{
					"summary":   "Reset settings to environment or default",
					"responses": okResponse("Per-key results"),
				},
			},
			"/api/components/{kind}": map[string]any{
				"get": map[string]any{
					"summary":    "List components of a kind with activation state",
					"parameters": pathParam("kind"),
					"responses":  okResponse("Components"),
				},
			},
			"/api/components/{kind}/{name}/enabled": map[string]any{
				"post": map[string]any{
					"summary":    "Enable or disable a component",
					"parameters": append(pathParam("kind"), pathParam("name")...),
					"responses":  okResponse("Activation state"),
				},
			},
			"/api/components/failures": map[string]any{
				"get": map[string]any{
					"summary":   "List components that failed to register",
					"responses": okResponse("Failed descriptors"),
				},
			},
			"/api/sources": map[string]any{
				"get":  map[string]any{"summary": "List sources", "responses": okResponse("Sources")},
				"post": map[string]any{"summary": "Create a source", "responses": map[string]any{"201": map[string]any{"description": "Created source"}}},
			},
			"/api/sources/{id}": map[string]any{
				"get":    map[string]any{"summary": "Get a source", "parameters": pathParam("id"), "responses": okResponse("Source")},
				"put":    map[string]any{"summary": "Update a source", "parameters": pathParam("id"), "responses": okResponse("Source")},
				"delete": map[string]any{"summary": "Delete a source", "parameters": pathParam("id"), "responses": map[string]any{"204": map[string]any{"description": "Deleted"}}},
			},
			"/api/sources/{id}/run": map[string]any{
				"post": map[string]any{"summary": "Run a source now", "parameters": pathParam("id"), "responses": okResponse("Run state")},
			},
			"/api/runs": map[string]any{
				"get": map[string]any{"summary": "List run states", "responses": okResponse("Run states")},
			},
			"/api/digests": map[string]any{
				"get": map[string]any{"summary": "List digests", "responses": okResponse("Digests")},
			},
			"/api/digests/{id}": map[string]any{
				"get":    map[string]any{"summary": "Get a digest", "parameters": pathParam("id"), "responses": okResponse("Digest")},
				"delete": map[string]any{"summary": "Delete a digest", "parameters": pathParam("id"), "responses": map[string]any{"204": map[string]any{"description": "Deleted"}}},
			},
			"/api/digests/{id}/tags": map[string]any{
				"post": map[string]any{"summary": "Add a tag", "parameters": pathParam("id"), "responses": okResponse("Digest")},
			},
			"/api/digests/{id}/tags/{tag}": map[string]any{
				"delete": map[string]any{"summary": "Remove a tag", "parameters": append(pathParam("id"), pathParam("tag")...), "responses": okResponse("Digest")},
			},
			"/api/digests/{id}/export": map[string]any{
				"post": map[string]any{"summary": "Export a digest", "parameters": pathParam("id"), "responses": okResponse("Export result")},
			},
			"/api/system/status": map[string]any{
				"get": map[string]any{"summary": "System status", "responses": okResponse("Status")},
			},
			"/api/events": map[string]any{
				"get": map[string]any{"summary": "Websocket event stream", "responses": okResponse("Stream")},
			},
			"/healthz": map[string]any{
				"get": map[string]any{"summary": "Health check", "responses": okResponse("OK")},
			},
		},
	}
	b, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	doc, err := openapi3.NewLoader().LoadFromData(b)
	if err != nil {
		panic(err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		panic(err)
	}
	return b
}

func (a *API) openAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(openapiJSON); err != nil {
		log := logx.Component("api")
		log.Error().Err(err).Msg("write openapi")
	}
}
