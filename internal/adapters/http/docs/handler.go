// Package docs serves the embedded OpenAPI specification.
package docs

import (
	"context"
	"net/http"
)

// Register attaches API documentation routes to mux.
// Routes:.
//
//	GET /api-docs      -> HTML viewer loading the spec from a CDN-free page
//	GET /openapi.yaml  -> Embedded OpenAPI spec
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
}

// Minimal HTML that links the raw spec; no external assets required.
const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Adrata CRM Scoring API</title>
  </head>
  <body>
    <h1>Adrata CRM Scoring API</h1>
    <p>The OpenAPI specification is served at <a href="/openapi.yaml">/openapi.yaml</a>.</p>
  </body>
</html>`
