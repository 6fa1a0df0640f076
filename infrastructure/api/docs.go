// Package api provides the HTTP server, its routes and API documentation.
package api

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed openapi.json
var openapiSpec []byte

// specServerPlaceholder is the server entry in openapi.json that is
// rewritten to the caller's host.
const specServerPlaceholder = `"url": "/api/v1"`

// SwaggerUIHTML returns the Swagger UI page for specURL.
func SwaggerUIHTML(specURL string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Patchlog API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>
        body { margin: 0; background: #fafafa; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "` + specURL + `",
                dom_id: '#swagger-ui',
                deepLinking: true,
                persistAuthorization: true
            });
        };
    </script>
</body>
</html>`
}

// DocsRouter serves Swagger UI and the embedded OpenAPI document.
type DocsRouter struct {
	specURL string
}

// NewDocsRouter creates a new documentation router.
func NewDocsRouter(specURL string) *DocsRouter {
	return &DocsRouter{specURL: specURL}
}

// Routes returns the chi router for documentation endpoints.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", d.serveUI)
	router.Get("/openapi.json", d.serveSpec)
	return router
}

func (d *DocsRouter) serveUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(SwaggerUIHTML(d.specURL)))
}

// serveSpec points the spec's server at the requesting host so "Try it
// out" works behind proxies.
func (d *DocsRouter) serveSpec(w http.ResponseWriter, r *http.Request) {
	serverURL := fmt.Sprintf(`"url": "%s/api/v1"`, externalBaseURL(r))
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(bytes.Replace(openapiSpec, []byte(specServerPlaceholder), []byte(serverURL), 1))
}

// externalBaseURL rebuilds scheme://host as the client saw it.
func externalBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}
	return scheme + "://" + host
}
