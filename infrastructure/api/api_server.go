package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/patchlog"
	apimiddleware "github.com/helixml/patchlog/infrastructure/api/middleware"
	v1 "github.com/helixml/patchlog/infrastructure/api/v1"
	mcpinternal "github.com/helixml/patchlog/internal/mcp"
)

// DefaultVersion is reported by the info endpoint and MCP until
// WithVersion is called.
const DefaultVersion = "dev"

// RequestTimeout bounds every /api/v1 request.
const RequestTimeout = 60 * time.Second

// InfoResponse is returned by GET /.
type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// StatusResponse is returned by the health checks.
type StatusResponse struct {
	Status string `json:"status"`
}

// APIServer provides an HTTP API backed by a patchlog Client.
type APIServer struct {
	client       *patchlog.Client
	auth         apimiddleware.AuthConfig
	corsOrigins  []string
	version      string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given patchlog Client.
// apiKeys are "user:key" entries; every /api/v1 and /mcp request must carry
// one of the keys unless apiKeys is empty, in which case all callers act as
// the local user. Health, info and docs remain open.
func NewAPIServer(client *patchlog.Client, apiKeys []string) *APIServer {
	return &APIServer{
		client:  client,
		auth:    apimiddleware.NewAuthConfigWithKeys(apiKeys),
		version: DefaultVersion,
		logger:  client.Logger(),
	}
}

// WithCORSOrigins allows browser requests from origins.
func (a *APIServer) WithCORSOrigins(origins []string) *APIServer {
	a.corsOrigins = append([]string(nil), origins...)
	return a
}

// WithVersion sets the version reported by GET / and MCP.
func (a *APIServer) WithVersion(version string) *APIServer {
	if version != "" {
		a.version = version
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(a.logger))
	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", apimiddleware.APIKeyHeader, v1.GitHubTokenHeader, "X-Correlation-ID", "Mcp-Session-Id"},
			ExposedHeaders:   []string{"X-Correlation-ID", "Mcp-Session-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/", a.handleInfo)
	router.Get("/health", a.handleHealth)
	router.Get("/healthz", a.handleHealth)
	router.Mount("/docs", a.DocsRouter("/docs/openapi.json").Routes())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(RequestTimeout))
		r.Use(apimiddleware.Authenticate(a.auth))

		r.Mount("/records", v1.NewRecordsRouter(c).Routes())
		r.Mount("/ai", v1.NewAIRouter(c).Routes())
		r.Mount("/diff", v1.NewDiffRouter(c).Routes())
		r.Mount("/github", v1.NewGitHubRouter(c).Routes())
	})

	// MCP streams responses and tracks sessions in headers, so it skips the
	// Timeout middleware that wraps the ResponseWriter.
	mcpSrv := mcpinternal.NewServer(c.Records, c.Summarizer, a.version, a.logger)
	httpHandler := server.NewStreamableHTTPServer(mcpSrv.MCPServer())
	router.Group(func(r chi.Router) {
		r.Use(apimiddleware.Authenticate(a.auth))
		r.Mount("/mcp", httpHandler)
	})
}

func (a *APIServer) handleInfo(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, InfoResponse{
		Name:    "patchlog",
		Version: a.version,
		Docs:    "/docs",
	})
}

func (a *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// DocsRouter returns a router for Swagger UI and OpenAPI spec.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
