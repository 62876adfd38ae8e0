// Package api provides the epmon REST API HTTP server.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/api/handlers"
	apimiddleware "github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/api/middleware"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/metrics"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (404 when disabled)
//   - POST /api/v1/auth/login - User authentication
//   - GET /api/v1/auth/me - Current user info
//   - POST /api/v1/scans - Scan report ingestion (admin + operator)
//   - GET /api/v1/endpoints - Endpoint inventory
//   - GET /api/v1/endpoints/{id} - Single endpoint
//   - GET /api/v1/endpoints/{id}/metrics - Metric sample query
//   - /api/v1/users/* - User management (admin only, except self-read)
//   - GET /api/v1/audit - Audit trail (admin only)
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(httpMetrics(deps.HTTPMetrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(deps.Store)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Prometheus scrape endpoint - unauthenticated
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.Handler().ServeHTTP(w, r)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(deps.Authenticator, deps.Reconciler, deps.Tokens, deps.Store)
	userHandler := handlers.NewUserHandler(deps.Store, deps.Hasher)
	scanHandler := handlers.NewScanHandler(deps.Store)
	endpointHandler := handlers.NewEndpointHandler(deps.Store)
	auditHandler := handlers.NewAuditHandler(deps.Store)

	tokenAuth := apimiddleware.TokenAuth(deps.Tokens, deps.AuthMetrics)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			// Public endpoint
			r.Post("/login", authHandler.Login)

			// Authenticated endpoint
			r.Group(func(r chi.Router) {
				r.Use(tokenAuth)
				r.Get("/me", authHandler.Me)
			})
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(tokenAuth)

			// Scan ingestion: admin + operator
			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.RequireRole(string(models.RoleAdmin), string(models.RoleOperator)))
				r.Post("/scans", scanHandler.Ingest)
			})

			// Endpoint inventory: any authenticated role
			r.Route("/endpoints", func(r chi.Router) {
				r.Get("/", endpointHandler.List)
				r.Get("/{id}", endpointHandler.Get)
				r.Get("/{id}/metrics", endpointHandler.Metrics)
			})

			// User management
			r.Route("/users", func(r chi.Router) {
				// Self-access allowed - handler does its own authorization
				r.Get("/{username}", userHandler.Get)

				// Admin-only operations
				r.Group(func(r chi.Router) {
					r.Use(apimiddleware.RequireAdmin())

					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
					r.Put("/{username}/role", userHandler.UpdateRole)
					r.Put("/{username}/active", userHandler.UpdateActive)
					r.Post("/{username}/password", userHandler.ResetPassword)
				})
			})

			// Audit trail (admin only)
			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.RequireAdmin())
				r.Get("/audit", auditHandler.List)
			})
		})
	})

	return r
}

// requestLogger logs HTTP requests with method, path, status, and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

// httpMetrics records request counts and latency per route pattern.
// Nil-safe: when metrics are disabled the middleware is a pass-through.
func httpMetrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start))
		})
	}
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}
