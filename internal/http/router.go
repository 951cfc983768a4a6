// Package httpapi assembles the service's HTTP surface: public directory
// reads, token-guarded writes, rate-limited attestation endpoints, and the
// operational routes.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caredex/internal/attestation"
	"caredex/internal/directory"
	"caredex/internal/platform/metrics"
	platformmw "caredex/internal/platform/middleware"
	"caredex/internal/platform/token"
	"caredex/internal/ratelimit"
	"caredex/pkg/platform/middleware/metadata"
	"caredex/pkg/platform/middleware/requestid"
	"caredex/pkg/platform/middleware/requesttime"
	"caredex/pkg/requestcontext"
)

// Deps carries everything the router wires together.
type Deps struct {
	Directory   *directory.Handler
	Attestation *attestation.Handler
	Tokens      platformmw.TokenValidator
	RateLimit   *ratelimit.Middleware
	Logger      *slog.Logger
	HTTPMetrics *metrics.HTTP
}

// New builds the chi router with the full middleware chain.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}
	r.Use(requestLogger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	admin := platformmw.RequireRole(deps.Tokens, token.RoleAdmin, deps.Logger)
	staff := platformmw.RequireRole(deps.Tokens, token.RoleStaff, deps.Logger)

	deps.Directory.Register(r, admin)
	deps.Attestation.Register(r, deps.RateLimit.Limit, staff)

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			ctx := r.Context()
			logger.InfoContext(ctx, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestcontext.RequestID(ctx),
			)
		})
	}
}
