package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/auth"
	"github.com/rhuss/oauthfilter/pkg/observability"
	"github.com/rhuss/oauthfilter/pkg/transport"
)

// readinessTimeout bounds a single /readyz probe.
const readinessTimeout = 2 * time.Second

// HealthChecker reports whether a backing service is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RouterConfig holds the collaborators of the HTTP surface.
type RouterConfig struct {
	Resolver      *auth.Resolver
	Health        HealthChecker // optional, /readyz always succeeds without it
	Realm         string
	LookupTimeout time.Duration
	MetricsPath   string // empty disables metrics
	Logger        *slog.Logger
}

// NewRouter builds the chi router. Every route passes through recovery,
// request ID, access log, metrics and the OAuth filter, in that order.
//
// Routes:
//
//	GET /healthz    liveness
//	GET /readyz     store health check
//	GET <metrics>   Prometheus exposition
//	*   /whoami     echo of the published identity
//	*   /protected  echo, requires a token strategy
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	filterOpts := []auth.FilterOption{
		auth.WithLogger(logger),
		auth.WithLookupTimeout(cfg.LookupTimeout),
	}
	var metrics transport.Middleware
	if cfg.MetricsPath != "" {
		metrics = observability.MetricsMiddleware
	} else {
		filterOpts = append(filterOpts, auth.WithoutMetrics())
	}

	r := chi.NewRouter()
	r.Use(transport.Chain(
		transport.Recovery(logger),
		transport.RequestID(),
		transport.Logging(logger),
		metrics,
		auth.Filter(cfg.Resolver, filterOpts...),
	))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", readyHandler(cfg.Health, logger))
	if cfg.MetricsPath != "" {
		r.Method(http.MethodGet, cfg.MetricsPath, observability.Handler())
	}

	r.HandleFunc("/whoami", auth.EchoHandler)
	r.With(auth.Require(cfg.Realm, auth.StrategyToken)).HandleFunc("/protected", auth.EchoHandler)

	return r
}

func readyHandler(hc HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hc != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := hc.HealthCheck(ctx); err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", slog.String("error", err.Error()))
				transport.WriteAPIError(w, api.NewUnavailableError("store unavailable"))
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ready"))
	}
}
