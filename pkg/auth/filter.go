package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/observability"
)

// ErrorHandler writes the response for a request whose credential could
// not be evaluated because a collaborator failed.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler responds with 503 and a JSON error envelope.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	api.WriteError(w, http.StatusServiceUnavailable,
		api.NewUnavailableError("credentials could not be evaluated"))
}

type filterOptions struct {
	logger       *slog.Logger
	errorHandler ErrorHandler
	timeout      time.Duration
	metrics      bool
}

// FilterOption configures Filter.
type FilterOption func(*filterOptions)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) FilterOption {
	return func(o *filterOptions) { o.logger = l }
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) FilterOption {
	return func(o *filterOptions) { o.errorHandler = h }
}

// WithLookupTimeout bounds the time spent resolving a credential. Zero
// means no bound beyond the request context.
func WithLookupTimeout(d time.Duration) FilterOption {
	return func(o *filterOptions) { o.timeout = d }
}

// WithoutMetrics disables Prometheus recording.
func WithoutMetrics() FilterOption {
	return func(o *filterOptions) { o.metrics = false }
}

// Filter returns middleware that extracts and resolves the request's
// credential and publishes the resulting identity into the request context.
//
// Requests without a valid credential are forwarded unchanged. If a
// collaborator fails, the error handler responds and next is not called.
// If the request context is cancelled during resolution nothing is
// published and next is not called.
func Filter(resolver *Resolver, opts ...FilterOption) func(http.Handler) http.Handler {
	o := filterOptions{
		logger:       slog.Default(),
		errorHandler: DefaultErrorHandler,
		metrics:      true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			candidate := Extract(r)
			scheme := Scheme(candidate)

			ctx := r.Context()
			resolveCtx := ctx
			if o.timeout > 0 {
				var cancel context.CancelFunc
				resolveCtx, cancel = context.WithTimeout(ctx, o.timeout)
				defer cancel()
			}

			start := time.Now()
			result, err := resolver.Resolve(resolveCtx, candidate)
			elapsed := time.Since(start)

			if err != nil {
				// The client went away; there is nobody to answer.
				if ctx.Err() != nil {
					o.logger.Debug("request cancelled during authentication",
						"path", r.URL.Path,
						"scheme", scheme,
						"error", err,
					)
					return
				}
				if o.metrics {
					observability.RecordCollaboratorError(scheme, elapsed)
				}
				o.logger.Error("authentication could not be evaluated",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"scheme", scheme,
					"error", err,
				)
				o.errorHandler(w, r, err)
				return
			}

			if o.metrics {
				observability.RecordResolution(scheme, result.Decision.String(), ReasonLabel(result.Reason), elapsed)
			}

			if result.Decision != Yes || result.Identity == nil {
				if result.Decision == No {
					o.logger.Debug("authentication failed",
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"scheme", scheme,
						"reason", result.Reason,
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			o.logger.Debug("authentication succeeded",
				"path", r.URL.Path,
				"scheme", scheme,
				"version", int(result.Identity.Version),
				"strategies", result.Identity.Strategies,
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, result.Identity)))
		})
	}
}
