package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/getsentry/sentry-go"
)

// Reporter records infrastructure errors that callers only see as a
// generic failure.
type Reporter struct {
	log     logging.Logger
	metrics *Metrics
	hub     *sentry.Hub
}

func NewReporter(log logging.Logger, metrics *Metrics) *Reporter {
	return &Reporter{log: log.With("module", "reporter"), metrics: metrics}
}

// NewSentryHub builds a hub over a client for opts. Without a DSN or a
// transport there is nothing to report to and (nil, nil) is returned.
func NewSentryHub(opts sentry.ClientOptions) (*sentry.Hub, error) {
	if opts.Dsn == "" && opts.Transport == nil {
		return nil, nil
	}
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}

// WithSentry makes r forward every report to hub. A nil hub disables it.
func (r *Reporter) WithSentry(hub *sentry.Hub) *Reporter {
	r.hub = hub
	return r
}

// Report logs err with the operation name, counts it and forwards it to
// Sentry when configured.
func (r *Reporter) Report(ctx context.Context, operation string, err error) {
	r.log.Error(ctx, "infrastructure failure", "operation", operation, "error", err)
	if r.metrics != nil {
		r.metrics.InfraErrors.WithLabelValues(operation).Inc()
	}
	if r.hub != nil {
		hub := r.hub.Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("operation", operation)
		})
		hub.CaptureException(err)
	}
}

// Flush waits up to timeout for queued Sentry events to be delivered.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r.hub == nil {
		return true
	}
	return r.hub.Flush(timeout)
}
