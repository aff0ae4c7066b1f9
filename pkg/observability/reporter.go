package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter forwards failures to an external error tracker. Report must not
// block the response for long and must never panic.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// NopReporter discards every report.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(context.Context, error, map[string]string) {}

// SentryOptions configures a SentryReporter.
type SentryOptions struct {
	DSN         string
	Environment string
	Release     string

	// BeforeSend, when set, is passed through to the Sentry client. Tests
	// use it to capture events without sending them.
	BeforeSend func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event
}

// SentryReporter reports failures to Sentry. It owns its own hub so that
// it does not depend on the global Sentry state.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter creates a reporter from opts.
func NewSentryReporter(opts SentryOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     opts.Release,
		BeforeSend:  opts.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sentry client: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Report captures err with the given tags.
func (r *SentryReporter) Report(_ context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be delivered.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
