// Package telemetry reports failures and timings to Sentry when a DSN is
// configured. Without one every call is a no-op.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

type Telemetry struct {
	enabled bool
}

// Init configures the Sentry client. An empty dsn yields a disabled
// Telemetry.
func Init(dsn, release string) (*Telemetry, error) {
	if dsn == "" {
		return &Telemetry{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &Telemetry{enabled: true}, nil
}

func (t *Telemetry) Enabled() bool { return t != nil && t.enabled }

// Flush waits for buffered events to be sent.
func (t *Telemetry) Flush() {
	if t.Enabled() {
		sentry.Flush(flushTimeout)
	}
}

func (t *Telemetry) CaptureError(err error) {
	if t.Enabled() && err != nil {
		sentry.CaptureException(err)
	}
}

// Run times fn inside a span named op, tagging it with the file being
// worked on. Errors mark the span failed and are captured.
func (t *Telemetry) Run(ctx context.Context, op, file string, fn func(context.Context) error) error {
	if !t.Enabled() {
		return fn(ctx)
	}
	span := sentry.StartSpan(ctx, op)
	defer span.Finish()
	span.SetTag("file", file)
	span.Description = fmt.Sprintf("%s %s", op, file)

	start := time.Now()
	err := fn(span.Context())
	span.SetData("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		t.CaptureError(err)
		return err
	}
	span.Status = sentry.SpanStatusOK
	return nil
}
