package metrics

import (
	"context"
	"fmt"
	"time"

	"explorer/config"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// SentryMetrics reports regeneration timings and failures to Sentry. With no
// DSN configured every call is a no-op.
type SentryMetrics struct {
	enabled bool
}

func NewSentryMetrics(config config.SentryConfig) (*SentryMetrics, error) {
	if config.Dsn == "" {
		log.Warn("sentry not configured", "component", "metrics")
		return &SentryMetrics{}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.Dsn,
		Environment:      config.Environment,
		Release:          "latent-explorer",
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	}); err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &SentryMetrics{enabled: true}, nil
}

func (m *SentryMetrics) Enabled() bool { return m != nil && m.enabled }

// RecordRegeneration implements controller.Recorder.
func (m *SentryMetrics) RecordRegeneration(ctx context.Context, dur time.Duration, err error) {
	if !m.Enabled() {
		return
	}

	span := sentry.StartSpan(ctx, "latent.regenerate")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", err == nil))
	span.SetData("duration_ms", dur.Milliseconds())
	span.Description = "Regenerate frame"

	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return
	}
	span.Status = sentry.SpanStatusOK
}

// CaptureFatal reports a startup failure before the process exits.
func (m *SentryMetrics) CaptureFatal(err error) {
	if !m.Enabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
	m.Flush()
}

func (m *SentryMetrics) Flush() {
	if !m.Enabled() {
		return
	}
	sentry.Flush(flushTimeout)
}
