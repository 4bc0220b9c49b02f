package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrKind   = "kind"
	attrResult = "result"
	attrPhase  = "phase"
)

// Result values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultAbsent  = "absent"
)

// Auth flow phases.
const (
	AuthStarted   = "started"
	AuthCompleted = "completed"
	AuthFailed    = "failed"
)

// Metrics records bot-level counters. The zero value is a valid no-op
// recorder, used when instrumentation is disabled.
type Metrics struct {
	messagesTotal       metric.Int64Counter
	transcriptionsTotal metric.Int64Counter
	extractionsTotal    metric.Int64Counter
	eventsCreatedTotal  metric.Int64Counter
	authFlowsTotal      metric.Int64Counter
}

// NewMetrics creates a Metrics instance with all counters registered on the
// given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.messagesTotal, err = meter.Int64Counter(
		"bot_messages_total",
		metric.WithDescription("Total number of inbound Telegram updates handled"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot_messages_total counter: %w", err)
	}

	m.transcriptionsTotal, err = meter.Int64Counter(
		"transcriptions_total",
		metric.WithDescription("Total number of voice transcription requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriptions_total counter: %w", err)
	}

	m.extractionsTotal, err = meter.Int64Counter(
		"event_extractions_total",
		metric.WithDescription("Total number of event extraction requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event_extractions_total counter: %w", err)
	}

	m.eventsCreatedTotal, err = meter.Int64Counter(
		"calendar_events_total",
		metric.WithDescription("Total number of calendar event insert attempts"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_events_total counter: %w", err)
	}

	m.authFlowsTotal, err = meter.Int64Counter(
		"auth_flows_total",
		metric.WithDescription("Total number of OAuth authorization flow transitions"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_flows_total counter: %w", err)
	}

	return m, nil
}

// RecordMessage counts an inbound update of the given kind
// (text, voice, command, callback).
func (m *Metrics) RecordMessage(ctx context.Context, kind string) {
	if m.messagesTotal == nil {
		return
	}
	m.messagesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrKind, kind),
	))
}

// RecordTranscription counts a transcription attempt.
func (m *Metrics) RecordTranscription(ctx context.Context, result string) {
	if m.transcriptionsTotal == nil {
		return
	}
	m.transcriptionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordExtraction counts an event extraction attempt.
func (m *Metrics) RecordExtraction(ctx context.Context, result string) {
	if m.extractionsTotal == nil {
		return
	}
	m.extractionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordEventCreated counts a calendar event insert attempt.
func (m *Metrics) RecordEventCreated(ctx context.Context, result string) {
	if m.eventsCreatedTotal == nil {
		return
	}
	m.eventsCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordAuthFlow counts an authorization flow transition.
func (m *Metrics) RecordAuthFlow(ctx context.Context, phase string) {
	if m.authFlowsTotal == nil {
		return
	}
	m.authFlowsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrPhase, phase),
	))
}
