// Package observe records session metrics through OpenTelemetry and serves
// them to Prometheus.
//
// Tests should build [Metrics] with [NewMetrics] over an isolated
// [metric.MeterProvider] such as one backed by a ManualReader.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/rbright/trustpay"

// Metrics holds the session instruments. It satisfies session.Observer.
type Metrics struct {
	// Utterances counts routed recognitions by verdict and command kind.
	Utterances metric.Int64Counter
	// Transitions counts dialogue mode changes by from and to mode.
	Transitions metric.Int64Counter
	// Payments counts payment attempts by outcome.
	Payments metric.Int64Counter
	// PaymentDuration tracks time spent in processing.
	PaymentDuration metric.Float64Histogram
	// RecognizerRestarts counts recognizer restarts by reason.
	RecognizerRestarts metric.Int64Counter
	// Sessions counts finished sessions by outcome.
	Sessions metric.Int64Counter
	// SessionDuration tracks time from start to exit.
	SessionDuration metric.Float64Histogram
	// ActiveSessions is the number of sessions currently running.
	ActiveSessions metric.Int64UpDownCounter
}

var (
	paymentBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30}
	sessionBuckets = []float64{10, 30, 60, 120, 180, 300, 600, 1200}
)

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.Utterances, err = m.Int64Counter("trustpay.utterances",
		metric.WithDescription("Recognitions routed by the dispatcher, by verdict and command kind."),
	); err != nil {
		return nil, err
	}
	if met.Transitions, err = m.Int64Counter("trustpay.dialogue.transitions",
		metric.WithDescription("Dialogue mode transitions."),
	); err != nil {
		return nil, err
	}
	if met.Payments, err = m.Int64Counter("trustpay.payments",
		metric.WithDescription("Payment attempts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.PaymentDuration, err = m.Float64Histogram("trustpay.payment.duration",
		metric.WithDescription("Time spent processing a payment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(paymentBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecognizerRestarts, err = m.Int64Counter("trustpay.recognizer.restarts",
		metric.WithDescription("Recognizer restarts after a failed segment."),
	); err != nil {
		return nil, err
	}
	if met.Sessions, err = m.Int64Counter("trustpay.sessions",
		metric.WithDescription("Finished sessions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.SessionDuration, err = m.Float64Histogram("trustpay.session.duration",
		metric.WithDescription("Session wall time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(sessionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("trustpay.sessions.active",
		metric.WithDescription("Sessions currently running."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

func (m *Metrics) RecordUtterance(ctx context.Context, verdict, kind string) {
	m.Utterances.Add(ctx, 1, metric.WithAttributes(
		attribute.String("verdict", verdict),
		attribute.String("kind", kind),
	))
}

func (m *Metrics) RecordTransition(ctx context.Context, from, to string) {
	m.Transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) RecordPayment(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Payments.Add(ctx, 1, attrs)
	m.PaymentDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) RecordRecognizerRestart(ctx context.Context, reason string) {
	m.RecognizerRestarts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// SessionStarted marks a session as running until RecordSession is called.
func (m *Metrics) SessionStarted(ctx context.Context) {
	m.ActiveSessions.Add(ctx, 1)
}

func (m *Metrics) RecordSession(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Sessions.Add(ctx, 1, attrs)
	m.SessionDuration.Record(ctx, elapsed.Seconds(), attrs)
	m.ActiveSessions.Add(ctx, -1)
}
