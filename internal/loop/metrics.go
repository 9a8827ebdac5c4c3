package loop

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/adaptd/internal/loop"

// Metrics holds the learning-loop instrumentation.
type Metrics struct {
	meter  metric.Meter
	logger *zap.Logger

	cyclesTotal       metric.Int64Counter
	cycleDuration     metric.Float64Histogram
	feedbackProcessed metric.Int64Counter
	adaptationsTotal  metric.Int64Counter
}

// NewMetrics creates loop metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.cyclesTotal, err = m.meter.Int64Counter(
		"adaptd.loop.cycles_total",
		metric.WithDescription("Learning cycles run, labeled by status (completed, skipped)."),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		m.logger.Warn("failed to create cycles counter", zap.Error(err))
	}

	m.cycleDuration, err = m.meter.Float64Histogram(
		"adaptd.loop.cycle_duration_seconds",
		metric.WithDescription("Learning cycle duration in seconds, labeled by status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0),
	)
	if err != nil {
		m.logger.Warn("failed to create cycle duration histogram", zap.Error(err))
	}

	m.feedbackProcessed, err = m.meter.Int64Counter(
		"adaptd.loop.feedback_processed_total",
		metric.WithDescription("Feedback items consumed by learning cycles."),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		m.logger.Warn("failed to create feedback counter", zap.Error(err))
	}

	m.adaptationsTotal, err = m.meter.Int64Counter(
		"adaptd.loop.adaptations_total",
		metric.WithDescription("Adaptations produced by cycles, labeled by outcome (applied, rejected)."),
		metric.WithUnit("{adaptation}"),
	)
	if err != nil {
		m.logger.Warn("failed to create adaptations counter", zap.Error(err))
	}
}

// RecordCycle records the outcome of one cycle invocation.
func (m *Metrics) RecordCycle(ctx context.Context, result *CycleResult, dur time.Duration) {
	status := attribute.String("status", string(result.Status))

	if m.cyclesTotal != nil {
		m.cyclesTotal.Add(ctx, 1, metric.WithAttributes(status))
	}
	if m.cycleDuration != nil {
		m.cycleDuration.Record(ctx, dur.Seconds(), metric.WithAttributes(status))
	}
	if m.feedbackProcessed != nil {
		m.feedbackProcessed.Add(ctx, int64(result.FeedbackProcessed))
	}
	if m.adaptationsTotal != nil {
		m.adaptationsTotal.Add(ctx, int64(result.AdaptationsApplied),
			metric.WithAttributes(attribute.String("outcome", "applied")))
		rejected := result.AdaptationsGenerated - result.AdaptationsApplied
		if rejected > 0 {
			m.adaptationsTotal.Add(ctx, int64(rejected),
				metric.WithAttributes(attribute.String("outcome", "rejected")))
		}
	}
}
