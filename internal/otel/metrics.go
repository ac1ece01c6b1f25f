// Package otel records round outcomes as OpenTelemetry metrics. Without an
// installed MeterProvider the global meter is a no-op.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/towerline/roundsim/pkg/core"
)

// MeterName is the instrumentation scope of every round instrument.
const MeterName = "github.com/towerline/roundsim"

// RoundMetrics holds the instruments updated once per finished round.
type RoundMetrics struct {
	rounds    metric.Int64Counter
	frames    metric.Int64Histogram
	breaches  metric.Int64Counter
	destroyed metric.Int64Counter
}

// NewRoundMetrics creates the round instruments on meter. A nil meter uses
// the global provider.
func NewRoundMetrics(meter metric.Meter) (*RoundMetrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	rounds, err := meter.Int64Counter("roundsim.rounds",
		metric.WithDescription("Rounds replayed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rounds counter: %w", err)
	}
	frames, err := meter.Int64Histogram("roundsim.round.frames",
		metric.WithDescription("Frames per replayed round"),
		metric.WithUnit("{frame}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create frames histogram: %w", err)
	}
	breaches, err := meter.Int64Counter("roundsim.breaches",
		metric.WithDescription("Stacks that reached their target edge"))
	if err != nil {
		return nil, fmt.Errorf("failed to create breaches counter: %w", err)
	}
	destroyed, err := meter.Int64Counter("roundsim.structures.destroyed",
		metric.WithDescription("Structures destroyed during replay"))
	if err != nil {
		return nil, fmt.Errorf("failed to create destroyed counter: %w", err)
	}

	return &RoundMetrics{
		rounds:    rounds,
		frames:    frames,
		breaches:  breaches,
		destroyed: destroyed,
	}, nil
}

// Record adds one finished round.
func (m *RoundMetrics) Record(ctx context.Context, res *core.RoundResult) {
	attrs := metric.WithAttributes(attribute.String("outcome", res.Outcome()))

	m.rounds.Add(ctx, 1, attrs)
	m.frames.Record(ctx, int64(res.Frames), attrs)
	m.breaches.Add(ctx, int64(len(res.Breaches)), attrs)
	m.destroyed.Add(ctx, int64(res.StructuresDestroyed), attrs)
}
